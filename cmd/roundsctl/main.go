package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sallamaty/rounds-console/internal/config"
	"github.com/sallamaty/rounds-console/internal/queries"
	"github.com/sallamaty/rounds-console/internal/session"
	"github.com/sallamaty/rounds-console/pkg/client"
)

var (
	// Global flags
	configPath  string
	apiURL      string
	sessionFile string
	timeout     time.Duration
	verbose     bool

	cfg    *config.Config
	logger *slog.Logger

	timeNow = time.Now
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "roundsctl",
	Short: "Command-line client for the quality and safety rounds API",
	Long: `roundsctl talks to the rounds backend the same way the web console does.

Sign in once with 'roundsctl login'; the token is kept in a session file
and sent with every later command until it expires or you sign out.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if !cmd.Flags().Changed("api") && apiURL == "" {
			apiURL = cfg.API.BaseURL
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv(config.FileEnv), "Console YAML config file")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Backend base URL (default: api.base_url from config)")
	rootCmd.PersistentFlags().StringVar(&sessionFile, "session-file", defaultSessionFile(), "File holding the signed-in session")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
	rootCmd.AddCommand(listCmd, dashboardCmd)
	reportsCmd.AddCommand(reportsListCmd, reportsRunCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(migrateCmd, syncCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultSessionFile() string {
	if env := os.Getenv("ROUNDSCTL_SESSION"); env != "" {
		return env
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".roundsctl-session.json"
	}
	return filepath.Join(dir, "roundsctl", "session.json")
}

// openSession returns the persisted CLI session and a client signed by it
func openSession() (*session.Session, *client.Client) {
	sess := session.New(session.NewFileStore(sessionFile))
	c := client.NewClient(apiURL, sess,
		client.WithTimeout(timeout),
		client.WithLogger(logger),
		client.WithSessionExpiredHook(func(string) {
			logger.Warn("session expired, run 'roundsctl login' to sign in again")
		}),
	)
	return sess, c
}

func openQueries() *queries.Queries {
	_, c := openSession()
	return queries.New(c, queries.WithLogger(logger))
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
