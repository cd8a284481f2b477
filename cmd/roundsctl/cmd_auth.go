package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sallamaty/rounds-console/internal/session"
)

var (
	loginEmail      string
	loginPassword   string
	loginCredential string
	whoamiRemote    bool
)

// loginCmd signs in and stores the token
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	Long: `Sign in with email and password, or with a Google ID token credential.

The password may also be given through the ROUNDS_PASSWORD environment
variable.`,
	RunE: runLogin,
}

// logoutCmd forgets the stored session
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE:  runLogout,
}

// whoamiCmd shows the signed-in user
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (or set ROUNDS_PASSWORD)")
	loginCmd.Flags().StringVar(&loginCredential, "google-credential", "", "Google ID token credential")
	whoamiCmd.Flags().BoolVar(&whoamiRemote, "remote", false, "Ask the backend instead of the cached user")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	sess, c := openSession()

	if loginCredential != "" {
		resp, err := c.GoogleSignIn(ctx, loginCredential)
		if err != nil {
			return fmt.Errorf("google sign-in failed: %w", err)
		}
		if err := sess.Adopt(ctx, resp); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", resp.User.DisplayName())
		return nil
	}

	password := loginPassword
	if password == "" {
		password = os.Getenv("ROUNDS_PASSWORD")
	}

	user, err := sess.SignIn(ctx, c, loginEmail, password)
	if err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", user.DisplayName())
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	sess, _ := openSession()
	if err := sess.SignOut(cmd.Context()); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	sess, c := openSession()

	if whoamiRemote {
		user, err := c.Me(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), user)
	}

	user, err := sess.User(ctx)
	if errors.Is(err, session.ErrNoSession) {
		return errors.New("not signed in, run 'roundsctl login'")
	}
	if err != nil {
		return err
	}
	expired, err := sess.Expired(ctx, timeNow())
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), map[string]interface{}{
		"user":    user,
		"expired": expired,
	})
}
