package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sallamaty/rounds-console/internal/reports"
)

var (
	reportsDir    string
	reportsGroup  string
	reportsParams map[string]string
)

// reportsCmd groups the report catalog commands
var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Browse and run catalog reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the reports in the catalog",
	RunE:  runReportsList,
}

var reportsRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Fetch a report",
	Long: `Fetch a report from the backend. Parameters given with --param are
merged over the report's defaults.`,
	Args: cobra.ExactArgs(1),
	RunE: runReportsRun,
}

func init() {
	reportsCmd.PersistentFlags().StringVar(&reportsDir, "dir", "", "Report catalog directory (default: reports.dir from config)")
	reportsListCmd.Flags().StringVar(&reportsGroup, "group", "", "Only reports of this group")
	reportsRunCmd.Flags().StringToStringVar(&reportsParams, "param", nil, "Report parameter as key=value (repeatable)")
}

func loadCatalog() (*reports.Catalog, error) {
	dir := reportsDir
	if dir == "" {
		dir = cfg.Reports.Dir
	}
	catalog := reports.NewCatalog()
	if err := catalog.LoadFromDir(dir); err != nil {
		return nil, err
	}
	return catalog, nil
}

func runReportsList(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), catalog.List(reportsGroup))
}

func runReportsRun(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	def := catalog.Get(args[0])
	if def == nil {
		return fmt.Errorf("report %q not found", args[0])
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	report, err := load(ctx, openQueries().Report(*def, reportsParams))
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), report)
}
