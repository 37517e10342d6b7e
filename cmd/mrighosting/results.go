package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mrighosting/pkg/config"
	"mrighosting/pkg/store"
)

// NewResultsCmd creates the results command listing stored measurements
func NewResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "List ghosting results stored in the database",
		Long: `Results prints the measurements previously stored by
"mrighosting analyze --db". The database defaults to the one named in the
configuration file, then to results.db under the XDG data directory.`,
		Args: cobra.NoArgs,
		RunE: runResults,
	}

	cmd.Flags().String("db", "", "SQLite database to read results from")
	cmd.Flags().String("series", "", "Only show results for this SeriesInstanceUID")

	return cmd
}

func runResults(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = cfg.Output.Database
	}
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	var records []store.Record
	if series, _ := cmd.Flags().GetString("series"); series != "" {
		records, err = db.ResultsForSeries(cmd.Context(), series)
	} else {
		records, err = db.Results(cmd.Context())
	}
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No results stored in %s\n", db.Path())
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ANALYSED\tACQUISITION\tFILES\tGHOSTING (%)\tPATH")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.3f\t%s\n",
			r.AnalysedAt.Format("2006-01-02 15:04:05"), r.Key, r.Files, r.Ghosting, r.Path)
	}
	return tw.Flush()
}
