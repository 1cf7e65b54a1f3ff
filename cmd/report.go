package cmd

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var (
	reportTags []string
	reportJSON bool
)

//nolint:gochecknoglobals // Cobra commands are typically global
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print descriptive statistics for the catalog",
	Long:  `Prints the descriptive statistics for the games carrying every --tags value.`,
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringSliceVar(&reportTags, "tags", nil, "only include games with all of these tags (comma separated)")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the report as JSON")
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	dashboard, release, err := newDashboard(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	tags := make([]string, 0, len(reportTags))
	for _, t := range reportTags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	report, err := dashboard.Descriptive(ctx, tags)
	if err != nil {
		return err
	}

	if reportJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	dashboard.Insights().Print(cmd.OutOrStdout(), report)
	return nil
}
