package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/montfort-alumni/slambook-cli/internal/slambook"
)

var (
	diagnoseFilePath string
	diagnoseFormat   string
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Dry-run matching for a slambook file without writing anything",
	Long:  "Tokenizes and matches the file against existing profiles, then prints the would-be merge plan. No profiles or answers are written.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		tokens, parseWarnings, err := readSheet(diagnoseFilePath)
		if err != nil {
			return err
		}

		plan, warnings, err := newIngestor(st).DiagnoseRows(ctx, tokens, parseWarnings)
		if err != nil {
			return eris.Wrap(err, "diagnose")
		}

		switch diagnoseFormat {
		case "table":
			formatPlanTable(os.Stdout, plan, warnings)
			return nil
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(diagnoseOutput{Plan: planOutput(plan), Warnings: warnings})
		case "yaml":
			enc := yaml.NewEncoder(os.Stdout)
			defer enc.Close() //nolint:errcheck
			return enc.Encode(diagnoseOutput{Plan: planOutput(plan), Warnings: warnings})
		default:
			return eris.Errorf("unknown format %q (want table, json, or yaml)", diagnoseFormat)
		}
	},
}

func init() {
	diagnoseCmd.Flags().StringVar(&diagnoseFilePath, "file", "", "path to slambook .csv or .xlsx file (required)")
	diagnoseCmd.Flags().StringVar(&diagnoseFormat, "format", "table", "output format: table, json, or yaml")
	_ = diagnoseCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(diagnoseCmd)
}

// diagnoseOutput is the serialized shape for json and yaml output.
type diagnoseOutput struct {
	Plan     planSummary             `json:"plan" yaml:"plan"`
	Warnings []slambook.ParseWarning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

type planSummary struct {
	Total    int                    `json:"total" yaml:"total"`
	Exact    int                    `json:"exact" yaml:"exact"`
	NameOnly int                    `json:"nameOnly" yaml:"nameOnly"`
	Partial  int                    `json:"partial" yaml:"partial"`
	New      int                    `json:"new" yaml:"new"`
	Rows     []slambook.MatchDetail `json:"rows" yaml:"rows"`
}

func planOutput(plan *slambook.Plan) planSummary {
	return planSummary{
		Total:    plan.Counts.Total(),
		Exact:    plan.Counts.Exact,
		NameOnly: plan.Counts.NameOnly,
		Partial:  plan.Counts.Partial,
		New:      plan.Counts.None,
		Rows:     plan.Details,
	}
}

// formatPlanTable writes a per-row matching table followed by tier totals.
func formatPlanTable(out io.Writer, plan *slambook.Plan, warnings []slambook.ParseWarning) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tYEAR\tMATCH\tPROFILE\tCONF\tREASON")
	_, _ = fmt.Fprintln(w, "----\t----\t-----\t-------\t----\t------")
	for _, d := range plan.Details {
		name := d.CSVName
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		reason := d.Reason
		if len(reason) > 60 {
			reason = reason[:57] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			name, d.CSVYear, d.MatchType, d.ProfileID, d.Confidence, reason)
	}
	_ = w.Flush()

	fmt.Fprintf(out, "\n%d rows: %d exact, %d name-only, %d partial, %d new\n",
		plan.Counts.Total(), plan.Counts.Exact, plan.Counts.NameOnly, plan.Counts.Partial, plan.Counts.None)

	for _, warn := range warnings {
		fmt.Fprintf(out, "warning: row %d: %s\n", warn.Row, warn.Message)
	}
}
