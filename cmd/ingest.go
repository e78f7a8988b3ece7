package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/montfort-alumni/slambook-cli/internal/slambook"
)

var ingestFilePath string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a slambook CSV or XLSX file",
	Long:  "Parses the file, matches rows against existing profiles, upserts profiles, and replaces their answers. Prints the run report as JSON.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		tokens, parseWarnings, err := readSheet(ingestFilePath)
		if err != nil {
			return err
		}

		report, err := newIngestor(st).RunRows(ctx, filepath.Base(ingestFilePath), tokens, parseWarnings)
		if err != nil {
			return eris.Wrap(err, "ingest")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFilePath, "file", "", "path to slambook .csv or .xlsx file (required)")
	_ = ingestCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(ingestCmd)
}

// readSheet loads a slambook file into the tokenized cell grid, routing on
// extension. XLSX sheets produce no parse warnings; the workbook reader
// either succeeds or fails outright.
func readSheet(path string) ([][]string, []slambook.ParseWarning, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "read %s", path)
		}
		tokens, warnings := slambook.TokenizeCSV(string(data))
		return tokens, warnings, nil
	case ".xlsx":
		tokens, err := slambook.ReadWorkbook(path)
		if err != nil {
			return nil, nil, err
		}
		return tokens, nil, nil
	default:
		return nil, nil, eris.Errorf("unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}
