package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/montfort-alumni/slambook-cli/internal/slambook"
)

var exportOutPath string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all profiles and answers as a slambook CSV",
	Long:  "Writes every stored profile and its answers in the slambook column layout. The output re-ingests losslessly.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		profiles, err := st.ListFullProfiles(ctx)
		if err != nil {
			return eris.Wrap(err, "export")
		}
		answers, err := st.ListAllAnswers(ctx)
		if err != nil {
			return eris.Wrap(err, "export")
		}

		csv := slambook.WriteCSV(exportRows(profiles, answers))

		if exportOutPath == "" || exportOutPath == "-" {
			fmt.Print(csv)
			return nil
		}
		if err := os.WriteFile(exportOutPath, []byte(csv), 0o644); err != nil {
			return eris.Wrapf(err, "write %s", exportOutPath)
		}
		zap.L().Info("export complete",
			zap.Int("profiles", len(profiles)),
			zap.Int("answers", len(answers)),
			zap.String("path", exportOutPath),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOutPath, "out", "-", "output path, or - for stdout")
	rootCmd.AddCommand(exportCmd)
}

// exportRows assembles the cell grid in the slambook column layout: header,
// then one row per profile with its answers in question order.
func exportRows(profiles []slambook.UpsertRecord, answers []slambook.AnswerRecord) [][]string {
	byProfile := make(map[int64][slambook.NumQuestions]string)
	for _, a := range answers {
		if a.QuestionID < 1 || a.QuestionID > slambook.NumQuestions {
			continue
		}
		set := byProfile[a.ProfileID]
		set[a.QuestionID-1] = a.Answer
		byProfile[a.ProfileID] = set
	}

	header := []string{"S.No", "Name", "Nickname", "Location", "Current Job", "Tenure", "Designation & Organisation"}
	for q := 1; q <= slambook.NumQuestions; q++ {
		header = append(header, fmt.Sprintf("Q%d", q))
	}

	rows := [][]string{header}
	for i, p := range profiles {
		row := []string{
			strconv.Itoa(i + 1),
			p.Name, p.Nicknames, p.Location, p.CurrentJob,
			p.YearGraduated, p.DesignationOrganisation,
		}
		set := byProfile[p.ID]
		row = append(row, set[:]...)
		rows = append(rows, row)
	}
	return rows
}
