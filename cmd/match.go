package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"eduparser/internal/export"
	"eduparser/internal/logger"
	"eduparser/internal/pipeline"
	"eduparser/pkg/models"
)

var matchCmd = &cobra.Command{
	Use:   "match [education-workbook]",
	Short: "Match an existing education workbook against an employee roster",
	Long: `Re-join a workbook previously produced by the process command against an
employee roster, without re-running extraction.

Every Name in the workbook is compared against the roster's FULL_NAME
column using exact matching after whitespace and case normalization. The
output workbook gains CNIC, Employee Number and match columns; rows whose
name matches several roster employees keep the first match and are flagged
in the Notes column for review.`,
	Example: `  # Add roster columns to an existing workbook
  eduparser match education_data.xlsx --roster employees.xlsx -o matched.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("roster", "r", "", "Employee roster file (xlsx or csv) (required)")
	matchCmd.Flags().StringP("output", "o", "education_data_matched.xlsx", "Output workbook path")

	_ = matchCmd.MarkFlagRequired("roster")
}

func runMatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("match")

	rosterPath, _ := cmd.Flags().GetString("roster")
	outputPath, _ := cmd.Flags().GetString("output")
	workbookPath := args[0]

	log.Info().
		Str("workbook", workbookPath).
		Str("roster", rosterPath).
		Msg("Starting roster matching")

	rows, err := export.ReadRows(workbookPath)
	if err != nil {
		return fmt.Errorf("failed to read education workbook %s: %w", workbookPath, err)
	}

	matcher, err := loadRosterMatcher(rosterPath, log)
	if err != nil {
		return err
	}

	matched, ambiguous := 0, 0
	for i := range rows {
		result := matcher.Match(rows[i].Record.Name)
		rows[i].Match = &result
		if result.Confidence == models.MatchExact {
			matched++
		}
		if result.Ambiguous {
			ambiguous++
			rows[i].Notes = append(rows[i].Notes, "multiple roster employees share this name")
		}
	}

	report := &pipeline.Report{Rows: rows}
	if err := export.NewService().Write(report, outputPath, true); err != nil {
		return fmt.Errorf("failed to write output workbook: %w", err)
	}

	log.Info().
		Int("rows", len(rows)).
		Int("matched", matched).
		Int("ambiguous", ambiguous).
		Str("output", outputPath).
		Msg("Roster matching completed successfully")

	fmt.Printf("Matched %d of %d rows, wrote %s\n", matched, len(rows), outputPath)
	return nil
}
