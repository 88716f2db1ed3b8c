package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"eduparser/internal/education"
	"eduparser/internal/logger"
)

var standardizeCmd = &cobra.Command{
	Use:   "standardize [workbook]",
	Short: "Standardize institution names in a workbook against a reference list",
	Long: `Rewrite one column of a workbook so every institution name matches its
canonical spelling from a reference list.

Names are compared after lowercasing, punctuation removal and expansion of
common abbreviations (FBISE, AIOU, PBTE, ...), with a conservative fuzzy
fallback for spelling variants. Names with no close reference entry are
left title-cased and counted in the summary, so the reference list can be
grown over time.

The reference file holds one canonical name per line.`,
	Example: `  # Standardize the School column in place
  eduparser standardize education_data.xlsx --reference boards.txt

  # Standardize a differently named column into a new file
  eduparser standardize data.xlsx --reference boards.txt --column Institute -o out.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runStandardize,
}

func init() {
	rootCmd.AddCommand(standardizeCmd)

	standardizeCmd.Flags().String("reference", "", "Reference file with one canonical name per line (required)")
	standardizeCmd.Flags().String("column", "School", "Header of the column to standardize")
	standardizeCmd.Flags().StringP("output", "o", "", "Output workbook path (default: overwrite input)")

	_ = standardizeCmd.MarkFlagRequired("reference")
}

func runStandardize(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("standardize")

	referencePath, _ := cmd.Flags().GetString("reference")
	columnName, _ := cmd.Flags().GetString("column")
	outputPath, _ := cmd.Flags().GetString("output")
	workbookPath := args[0]
	if outputPath == "" {
		outputPath = workbookPath
	}

	reference, err := readReferenceList(referencePath)
	if err != nil {
		return err
	}
	standardizer := education.NewSchoolStandardizer(reference)

	log.Info().
		Str("workbook", workbookPath).
		Str("column", columnName).
		Int("reference_names", len(reference)).
		Msg("Starting name standardization")

	f, err := excelize.OpenFile(workbookPath)
	if err != nil {
		return fmt.Errorf("failed to open workbook %s: %w", workbookPath, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close workbook")
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return fmt.Errorf("workbook %s has no sheets", workbookPath)
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read workbook rows: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("workbook %s is empty", workbookPath)
	}

	columnIdx := -1
	for i, header := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(header), columnName) {
			columnIdx = i
			break
		}
	}
	if columnIdx < 0 {
		return fmt.Errorf("column %q not found in %s (headers: %s)",
			columnName, workbookPath, strings.Join(rows[0], ", "))
	}

	standardized, unmatched := 0, 0
	for rowIdx, row := range rows[1:] {
		if columnIdx >= len(row) || strings.TrimSpace(row[columnIdx]) == "" {
			continue
		}
		canonical, matched := standardizer.Standardize(row[columnIdx])
		if matched {
			standardized++
		} else {
			unmatched++
			log.Debug().
				Str("name", row[columnIdx]).
				Msg("No reference entry for institution name")
		}
		cell, _ := excelize.CoordinatesToCellName(columnIdx+1, rowIdx+2)
		if err := f.SetCellValue(sheet, cell, canonical); err != nil {
			return fmt.Errorf("failed to update cell %s: %w", cell, err)
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to write workbook %s: %w", outputPath, err)
	}

	log.Info().
		Int("standardized", standardized).
		Int("unmatched", unmatched).
		Str("output", outputPath).
		Msg("Name standardization completed successfully")

	fmt.Printf("Standardized %d names (%d without a reference match), wrote %s\n",
		standardized, unmatched, outputPath)
	return nil
}

// readReferenceList loads canonical names, one per line. Blank lines and
// lines starting with # are skipped.
func readReferenceList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("reference file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read reference file: %w", err)
	}

	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("reference file %s contains no names", path)
	}
	return names, nil
}
