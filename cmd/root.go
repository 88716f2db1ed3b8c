package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"eduparser/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "eduparser",
	Short: "Eduparser CLI - extract education data from scanned certificates",
	Long: `Eduparser CLI reads scanned educational certificates (images and PDFs),
extracts the relevant fields with a vision language model, standardizes
levels, boards and grades, derives degree dates, and writes an xlsx
workbook ready for HR bulk import.

Merged scans containing several certificates are detected and split into
one output row per document. An optional employee roster adds CNIC and
employee number columns via exact name matching.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Eduparser CLI executed")

		fmt.Println("Welcome to Eduparser CLI!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
