package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/locvowork/sheetmap/internal/bootstrap"
	"github.com/locvowork/sheetmap/internal/database"
	"github.com/locvowork/sheetmap/internal/domain"
	"github.com/locvowork/sheetmap/internal/repository"
	"github.com/locvowork/sheetmap/internal/service"
	"github.com/spf13/cobra"
)

var (
	importWorksheet  int
	importSkipHeader bool
	importSkipRows   int
	importStore      bool
)

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Parse invoices from a workbook",
	Long: `Parse invoices from a workbook and print them as JSON. With --store the
invoices are also written to the database.

Examples:
  sheetmap import invoices.xlsx --skip-header
  sheetmap import report.xlsx --skip-rows 2 --store`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		var repo domain.InvoiceRepository
		if importStore {
			db, err := database.NewPostgresDB(ctx, bootstrap.DatabaseConfig())
			if err != nil {
				return err
			}
			defer db.Close()
			repo = repository.NewInvoiceRepository(db)
		}
		svc, err := bootstrap.NewSpreadsheetService(ctx, repo)
		if err != nil {
			return err
		}

		result, err := svc.ImportInvoices(ctx, f, service.ImportRequest{
			Worksheet:     importWorksheet,
			SkipHeaderRow: importSkipHeader,
			SkipRows:      importSkipRows,
			DryRun:        !importStore,
		})
		if err != nil {
			return fmt.Errorf("import %s: %w", args[0], err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	importCmd.Flags().IntVar(&importWorksheet, "worksheet", 1, "1-based worksheet to read")
	importCmd.Flags().BoolVar(&importSkipHeader, "skip-header", false, "Skip the first row")
	importCmd.Flags().IntVar(&importSkipRows, "skip-rows", 0, "Skip this many leading rows (overrides --skip-header)")
	importCmd.Flags().BoolVar(&importStore, "store", false, "Insert the parsed invoices into the database")
	rootCmd.AddCommand(importCmd)
}
