package cmd

import (
	"fmt"
	"os"

	"github.com/locvowork/sheetmap/internal/bootstrap"
	"github.com/locvowork/sheetmap/internal/logger"
	"github.com/locvowork/sheetmap/internal/service"
	"github.com/spf13/cobra"
)

var (
	sampleRows   int
	sampleOutput string
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write the sample workbook",
	Long: `Write a workbook with a titled "Sample" sheet and an "Additional" sheet.

Examples:
  sheetmap sample -o sample.xlsx
  sheetmap sample --rows 500 -o big.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := bootstrap.NewSpreadsheetService(ctx, nil)
		if err != nil {
			return err
		}
		data, err := svc.SampleWorkbook(ctx, sampleRows)
		if err != nil {
			return err
		}
		if err := os.WriteFile(sampleOutput, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", sampleOutput, err)
		}
		logger.InfoLog(ctx, "Wrote %s (%d bytes)", sampleOutput, len(data))
		return nil
	},
}

func init() {
	sampleCmd.Flags().IntVar(&sampleRows, "rows", service.DefaultSampleRows, "Records on the Sample sheet")
	sampleCmd.Flags().StringVarP(&sampleOutput, "output", "o", "sample.xlsx", "Output file")
	rootCmd.AddCommand(sampleCmd)
}
