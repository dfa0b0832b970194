package cmd

import (
	"context"

	"github.com/locvowork/sheetmap/internal/config"
	"github.com/locvowork/sheetmap/internal/logger"
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "sheetmap",
	Short: "Export and import invoice spreadsheets",
	Long: `Map typed records to xlsx workbooks and back.

Commands:
  serve   Run the HTTP API (export, import, sample workbook).
  sample  Write the two-sheet sample workbook to a file.
  import  Parse a workbook and print the decoded invoices as JSON.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvConfig(envFile); err != nil {
			return err
		}
		return logger.InitLogging(config.DefaultEnvConfig.LOG_FILE_PATH, config.DefaultEnvConfig.LOG_LEVEL)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path of the .env file to load")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}
