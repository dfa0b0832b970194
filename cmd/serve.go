package cmd

import (
	"github.com/locvowork/sheetmap/internal/bootstrap"
	"github.com/locvowork/sheetmap/internal/logger"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app := bootstrap.NewApp()
		if err := app.Initialize(ctx); err != nil {
			logger.ErrorLog(ctx, "Failed to initialize application: %v", err)
			return err
		}
		if err := app.Run(); err != nil {
			logger.ErrorLog(ctx, "Application failed: %v", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
