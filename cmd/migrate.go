package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Run: func(_ *cobra.Command, _ []string) {
		ctx := context.Background()

		a, err := newApplication(ctx)
		if err != nil {
			newLogger().Fatal("initializing", zap.Error(err))
		}
		defer a.Close()

		if err := a.store.Migrate(ctx); err != nil {
			a.logger.Fatal("applying schema", zap.Error(err))
		}
		a.logger.Info("schema is up to date")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
