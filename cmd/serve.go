package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobpilot/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("migrate", false, "apply the database schema before serving")
}

func serve(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApplication(ctx)
	if err != nil {
		newLogger().Fatal("initializing", zap.Error(err))
	}
	defer a.Close()

	if err := a.store.Ping(ctx); err != nil {
		a.logger.Fatal("connecting to database", zap.Error(err))
	}

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := a.store.Migrate(ctx); err != nil {
			a.logger.Fatal("applying schema", zap.Error(err))
		}
	}

	syncer, err := a.newSyncer()
	if err != nil {
		a.logger.Fatal("configuring hh.ru sync", zap.Error(err))
	}

	server := api.NewServer(a.logger.Named("api"))
	// Keep a nil *ingest.Syncer from becoming a non-nil interface.
	if syncer != nil {
		api.Register(server, a.store, a.service, syncer)
	} else {
		api.Register(server, a.store, a.service, nil)
	}

	if err := server.Run(ctx, a.config.Listen); err != nil {
		a.logger.Fatal("http server", zap.Error(err))
	}
	a.logger.Info("stopped")
}
