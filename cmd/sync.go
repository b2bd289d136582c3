package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobpilot/internal/headhunter"
)

var syncCmd = &cobra.Command{
	Use:   "sync-hh",
	Short: "Import vacancies from hh.ru as jobs",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		a, err := newApplication(ctx)
		if err != nil {
			newLogger().Fatal("initializing", zap.Error(err))
		}
		defer a.Close()

		syncer, err := a.newSyncer()
		if err != nil {
			a.logger.Fatal("configuring hh.ru sync", zap.Error(err))
		}
		if syncer == nil {
			a.logger.Info("exiting", zap.String("reason", "hh.ru sync is disabled"))
			return
		}

		result, err := syncer.Sync(ctx)
		if err != nil {
			a.logger.Fatal("syncing vacancies", zap.Error(err))
		}

		if report, _ := cmd.Flags().GetBool("report"); report {
			pretty, _ := json.MarshalIndent(result.Vacancies.ReportByEmployer(), "", "  ")
			a.logger.Info(string(pretty), zap.Int("vacancies count", result.Vacancies.Len()))
		}

		if appendExclude, _ := cmd.Flags().GetBool("append-exclude"); appendExclude {
			path := a.config.Headhunter.Exclude.ExcludeFile
			if err := appendToExcludeFile(path, result.Vacancies); err != nil {
				a.logger.Fatal("updating exclude file", zap.Error(err))
			}
			a.logger.Info("appended to exclude file", zap.String("filename", path), zap.Int("count", result.Vacancies.Len()))
		}
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().Bool("report", false, "print synced vacancies grouped by employer")
	syncCmd.Flags().Bool("append-exclude", false, "append synced vacancies to the exclude file so the next sync skips them")
}

func appendToExcludeFile(path string, vacancies *headhunter.Vacancies) error {
	if path == "" {
		return fmt.Errorf("headhunter.exclude.file is not set")
	}

	excluded, err := headhunter.GetExcludedVacanciesFromFile(path)
	if err != nil {
		return err
	}

	excluded.Append(vacancies.ToExcluded())

	return excluded.ToFile(path)
}
