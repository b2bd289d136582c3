package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobpilot/internal/ai"
	"github.com/spigell/jobpilot/internal/ai/gemini"
	"github.com/spigell/jobpilot/internal/extract"
	"github.com/spigell/jobpilot/internal/filtering"
	"github.com/spigell/jobpilot/internal/headhunter"
	"github.com/spigell/jobpilot/internal/ingest"
	"github.com/spigell/jobpilot/internal/logger"
	"github.com/spigell/jobpilot/internal/matching"
	"github.com/spigell/jobpilot/internal/secrets"
	"github.com/spigell/jobpilot/internal/storage"
	"github.com/spigell/jobpilot/internal/store"
)

// application holds the components shared by the commands.
type application struct {
	config  *Config
	logger  *zap.Logger
	store   *store.Store
	files   *storage.Local
	service *matching.Service
}

// newLogger builds the logger from the persistent flags.
func newLogger() *zap.Logger {
	l, err := logger.New(logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
		Level: viper.GetString("log-level"),
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

func newApplication(ctx context.Context) (*application, error) {
	l := newLogger()

	config, err := getConfig()
	if err != nil {
		return nil, fmt.Errorf("getting a config: %w", err)
	}
	if config == nil {
		return nil, errors.New("config is required")
	}

	l.Info("starting the jobpilot", zap.String("version", version))

	db, err := store.Open(config.Database)
	if err != nil {
		return nil, err
	}

	files, err := storage.NewLocal(config.Storage.Dir)
	if err != nil {
		db.Close()
		return nil, err
	}

	analyzer := newAnalyzer(ctx, config.AI, l)

	return &application{
		config:  config,
		logger:  l,
		store:   db,
		files:   files,
		service: matching.NewService(db, files, extract.New(l.Named("extract")), analyzer, l.Named("matching")),
	}, nil
}

func (a *application) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing database", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// newAnalyzer builds the Gemini analyzer. Without an API key every analysis
// call fails and the pipeline stores its defaults.
func newAnalyzer(ctx context.Context, cfg *AIConfig, l *zap.Logger) ai.Analyzer {
	if cfg == nil || cfg.Gemini == nil {
		l.Warn("language model is not configured, analysis results will be empty")
		return ai.Disabled(errors.New("language model is not configured"))
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		l.Warn("language model is not configured, analysis results will be empty",
			zap.Error(err),
			zap.String("hint", "set ai.gemini.api-key-file or GEMINI_API_KEY"),
		)
		return ai.Disabled(err)
	}

	aiLogger := logger.WithAIFields(l, ai.ProviderGemini, cfg.Gemini.Model)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Timeout, aiLogger)
	if err != nil {
		l.Error("creating gemini client", zap.Error(err))
		return ai.Disabled(err)
	}

	return gemini.NewAnalyzer(generator, aiLogger, cfg.MaxLogLength)
}

// newSyncer returns nil when hh.ru ingestion is disabled.
func (a *application) newSyncer() (*ingest.Syncer, error) {
	cfg := a.config.Headhunter
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	token, err := secrets.Load(secrets.Source{
		Name:     "headhunter token",
		Value:    cfg.Token,
		File:     cfg.TokenFile,
		Optional: true,
	})
	if err != nil {
		return nil, fmt.Errorf("loading headhunter token: %w", err)
	}

	hhLogger := a.logger.Named("headhunter")
	hh := headhunter.New(hhLogger, token, headhunter.WithUserAgent(cfg.UserAgent))

	return ingest.NewSyncer(hh, a.store, filtering.Default(), cfg.Config, hhLogger), nil
}
