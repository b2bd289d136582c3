package cmd

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/jobpilot/internal/ingest"
	"github.com/spigell/jobpilot/internal/store"
)

const (
	app       = "jobpilot"
	envPrefix = "JOBPILOT"
)

type Config struct {
	Listen     string            `mapstructure:"listen"`
	Database   store.Config      `mapstructure:"database"`
	Storage    StorageConfig     `mapstructure:"storage"`
	AI         *AIConfig         `mapstructure:"ai"`
	Headhunter *HeadhunterConfig `mapstructure:"headhunter"`
}

type StorageConfig struct {
	Dir string `mapstructure:"dir"`
}

type AIConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type HeadhunterConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	UserAgent     string `mapstructure:"user-agent"`
	Token         string `mapstructure:"token"`
	TokenFile     string `mapstructure:"token-file"`
	ingest.Config `mapstructure:",squash"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobpilot tracks job applications and matches resumes against jobs with a language model",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("headhunter.token-file", "HH_TOKEN_FILE"); err != nil {
		log.Fatalf("binding HH_TOKEN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key", "GEMINI_API_KEY"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY environment variable: %v", err)
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobpilot.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// setDefaults registers every key so environment overrides work without a config file.
func setDefaults() {
	viper.SetDefault("listen", ":8080")
	viper.SetDefault("log-level", "")
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.password-file", "")
	viper.SetDefault("database.max-connections", 10)
	viper.SetDefault("database.max-idle", 5)
	viper.SetDefault("storage.dir", "./media/resumes")
	viper.SetDefault("ai.timeout", "60s")
	viper.SetDefault("ai.max-log-length", 200)
	viper.SetDefault("ai.gemini.api-key-file", "")
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("headhunter.enabled", true)
	viper.SetDefault("headhunter.user-agent", "")
	viper.SetDefault("headhunter.token", "")
	viper.SetDefault("headhunter.delay", "0s")
	viper.SetDefault("headhunter.search.text", "")
	viper.SetDefault("headhunter.search.per_page", "")
	viper.SetDefault("headhunter.exclude.employers", []string{})
	viper.SetDefault("headhunter.exclude.file", "")
}

func initConfig() {
	loadEnvFile()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// The default config file is optional, an explicit one is not.
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

// loadEnvFile loads .env from the working directory when present.
func loadEnvFile() {
	path := os.Getenv(envPrefix + "_ENV_FILE")
	if path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Printf("loading %s: %v", path, err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
