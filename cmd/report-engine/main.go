// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the report-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/report-engine/internal/secrets"
	"github.com/pdiddy/report-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, otherwise the secret value
// for key, otherwise "".
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the report-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "report-engine",
	Short: "Turn arXiv papers into structured, illustrated PDF reports",
	Long: `report-engine fetches arXiv papers, partitions their PDFs into text and
figure crops, segments the text into sections with a generation model, and
assembles an illustrated PDF report with a structured keynote and optional
per-section notes. Reports can be produced in English or Traditional
Chinese and are recorded in a searchable local catalog.

Each stage is reachable as a subcommand: generate builds reports, fetch
downloads PDFs only, and catalog lists or searches past runs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Missing .env is fine; explicit environment still applies.
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./report-engine.yaml or ~/.config/report-engine/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "log at debug level in human-readable form")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("report-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "report-engine"))
		}
	}

	viper.SetEnvPrefix("REPORT_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger returns a zap logger: development config (human-readable,
// debug level) when verbose, production config (JSON, info level)
// otherwise.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// stringOr reads a viper key with a fallback for the empty value.
func stringOr(key, fallback string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return fallback
}

// durationOr reads a viper duration key with a fallback for the zero value.
func durationOr(key string, fallback time.Duration) time.Duration {
	if v := viper.GetDuration(key); v > 0 {
		return v
	}
	return fallback
}

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "report-engine/0.1"
)

// arxivConfig assembles the arXiv client settings from config.
func arxivConfig() types.ArxivConfig {
	return types.ArxivConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   durationOr("arxiv.timeout", defaultTimeout),
			UserAgent: stringOr("arxiv.user_agent", defaultUserAgent),
		},
		RequestInterval: viper.GetDuration("arxiv.request_interval"),
		MaxResults:      viper.GetInt("arxiv.max_results"),
		PapersDir:       stringOr("arxiv.papers_dir", "papers"),
	}
}

// aiConfig assembles generation settings from config, environment, and
// the secrets directory.
func aiConfig() (types.AIConfig, error) {
	provider := types.Provider(stringOr("ai.provider", string(types.ProviderAnthropic)))

	var keySecret string
	switch provider {
	case types.ProviderAnthropic:
		keySecret = "anthropic-api-key"
	case types.ProviderOpenAI:
		keySecret = "openai-api-key"
	case types.ProviderGemini:
		keySecret = "gemini-api-key"
	default:
		return types.AIConfig{}, fmt.Errorf("unknown AI provider %q", provider)
	}

	cfg := types.AIConfig{
		Provider:   provider,
		APIKey:     secretDefault(keySecret, viper.GetString("ai.api_key")),
		BaseURL:    secretDefault("openai-base-url", viper.GetString("ai.base_url")),
		MaxTokens:  viper.GetInt("ai.max_tokens"),
		MaxRetries: viper.GetInt("ai.max_retries"),
		Models:     resolveModels(),
	}
	if cfg.APIKey == "" {
		return types.AIConfig{}, fmt.Errorf("no API key for provider %q: set ai.api_key or .secrets/%s", provider, keySecret)
	}
	if cfg.Models.Segment == "" {
		return types.AIConfig{}, fmt.Errorf("no model configured: set ai.model or the per-call ai.models.* keys")
	}
	return cfg, nil
}

// resolveModels reads the per-call model table. ai.model is the shared
// default; ai.models.<call> keys override it per call type.
func resolveModels() types.ModelConfig {
	shared := viper.GetString("ai.model")
	pick := func(key string) string {
		return stringOr("ai.models."+key, shared)
	}
	return types.ModelConfig{
		Segment:   pick("segment"),
		Summary:   pick("summary"),
		Quotes:    pick("quotes"),
		Vision:    pick("vision"),
		Organize:  pick("organize"),
		Keynote:   pick("keynote"),
		Translate: pick("translate"),
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
