// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the citation-tracker CLI.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/citation-tracker/internal/archive"
	"github.com/pdiddy/citation-tracker/internal/manager"
	"github.com/pdiddy/citation-tracker/internal/secrets"
	"github.com/pdiddy/citation-tracker/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the citation-tracker CLI.
var rootCmd = &cobra.Command{
	Use:   "citation-tracker",
	Short: "Citation tracking and deduplication for research jobs",
	Long: `citation-tracker maintains a per-job citation database. Citations added
by DOI or PMID are validated against Crossref and PubMed and their metadata
extracted into CSL-JSON records; duplicates are detected across identifier
and fuzzy-match strategies and merged. Each citation receives a stable
number usable for in-text references and numbered bibliographies.

Each operation is a subcommand: add, get, list, validate, format, and
export. The serve subcommand exposes the same operations as MCP tools
for research agents.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./citation-tracker.yaml or ~/.config/citation-tracker/config.yaml)")
	rootCmd.PersistentFlags().String("job", "default", "research job the citation database belongs to")
	rootCmd.PersistentFlags().String("style", "apa", "citation style for formatted output")
	rootCmd.PersistentFlags().String("archive-dir", "", "directory for the citation archive database (default: ./archive)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("citation-tracker")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "citation-tracker"))
		}
	}

	viper.SetEnvPrefix("CITATION_TRACKER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// trackerConfig assembles the runtime configuration from viper and secrets.
func trackerConfig() types.TrackerConfig {
	cfg := types.TrackerConfig{
		Validator: types.ValidatorConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("http.timeout"),
				UserAgent: viper.GetString("http.user_agent"),
			},
			Email:        secretDefault("crossref-email", viper.GetString("validator.email")),
			PubMedAPIKey: secretDefault("pubmed-api-key", viper.GetString("validator.pubmed_api_key")),
			CacheTTL:     viper.GetDuration("validator.cache_ttl"),
			CacheSize:    viper.GetInt("validator.cache_size"),
		},
		Detector: types.DetectorConfig{
			TitleThreshold:  viper.GetFloat64("detector.title_threshold"),
			AuthorThreshold: viper.GetFloat64("detector.author_threshold"),
		},
	}

	archiveDir, _ := rootCmd.PersistentFlags().GetString("archive-dir")
	if archiveDir == "" {
		archiveDir = viper.GetString("archive.dir")
	}
	cfg.Archive = types.ArchiveConfig{Dir: archiveDir}
	return cfg
}

// openJob opens the archive and builds a manager for the --job flag,
// restoring any previously archived citations.
func openJob(cmd *cobra.Command) (*manager.Manager, *archive.Store, error) {
	jobID, _ := cmd.Flags().GetString("job")
	style, _ := cmd.Flags().GetString("style")
	cfg := trackerConfig()

	arc, err := archive.NewStore(cfg.Archive)
	if err != nil {
		return nil, nil, err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	if cfg.Validator.Timeout > 0 {
		client.Timeout = cfg.Validator.Timeout
	}

	mgr := manager.New(jobID, style, client, cfg, os.Stderr)

	store, err := arc.LoadJob(cmd.Context(), jobID)
	if err != nil {
		arc.Close()
		return nil, nil, err
	}
	if store != nil {
		mgr.Store = store
	}
	return mgr, arc, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
