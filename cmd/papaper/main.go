// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the papaper CLI: search and download
// publications for a keyword, build a semantic vector index over their
// text, and retrieve relevant context for a query.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papaper/papaper/internal/secrets"
	"github.com/papaper/papaper/pkg/types"
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

// rootCmd is the base command for the papaper CLI.
var rootCmd = &cobra.Command{
	Use:   "papaper",
	Short: "Collect publications and retrieve relevant context from them",
	Long: `papaper collects publications matching a keyword, extracts and chunks
their text, builds a semantic vector index over the chunks, and retrieves the
most relevant chunks for a query as a token-bounded context block.

Each pipeline stage is a subcommand: acquire downloads papers and tracks
progress so interrupted runs resume, index builds or inspects the vector
index, and search queries it.`,
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./papaper.yaml or ~/.config/papaper/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("papaper")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "papaper"))
		}
	}

	viper.SetEnvPrefix("PAPAPER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig returns the settings from the config file, zero-valued
// where the file does not set them. Flags take precedence over the file.
func pipelineConfig() types.PipelineConfig {
	var cfg types.PipelineConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: invalid config: %v\n", err)
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
