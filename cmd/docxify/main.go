// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the docxify CLI: the web service
// plus batch conversion and journal inspection.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docxify/internal/logging"
	"github.com/pdiddy/docxify/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg and logger are built once in PersistentPreRunE and used by every
// subcommand.
var (
	cfg    types.Config
	logger *log.Logger
)

// rootCmd is the base command for the docxify CLI.
var rootCmd = &cobra.Command{
	Use:   "docxify",
	Short: "Convert Markdown, LaTeX, HTML and text to Word documents with pandoc",
	Long: `docxify converts pasted text or uploaded documents into .docx files by
running pandoc. "docxify serve" starts the web form; "docxify convert" runs
the same pipeline over local files.

Zipped LaTeX projects are supported when main.tex sits at the archive root.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = c
		logger = logging.New(logging.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", "path", used)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./docxify.yaml or ~/.config/docxify/docxify.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("journal", "", "journal database path (empty string in config disables it)")
	bindFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	bindFlag("journal.path", rootCmd.PersistentFlags().Lookup("journal"))
}

func initConfig() {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docxify")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "docxify"))
		}
	}

	viper.SetEnvPrefix("DOCXIFY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintln(os.Stderr, "warning: reading config:", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
