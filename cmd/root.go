package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/duelword/internal/config"
	"github.com/fakeyudi/duelword/internal/logging"
	"github.com/fakeyudi/duelword/internal/profile"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// activeProfile holds the loaded user profile.
var activeProfile *profile.Profile

var rootCmd = &cobra.Command{
	Use:          "duelword",
	Short:        "Play head-to-head or solo word-guessing games in the terminal",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// First-run: profile missing → run setup wizard automatically.
		// Only do this when stdin is an interactive terminal.
		if !profile.Exists() && term.IsTerminal(os.Stdin.Fd()) {
			fmt.Println()
			fmt.Println("  Welcome to duelword! Looks like this is your first time.")
			if err := runSetup(cmd, true); err != nil {
				return err
			}
		}

		// Load profile (optional, may not exist in non-interactive environments).
		activeProfile = nil
		if profile.Exists() {
			p, err := profile.Load()
			if err != nil {
				return fmt.Errorf("loading profile: %w", err)
			}
			activeProfile = p
		}

		loaded, err := config.Load(profileLayer(activeProfile))
		if err != nil {
			return err
		}
		cfg = loaded

		if _, err := logging.Setup(cfg.LogLevel, logging.Console()); err != nil {
			return err
		}
		return nil
	},
}

// profileLayer turns the profile's preferences into a config layer that
// project files and the environment can still override.
func profileLayer(p *profile.Profile) *config.Config {
	if p == nil {
		return nil
	}
	return &config.Config{
		Language:      p.Language,
		DefaultFormat: p.DefaultFormat,
		OutputDir:     p.OutputDir,
	}
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// GetProfile returns the active user profile.
func GetProfile() *profile.Profile {
	return activeProfile
}
