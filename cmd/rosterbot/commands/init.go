package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ebitsfc/rosterbot/internal/config"
	"github.com/spf13/cobra"
)

func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize rosterbot configuration",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := config.ConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config already exists: %s\n", configPath)
		return nil
	}

	cfg := config.DefaultConfig()

	dirs := []string{
		config.ConfigDir(),
		config.DataDir(),
		filepath.Join(config.DataDir(), "state"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Rosterbot initialized!\n")
	fmt.Printf("Config: %s\n", configPath)
	fmt.Printf("Data: %s\n", config.DataDir())
	fmt.Printf("\nNext steps:\n")
	fmt.Printf("1. Edit %s to add the bot token, guild id, and channel/role ids\n", configPath)
	fmt.Printf("2. Run 'rosterbot run' to start the bot\n")

	return nil
}
