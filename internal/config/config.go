package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config root configuration
type Config struct {
	Discord  DiscordConfig  `mapstructure:"discord"`
	Transfer TransferConfig `mapstructure:"transfer"`
	Registry RegistryConfig `mapstructure:"registry"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Log      LogConfig      `mapstructure:"log"`
}

// DiscordConfig bot session settings
type DiscordConfig struct {
	Token   string `mapstructure:"token"`
	GuildID string `mapstructure:"guild_id"`
}

// TransferConfig transfer approval workflow settings
type TransferConfig struct {
	ConfirmChannelID      string   `mapstructure:"confirm_channel_id"`
	ApprovalChannelID     string   `mapstructure:"approval_channel_id"`
	TransferLogChannelID  string   `mapstructure:"transfer_log_channel_id"`
	FreeAgentRoleID       string   `mapstructure:"free_agent_role_id"`
	AllowedTeamRoleIDs    []string `mapstructure:"allowed_team_role_ids"`
	DecisionWindowSeconds int      `mapstructure:"decision_window_seconds"`
}

// RegistryConfig player/team data file settings
type RegistryConfig struct {
	PlayersFile string `mapstructure:"players_file"`
	TeamsFile   string `mapstructure:"teams_file"`
}

// GatewayConfig export server settings
type GatewayConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LogConfig application logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// DefaultConfig returns config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Discord: DiscordConfig{},
		Transfer: TransferConfig{
			AllowedTeamRoleIDs:    []string{},
			DecisionWindowSeconds: 60,
		},
		Registry: RegistryConfig{
			PlayersFile: filepath.Join(DataDir(), "players.json"),
			TeamsFile:   filepath.Join(DataDir(), "teams.json"),
		},
		Gateway: GatewayConfig{
			Host: "0.0.0.0",
			Port: 3001,
		},
		Log: LogConfig{
			Level: "info",
			File:  "",
		},
	}
}

// ConfigDir returns the rosterbot config directory
func ConfigDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".rosterbot")
}

// ConfigPath returns the config file path
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// DataDir returns the directory holding registry data and runtime state
func DataDir() string {
	return filepath.Join(ConfigDir(), "data")
}

// Load loads config from file or returns defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := ConfigPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(cfg); err != nil {
			return cfg, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	v.SetEnvPrefix("ROSTERBOT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return cfg, err
	}

	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.MatchName = func(mapKey, fieldName string) bool {
			return normalizeKey(mapKey) == normalizeKey(fieldName)
		}
	}); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func normalizeKey(input string) string {
	input = strings.ReplaceAll(input, "_", "")
	input = strings.ReplaceAll(input, "-", "")
	return strings.ToLower(input)
}

// Save saves config to file
func Save(cfg *Config) error {
	configPath := ConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

// Validate checks that the configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	t := &c.Transfer

	if t.DecisionWindowSeconds < 0 {
		return fmt.Errorf("transfer.decision_window_seconds must not be negative, got %d", t.DecisionWindowSeconds)
	}
	if t.DecisionWindowSeconds == 0 {
		t.DecisionWindowSeconds = 60
	}

	if t.AllowedTeamRoleIDs == nil {
		t.AllowedTeamRoleIDs = []string{}
	}
	for i, id := range t.AllowedTeamRoleIDs {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			return fmt.Errorf("transfer.allowed_team_role_ids[%d] must not be blank", i)
		}
		t.AllowedTeamRoleIDs[i] = trimmed
	}

	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("gateway.port must be between 1 and 65535, got %d", c.Gateway.Port)
	}

	if strings.TrimSpace(c.Registry.PlayersFile) == "" {
		c.Registry.PlayersFile = filepath.Join(DataDir(), "players.json")
	}
	if strings.TrimSpace(c.Registry.TeamsFile) == "" {
		c.Registry.TeamsFile = filepath.Join(DataDir(), "teams.json")
	}

	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	if level == "" {
		c.Log.Level = "info"
	} else {
		validLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if !validLevels[level] {
			return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
		}
		c.Log.Level = level
	}

	return nil
}
