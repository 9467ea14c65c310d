// Config loading for the storyflow CLI. config.yaml lives in the
// resolved config directory and is created with defaults on first run;
// a missing file is not an error.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/storyflow/internal/paths"
	"github.com/mesh-intelligence/storyflow/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend      = "backend"
	cfgKeyDataDir      = "data_dir"
	cfgKeyProject      = "project"
	cfgKeyListenAddr   = "listen_addr"
	cfgKeyGeminiAPIKey = "gemini_api_key"
	cfgKeyGeminiModel  = "gemini_model"
	cfgKeyDarkTheme    = "dark_theme"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# Storyflow configuration

# Backend selection: sqlite (live database) or snapshot (local JSON only)
backend: sqlite

# Project name; all commands operate on this project's stories
project: NEXUS-PROJECT-ALPHA

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

# HTTP listen address for serve mode
listen_addr: ":8080"

# Gemini API key for document import; also read from STORYFLOW_GEMINI_API_KEY
# gemini_api_key:
gemini_model: gemini-2.0-flash

# Dark theme epic palette
dark_theme: false
`

// loadConfig resolves the config directory, reads config.yaml with viper,
// and assembles the effective Config with flag and environment overrides
// applied.
func loadConfig() (types.Config, error) {
	configDir, err := paths.ResolveConfigDir(flagConfigDir)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve config dir: %w", err)
	}

	if err := ensureConfigDir(configDir); err != nil {
		return types.Config{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return types.Config{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyProject, types.DefaultProject)
	v.SetDefault(cfgKeyListenAddr, types.DefaultListenAddr)
	v.SetDefault(cfgKeyGeminiModel, types.DefaultGeminiModel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("STORYFLOW")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
		// Missing config.yaml falls back to defaults.
	}

	dataDir, err := paths.ResolveDataDir(flagDataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{
		Backend:      v.GetString(cfgKeyBackend),
		DataDir:      dataDir,
		Project:      v.GetString(cfgKeyProject),
		ListenAddr:   v.GetString(cfgKeyListenAddr),
		GeminiAPIKey: v.GetString(cfgKeyGeminiAPIKey),
		GeminiModel:  v.GetString(cfgKeyGeminiModel),
		DarkTheme:    v.GetBool(cfgKeyDarkTheme),
	}
	if flagProject != "" {
		cfg.Project = flagProject
	}

	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does
// not exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
