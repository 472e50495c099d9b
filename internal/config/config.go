// Package config provides YAML-based configuration for the keyforge CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/keyforge/backend/internal/build"
	"gopkg.in/yaml.v3"
)

// AppConfig represents the root configuration document
type AppConfig struct {
	// Toolchain configuration
	Toolchain ToolchainConfig `yaml:"toolchain"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage"`

	// Generation configuration
	Generation GenerationConfig `yaml:"generation"`

	// History configuration
	History HistoryConfig `yaml:"history"`
}

// ToolchainConfig describes the external firmware compiler
type ToolchainConfig struct {
	QMKDirectory     string   `yaml:"qmk_directory"`
	Command          []string `yaml:"command"`
	ArtifactDir      string   `yaml:"artifact_directory"`
	ArtifactPatterns []string `yaml:"artifact_patterns"`
	KillGraceSeconds int      `yaml:"kill_grace_seconds"`
}

// StorageConfig contains file storage settings. Generated sources go to
// KeymapPath below OutputDirectory, which defaults to the QMK directory so the
// compiler finds them at keyboards/<keyboard>/keymaps/<keymap>.
type StorageConfig struct {
	OutputDirectory string `yaml:"output_directory"`
	KeymapPath      string `yaml:"keymap_path"`
	DataDirectory   string `yaml:"data_directory"`
}

// GenerationConfig controls generated source text
type GenerationConfig struct {
	Deterministic bool `yaml:"deterministic"`
}

// HistoryConfig controls the build history database
type HistoryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Database      string `yaml:"database"`
	RetentionDays int    `yaml:"retention_days"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Toolchain: ToolchainConfig{
			QMKDirectory:     "./qmk_firmware",
			Command:          []string{"qmk", "compile", "-kb", "{keyboard}", "-km", "{keymap}"},
			ArtifactPatterns: append([]string(nil), build.DefaultArtifactPatterns...),
			KillGraceSeconds: int(build.DefaultKillGrace / time.Second),
		},
		Storage: StorageConfig{
			OutputDirectory: "",
			KeymapPath:      "keyboards/{keyboard}/keymaps/{keymap}",
			DataDirectory:   "./data",
		},
		Generation: GenerationConfig{
			Deterministic: false,
		},
		History: HistoryConfig{
			Enabled:       true,
			Database:      "history.duckdb",
			RetentionDays: 90,
		},
	}
}

// LoadConfig loads configuration from a YAML file. A .env file next to it is
// loaded first; variables already set in the environment win.
func LoadConfig(configPath string) (*AppConfig, error) {
	configDir := filepath.Dir(configPath)
	_ = godotenv.Load(filepath.Join(configDir, ".env"))

	// If file doesn't exist, create default
	var config *AppConfig
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config = DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		config = DefaultConfig()
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnvironmentOverrides()
	config.resolvePaths(configDir)

	if len(config.Toolchain.Command) == 0 {
		return nil, fmt.Errorf("toolchain.command must not be empty")
	}
	return config, nil
}

// Save saves the configuration to a YAML file
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# keyforge configuration\n# This file is auto-generated on first run\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if dir := os.Getenv("KEYFORGE_QMK_DIR"); dir != "" {
		c.Toolchain.QMKDirectory = dir
	}
	if dir := os.Getenv("KEYFORGE_OUTPUT_DIR"); dir != "" {
		c.Storage.OutputDirectory = dir
	}
	if dir := os.Getenv("KEYFORGE_DATA_DIR"); dir != "" {
		c.Storage.DataDirectory = dir
	}
	if cmd := strings.Fields(os.Getenv("KEYFORGE_BUILD_COMMAND")); len(cmd) > 0 {
		c.Toolchain.Command = cmd
	}
	if grace := os.Getenv("KEYFORGE_KILL_GRACE_SECONDS"); grace != "" {
		if g, err := strconv.Atoi(grace); err == nil {
			c.Toolchain.KillGraceSeconds = g
		}
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(configDir, p)
	}
	c.Toolchain.QMKDirectory = abs(c.Toolchain.QMKDirectory)
	c.Toolchain.ArtifactDir = abs(c.Toolchain.ArtifactDir)
	c.Storage.OutputDirectory = abs(c.Storage.OutputDirectory)
	c.Storage.DataDirectory = abs(c.Storage.DataDirectory)
}

// GetOutputDir returns the absolute generated-sources root
func (c *AppConfig) GetOutputDir() string {
	if c.Storage.OutputDirectory == "" {
		return c.Toolchain.QMKDirectory
	}
	return c.Storage.OutputDirectory
}

// KeymapDir returns where one keymap's sources go, relative to GetOutputDir
func (c *AppConfig) KeymapDir(keyboard, keymap string) string {
	path := c.Storage.KeymapPath
	if path == "" {
		path = "{keymap}"
	}
	r := strings.NewReplacer("{keyboard}", keyboard, "{keymap}", keymap)
	return filepath.FromSlash(r.Replace(path))
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetHistoryPath returns the history database path
func (c *AppConfig) GetHistoryPath() string {
	if filepath.IsAbs(c.History.Database) {
		return c.History.Database
	}
	return filepath.Join(c.Storage.DataDirectory, c.History.Database)
}

// GetRetention returns how long build history is kept; zero keeps everything
func (c *AppConfig) GetRetention() time.Duration {
	if c.History.RetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.History.RetentionDays) * 24 * time.Hour
}

// BuildConfig returns the build manager settings. Artifacts are looked for in
// the QMK directory unless an artifact directory is configured.
func (c *AppConfig) BuildConfig() build.Config {
	artifactDir := c.Toolchain.ArtifactDir
	if artifactDir == "" {
		artifactDir = c.Toolchain.QMKDirectory
	}
	return build.Config{
		Command:          append([]string(nil), c.Toolchain.Command...),
		WorkDir:          c.Toolchain.QMKDirectory,
		ArtifactDir:      artifactDir,
		ArtifactPatterns: append([]string(nil), c.Toolchain.ArtifactPatterns...),
		KillGrace:        time.Duration(c.Toolchain.KillGraceSeconds) * time.Second,
	}
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{c.Storage.DataDirectory}
	// The QMK checkout itself is never created.
	if c.Storage.OutputDirectory != "" {
		dirs = append(dirs, c.Storage.OutputDirectory)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
