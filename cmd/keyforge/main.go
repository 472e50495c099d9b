package main

import (
	"fmt"
	"os"

	"github.com/keyforge/backend/internal/config"
	"github.com/keyforge/backend/internal/keycode"
	"github.com/keyforge/backend/internal/mapping"
	"github.com/keyforge/backend/internal/models"
	"github.com/keyforge/backend/internal/parser"
	"github.com/spf13/cobra"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	rootCmd = &cobra.Command{
		Use:           "keyforge",
		Short:         "Generate and build keyboard firmware from layout files",
		Version:       fmt.Sprintf("%s (built %s)", Version, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "keyforge.yaml", "Path to the configuration file")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(historyCmd)
}

func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// inputs is everything one generation needs.
type inputs struct {
	layout   *models.Layout
	geometry *models.KeyboardGeometry
	mapping  *mapping.Mapping
	registry *keycode.Database
}

// layoutFlags are shared by generate and build.
type layoutFlags struct {
	description string
	layout      string
	variant     string
	out         string
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "Keyboard description file (info.json or YAML)")
	cmd.Flags().StringVarP(&f.layout, "layout", "l", "", "Layout file (YAML)")
	cmd.Flags().StringVar(&f.variant, "variant", "", "Layout variant (defaults to the layout file's variant)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Output directory, relative to the configured output directory (defaults to the keymap path)")
	cmd.MarkFlagRequired("description")
	cmd.MarkFlagRequired("layout")
}

func (f *layoutFlags) load() (*inputs, error) {
	layout, err := parser.ParseLayout(f.layout)
	if err != nil {
		return nil, fmt.Errorf("failed to load layout: %w", err)
	}

	variant := f.variant
	if variant == "" {
		variant = layout.Variant
	}
	geo, err := parser.GetGlobalRegistry().LoadGeometry(f.description, variant)
	if err != nil {
		return nil, fmt.Errorf("failed to load keyboard description: %w", err)
	}

	m, err := mapping.Build(geo)
	if err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}

	db, err := keycode.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load keycode database: %w", err)
	}

	return &inputs{layout: layout, geometry: geo, mapping: m, registry: db}, nil
}

func (f *layoutFlags) outputDir(cfg *config.AppConfig, in *inputs) string {
	if f.out != "" {
		return f.out
	}
	return cfg.KeymapDir(in.geometry.Keyboard, in.layout.KeymapName)
}
