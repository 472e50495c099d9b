package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/keyforge/backend/internal/generator"
	"github.com/keyforge/backend/internal/models"
	"github.com/keyforge/backend/internal/storage"
	"github.com/spf13/cobra"
)

var (
	generateFlags layoutFlags
	checkOnly     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Validate a layout and write keymap.c, config.h and rules.mk",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		in, err := generateFlags.load()
		if err != nil {
			return err
		}

		snapshot, err := models.Snapshot(in.layout)
		if err != nil {
			return err
		}
		gen := generator.New(in.registry, generator.Options{Deterministic: cfg.Generation.Deterministic})

		if checkOnly {
			problems := gen.Validate(snapshot, in.geometry, in.mapping)
			if len(problems) > 0 {
				printProblems(problems)
				return fmt.Errorf("layout has %d problem(s)", len(problems))
			}
			fmt.Println("✅ Layout is valid")
			return nil
		}

		files, err := gen.Generate(snapshot, in.geometry, in.mapping)
		if err != nil {
			var genErr *generator.GenerationError
			if errors.As(err, &genErr) {
				printProblems(genErr.Problems)
			}
			return err
		}

		store, err := storage.NewLocalStore(cfg.GetOutputDir())
		if err != nil {
			return err
		}
		written, err := store.WriteFiles(generateFlags.outputDir(cfg, in), files.Files)
		if err != nil {
			return fmt.Errorf("failed to write files: %w", err)
		}
		for _, f := range written {
			fmt.Printf("📝 %s (%d bytes)\n", f.Path, f.Size)
		}
		return nil
	},
}

func init() {
	generateFlags.register(generateCmd)
	generateCmd.Flags().BoolVar(&checkOnly, "check", false, "Only validate, do not write files")
}

func printProblems(problems []generator.Problem) {
	for _, p := range problems {
		fmt.Fprintf(os.Stderr, "  ❌ %s\n", p.String())
	}
}
