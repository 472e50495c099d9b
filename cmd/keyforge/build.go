package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/keyforge/backend/internal/build"
	"github.com/keyforge/backend/internal/generator"
	"github.com/keyforge/backend/internal/history"
	"github.com/keyforge/backend/internal/storage"
	"github.com/spf13/cobra"
)

var (
	buildFlags layoutFlags
	quiet      bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate sources and run the firmware compiler",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		in, err := buildFlags.load()
		if err != nil {
			return err
		}

		store, err := storage.NewLocalStore(cfg.GetOutputDir())
		if err != nil {
			return err
		}
		gen := generator.New(in.registry, generator.Options{Deterministic: cfg.Generation.Deterministic})

		var opts []build.Option
		if cfg.History.Enabled {
			hist, err := history.Open(cfg.GetHistoryPath())
			if err != nil {
				return err
			}
			defer hist.Close()
			opts = append(opts, build.WithRecorder(hist))
		}
		mgr := build.NewManager(cfg.BuildConfig(), gen, store, opts...)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		h := mgr.Start(ctx, build.Request{
			Layout:    in.layout,
			Geometry:  in.geometry,
			Mapping:   in.mapping,
			OutputDir: buildFlags.outputDir(cfg, in),
		})
		return report(h)
	},
}

func init() {
	buildFlags.register(buildCmd)
	buildCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide compiler output")
}

// report prints the event stream and turns the terminal event into the exit status.
func report(h *build.Handle) error {
	var result error
	for ev := range h.Events() {
		switch e := ev.(type) {
		case build.Progress:
			if e.Percent != nil {
				fmt.Printf("⏳ %s %d%%\n", e.Phase, *e.Percent)
			} else {
				fmt.Printf("⏳ %s\n", e.Phase)
			}
		case build.LogOutput:
			if quiet {
				continue
			}
			if e.Stream == build.Stderr {
				fmt.Fprintln(os.Stderr, e.Line)
			} else {
				fmt.Println(e.Line)
			}
		case build.Success:
			fmt.Printf("✅ Firmware: %s (%d bytes)\n", e.ArtifactPath, e.SizeBytes)
		case build.Failed:
			printProblems(e.Problems)
			if quiet && len(e.Log) > 0 {
				for _, line := range e.Log {
					fmt.Fprintln(os.Stderr, line)
				}
			}
			result = failure(e)
		case build.Cancelled:
			result = context.Canceled
		}
	}
	// History is written after the stream closes.
	<-h.Done()
	return result
}

func failure(e build.Failed) error {
	switch {
	case e.ExitCode != nil && *e.ExitCode != 0:
		return fmt.Errorf("build failed (%s, exit code %d)", e.Reason, *e.ExitCode)
	case e.Err != nil:
		return fmt.Errorf("build failed (%s): %w", e.Reason, e.Err)
	}
	return fmt.Errorf("build failed (%s)", e.Reason)
}
