package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/keyforge/backend/internal/history"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	showLogs     bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past builds",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent builds",
	RunE: func(cmd *cobra.Command, args []string) error {
		hist, err := openHistory()
		if err != nil {
			return err
		}
		defer hist.Close()

		builds, err := hist.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tKEYBOARD\tKEYMAP\tSTATUS\tDURATION")
		for _, b := range builds {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", shortID(b.ID), b.StartedAt.Local().Format(time.DateTime),
				b.Keyboard, b.Keymap, b.Status, b.Duration().Round(time.Millisecond))
		}
		return w.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one build; accepts an ID prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hist, err := openHistory()
		if err != nil {
			return err
		}
		defer hist.Close()

		b, err := hist.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Build:    %s\n", b.ID)
		fmt.Printf("Keyboard: %s (%s)\n", b.Keyboard, b.Keymap)
		fmt.Printf("Output:   %s\n", b.OutputDir)
		fmt.Printf("Status:   %s\n", b.Status)
		if b.Reason != "" {
			fmt.Printf("Reason:   %s\n", b.Reason)
		}
		if b.ExitCode != nil {
			fmt.Printf("Exit:     %d\n", *b.ExitCode)
		}
		if b.ArtifactPath != "" {
			fmt.Printf("Artifact: %s (%d bytes)\n", b.ArtifactPath, b.ArtifactSize)
		}
		fmt.Printf("Started:  %s (%s)\n", b.StartedAt.Local().Format(time.DateTime), b.Duration().Round(time.Millisecond))
		for _, p := range b.Problems {
			if p.Position != "" {
				fmt.Printf("  ❌ %s at %s: %s\n", p.Category, p.Position, p.Message)
			} else {
				fmt.Printf("  ❌ %s: %s\n", p.Category, p.Message)
			}
		}

		if showLogs {
			lines, err := hist.Logs(cmd.Context(), b.ID)
			if err != nil {
				return err
			}
			for _, line := range lines {
				fmt.Println(line)
			}
		}
		return nil
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete builds older than the configured retention",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.GetRetention() == 0 {
			fmt.Println("Retention is disabled; nothing to prune")
			return nil
		}
		hist, err := history.Open(cfg.GetHistoryPath())
		if err != nil {
			return err
		}
		defer hist.Close()

		n, err := hist.Prune(cmd.Context(), cfg.GetRetention())
		if err != nil {
			return err
		}
		fmt.Printf("🧹 Removed %d build(s)\n", n)
		return nil
	},
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of builds to list (0 for all)")
	historyShowCmd.Flags().BoolVar(&showLogs, "logs", false, "Print the captured compiler output")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPruneCmd)
}

func openHistory() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("build history is disabled in %s", configPath)
	}
	return history.Open(cfg.GetHistoryPath())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
