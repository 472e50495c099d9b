package main

import (
	"fmt"

	"github.com/keyforge/backend/internal/keycode"
	"github.com/spf13/cobra"
)

var explainCmd = &cobra.Command{
	Use:   "explain <keycode>...",
	Short: "Describe what keycodes do",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := keycode.Default()
		if err != nil {
			return err
		}
		var failed int
		for _, code := range args {
			text, err := db.Explain(code)
			if err != nil {
				fmt.Printf("%-20s ❌ %v\n", code, err)
				failed++
				continue
			}
			fmt.Printf("%-20s %s\n", code, text)
		}
		if failed > 0 {
			return fmt.Errorf("%d keycode(s) could not be explained", failed)
		}
		return nil
	},
}
