package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/keyforge/backend/internal/mapping"
	"github.com/keyforge/backend/internal/parser"
	"github.com/spf13/cobra"
)

var inspectVariant string

var inspectCmd = &cobra.Command{
	Use:   "inspect <description>",
	Short: "List a keyboard's variants or print its matrix/visual/LED mapping",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, err := parser.GetGlobalRegistry().LoadDescription(args[0])
		if err != nil {
			return err
		}

		if inspectVariant == "" {
			fmt.Printf("⌨️  %s\n", desc.KeyboardName)
			for _, v := range desc.Variants() {
				fmt.Printf("  %s\n", v)
			}
			return nil
		}

		geo, err := desc.Geometry(inspectVariant)
		if err != nil {
			return err
		}
		m, err := mapping.Build(geo)
		if err != nil {
			return err
		}

		fmt.Printf("⌨️  %s %s: %d keys, %d LEDs, visual width %d\n",
			geo.Keyboard, geo.Variant, m.Len(), len(m.LedOrder()), m.Width())
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "MATRIX\tVISUAL\tLED")
		for _, pos := range m.MatrixOrder() {
			vis, _ := m.MatrixToVisual(pos)
			led := "-"
			if l, err := m.MatrixToLed(pos); err == nil {
				led = l.String()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", pos, vis, led)
		}
		return w.Flush()
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectVariant, "variant", "", "Print the mapping of this variant")
}
