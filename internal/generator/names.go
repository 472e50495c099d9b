package generator

import (
	"fmt"
	"strings"

	"github.com/keyforge/backend/internal/models"
)

// ident upper-cases s and reduces it to a C identifier body:
// runs of other characters become a single underscore.
func ident(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			underscore = false
		case !underscore && b.Len() > 0:
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// layerIdents returns the enum constant for each layer, e.g. _BASE.
func layerIdents(layers []models.Layer) []string {
	seen := make(map[string]bool, len(layers))
	names := make([]string, len(layers))
	for i, layer := range layers {
		name := "_" + ident(layer.Name)
		if name == "_" {
			name = fmt.Sprintf("_LAYER%d", i)
		}
		if seen[name] {
			base := name
			for n := i; seen[name]; n++ {
				name = fmt.Sprintf("%s_%d", base, n)
			}
		}
		seen[name] = true
		names[i] = name
	}
	return names
}
