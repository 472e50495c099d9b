package parser

import (
	"fmt"
	"io"
	"os"

	"github.com/keyforge/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// ParseLayout parses a YAML layout file.
func ParseLayout(filePath string) (*models.Layout, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseLayoutFromReader(file)
}

// ParseLayoutFromReader parses a layout from an io.Reader.
func ParseLayoutFromReader(r io.Reader) (*models.Layout, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var layout models.Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}

	if layout.KeymapName == "" {
		layout.KeymapName = "default"
	}
	// Layer order in the file is authoritative.
	for i := range layout.Layers {
		layout.Layers[i].Number = i
	}

	return &layout, nil
}

// SaveLayout writes a layout as YAML.
func SaveLayout(filePath string, layout *models.Layout) error {
	data, err := yaml.Marshal(layout)
	if err != nil {
		return fmt.Errorf("encoding layout: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("writing layout: %w", err)
	}
	return nil
}
