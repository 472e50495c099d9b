// Package parser decodes keyboard descriptions and layout files.
package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DescriptionParser decodes one keyboard description format.
type DescriptionParser interface {
	// Name returns the unique name of the parser.
	Name() string
	// CanParse returns true if this parser can handle the given file.
	CanParse(filePath string) (bool, error)
	// Parse decodes the whole description.
	Parse(filePath string) (*Description, error)
}

// InfoJSONParser reads info.json descriptions.
type InfoJSONParser struct{}

func NewInfoJSONParser() *InfoJSONParser { return &InfoJSONParser{} }

func (p *InfoJSONParser) Name() string { return "info_json" }

func (p *InfoJSONParser) CanParse(filePath string) (bool, error) {
	return strings.EqualFold(filepath.Ext(filePath), ".json"), nil
}

func (p *InfoJSONParser) Parse(filePath string) (*Description, error) {
	data, err := readAll(filePath)
	if err != nil {
		return nil, err
	}
	var d Description
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(filePath), err)
	}
	return &d, validateDescription(&d)
}

// YAMLDescriptionParser reads the same schema written as YAML.
type YAMLDescriptionParser struct{}

func NewYAMLDescriptionParser() *YAMLDescriptionParser { return &YAMLDescriptionParser{} }

func (p *YAMLDescriptionParser) Name() string { return "yaml" }

func (p *YAMLDescriptionParser) CanParse(filePath string) (bool, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	return ext == ".yaml" || ext == ".yml", nil
}

func (p *YAMLDescriptionParser) Parse(filePath string) (*Description, error) {
	data, err := readAll(filePath)
	if err != nil {
		return nil, err
	}
	var d Description
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(filePath), err)
	}
	return &d, validateDescription(&d)
}

func validateDescription(d *Description) error {
	if d.MatrixSize.Rows <= 0 || d.MatrixSize.Cols <= 0 {
		return fmt.Errorf("description is missing matrix_size")
	}
	if len(d.Layouts) == 0 {
		return fmt.Errorf("description has no layouts")
	}
	return nil
}

func readAll(filePath string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}
