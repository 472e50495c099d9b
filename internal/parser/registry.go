package parser

import (
	"fmt"
	"strings"

	"github.com/keyforge/backend/internal/models"
)

// Registry holds all available description parsers and provides auto-detection.
type Registry struct {
	parsers []DescriptionParser
}

// Global registry instance
var globalRegistry = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{
		parsers: []DescriptionParser{
			NewInfoJSONParser(),
			NewYAMLDescriptionParser(),
		},
	}
}

// GetGlobalRegistry returns the singleton registry.
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// Register adds a new parser to the registry.
func (r *Registry) Register(p DescriptionParser) {
	r.parsers = append(r.parsers, p)
}

// FindParser detects the correct parser for a file.
func (r *Registry) FindParser(filePath string) (DescriptionParser, error) {
	for _, p := range r.parsers {
		can, err := p.CanParse(filePath)
		if err != nil {
			continue
		}
		if can {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no suitable parser found for file: %s", filePath)
}

// GetParserByName returns a parser by its name.
func (r *Registry) GetParserByName(name string) (DescriptionParser, error) {
	name = strings.ToLower(name)
	for _, p := range r.parsers {
		if strings.ToLower(p.Name()) == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("parser not found: %s", name)
}

// LoadDescription finds a parser for the file and decodes it.
func (r *Registry) LoadDescription(filePath string) (*Description, error) {
	p, err := r.FindParser(filePath)
	if err != nil {
		return nil, err
	}
	return p.Parse(filePath)
}

// LoadGeometry decodes a description file and builds the geometry of one variant.
func (r *Registry) LoadGeometry(filePath, variant string) (*models.KeyboardGeometry, error) {
	d, err := r.LoadDescription(filePath)
	if err != nil {
		return nil, err
	}
	return d.Geometry(variant)
}
