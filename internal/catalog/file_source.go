package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileSource loads card definitions from a JSON file on disk.
type FileSource struct {
	path string
}

// NewFileSource creates a source backed by the given JSON file.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// LoadCards reads and decodes the card definition file.
func (s *FileSource) LoadCards(_ context.Context) ([]CardDefinition, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	var cards []CardDefinition
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return cards, nil
}
