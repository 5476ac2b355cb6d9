package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"relgraph/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse reads a fixture from JSON
func (c *JSONCodec) Parse(r io.Reader) (*domain.Fixture, error) {
	fixture := domain.NewFixture()
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(fixture); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return fixture, nil
}

// Export writes the snapshot to JSON in fixture form
func (c *JSONCodec) Export(snapshot *domain.Snapshot, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(ToFixture(snapshot)); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
