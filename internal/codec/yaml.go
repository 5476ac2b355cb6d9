package codec

import (
	"errors"
	"fmt"
	"io"

	"relgraph/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML fixture import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse reads a fixture from YAML. An empty document yields an empty fixture.
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Fixture, error) {
	fixture := domain.NewFixture()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(fixture); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return fixture, nil
}

// Export writes the snapshot to YAML in fixture form
func (c *YAMLCodec) Export(snapshot *domain.Snapshot, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(ToFixture(snapshot)); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
