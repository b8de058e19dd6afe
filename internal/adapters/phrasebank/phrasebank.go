// Package phrasebank loads the commentary phrase bank from disk.
package phrasebank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/phq9/internal/domain/commentary"
)

// ErrMalformed is returned when the file exists but cannot be decoded.
var ErrMalformed = errors.New("malformed phrase bank")

// Load reads a phrase bank file. Files ending in .yaml or .yml are decoded
// as YAML, anything else as JSON. A missing file yields an error wrapping
// os.ErrNotExist.
func Load(ctx context.Context, path string) (*commentary.Bank, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("phrasebank.Load: %w", err)
	}
	return Decode(data, formatOf(path))
}

// Format of an encoded bank.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses a condition -> phrases mapping.
func Decode(data []byte, format Format) (*commentary.Bank, error) {
	pools := map[string][]string{}
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &pools)
	case FormatJSON:
		err = json.Unmarshal(data, &pools)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrMalformed, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return commentary.NewBank(pools), nil
}
