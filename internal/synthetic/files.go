package synthetic

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/phq9/internal/domain/model"
	"github.com/okian/phq9/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

const sheetTimestampLayout = "1/2/2006 15:04:05"

// WriteSheet writes a header and one row per respondent as CSV.
func WriteSheet(w io.Writer, layout model.Layout, respondents []Respondent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(layout)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	base := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	for i, r := range respondents {
		ts := base.Add(time.Duration(i) * time.Minute).Format(sheetTimestampLayout)
		if err := cw.Write(Row(layout, r, ts)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveSheet writes the CSV sheet to path, creating parent directories.
func SaveSheet(ctx context.Context, path string, layout model.Layout, respondents []Respondent) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	if err := WriteSheet(f, layout, respondents); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	logger.Get().Info(ctx, "sheet saved", logger.String("path", path), logger.Int("rows", len(respondents)))
	return nil
}

// SaveExpectations writes respondents as a JSON array to path.
func SaveExpectations(ctx context.Context, path string, respondents []Respondent) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(respondents); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode expectations: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	logger.Get().Info(ctx, "expectations saved", logger.String("path", path))
	return nil
}

// LoadExpectations reads a file written by SaveExpectations.
func LoadExpectations(path string) ([]Respondent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read expectations: %w", err)
	}
	var out []Respondent
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode expectations: %w", err)
	}
	return out, nil
}

func create(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return f, nil
}
