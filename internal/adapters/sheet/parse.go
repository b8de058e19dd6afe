package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/okian/phq9/internal/domain/model"
)

const utf8BOM = "\ufeff"

// Parse reads CSV text into a Table. The first record is the header. Rows may
// have different lengths; layout checks happen in the resolver.
func Parse(r io.Reader) (model.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var t model.Table
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.Table{}, fmt.Errorf("%w: %w", ErrParse, err)
		}
		if t.Header == nil {
			if len(rec) > 0 {
				rec[0] = strings.TrimPrefix(rec[0], utf8BOM)
			}
			t.Header = rec
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	if t.Header == nil {
		return model.Table{}, fmt.Errorf("%w: missing header", ErrParse)
	}
	return t, nil
}
