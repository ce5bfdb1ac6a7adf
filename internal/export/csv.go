package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/AngelCh415/campaign-dash/internal/models"
)

const (
	ResponderFileName = "responders.csv"
	ContentType       = "text/csv; charset=utf-8"
)

// ResponderCSV encodes the table with its original headers and cell text,
// without an index column. Output depends only on the input.
func ResponderCSV(t models.ActivationTable) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, r := range t.Rows {
		if len(r.Raw) != len(t.Header) {
			return nil, fmt.Errorf("row %d: %d cells for %d columns", i, len(r.Raw), len(t.Header))
		}
		if err := w.Write(r.Raw); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
