package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ExportCSV writes the current dataset as headered CSV. Nil cells become
// empty fields.
func (p *Processor) ExportCSV(w io.Writer) error {
	if p.dataset == nil {
		return errors.New("no dataset to export: run the pipeline first")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(p.dataset.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, p.dataset.NumCols())
	for r := 0; r < p.dataset.NumRows(); r++ {
		for c, name := range p.dataset.Columns() {
			v, err := p.dataset.Cell(r, name)
			if err != nil {
				return err
			}
			record[c] = formatCell(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", r, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCell(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case int64:
		return strconv.FormatInt(n, 10)
	case int:
		return strconv.Itoa(n)
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(n)
	default:
		return fmt.Sprint(v)
	}
}
