// Package webcsv fetches the weather mapping reference table served as CSV
// over HTTP and parses it into a dataset. Every call fetches fresh; the
// mapping is small and runs are infrequent, so nothing is cached.
package webcsv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/majindogo/field-data-etl/internal/domain"
)

// Fetcher retrieves delimited reference tables over HTTP.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher whose requests time out after the given duration.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch GETs the URL and parses the body as headered CSV. Transport errors
// and non-2xx responses wrap domain.ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*domain.Dataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrFetch, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %s", domain.ErrFetch, url, resp.Status)
	}

	r := csv.NewReader(resp.Body)
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", domain.ErrFetch, err)
	}

	ds := domain.NewDataset(header)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parse csv: %v", domain.ErrFetch, err)
		}
		row := make([]any, len(header))
		for i := range header {
			if i < len(record) {
				row[i] = parseCell(record[i])
			}
		}
		if err := ds.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// parseCell converts a CSV field to its natural Go type: blank becomes nil,
// integers become int64, other numerics float64, everything else stays a string.
func parseCell(s string) any {
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
