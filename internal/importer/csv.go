package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrBadFile marks file-level failures: nothing was processed.
var ErrBadFile = errors.New("importer: unreadable csv file")

// row is one parsed CSV data row keyed by normalized header name.
type row map[string]string

func (r row) get(keys ...string) string {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != "" {
			return v
		}
	}
	return ""
}

func (r row) getInt(keys ...string) (int64, bool, error) {
	raw := r.get(keys...)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, true, fmt.Errorf("%q is not an integer", raw)
	}
	return v, true, nil
}

// getCents parses a decimal money column into integer cents.
func (r row) getCents(keys ...string) (int64, bool, error) {
	raw := r.get(keys...)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 {
		return 0, true, fmt.Errorf("%q is not a valid price", raw)
	}
	return int64(v*100 + 0.5), true, nil
}

// readRows decodes the file and validates the header against the
// required column set. Any failure here fails the whole batch before a
// single row is applied.
func readRows(r io.Reader, required []string) ([]row, error) {
	// Spreadsheet exports often lead with a UTF-8 BOM; the decoder
	// strips it before the first header cell is read.
	reader := csv.NewReader(transform.NewReader(r, unicode.UTF8BOM.NewDecoder()))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, ErrBadFile
	}
	cols := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		cols[i] = name
		seen[name] = true
	}
	for _, req := range required {
		if !seen[req] {
			return nil, fmt.Errorf("%w: missing required column %q", ErrBadFile, req)
		}
	}

	var rows []row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ErrBadFile
		}
		entry := make(row, len(cols))
		for i, value := range record {
			if i >= len(cols) {
				break
			}
			entry[cols[i]] = strings.TrimSpace(value)
		}
		rows = append(rows, entry)
	}
	return rows, nil
}

// dateLayouts is the fallback order for date columns.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a recognized date", raw)
}
