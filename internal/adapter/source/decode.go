package source

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx/v2"

	"github.com/couchcryptid/census-market-etl/internal/domain"
)

// Format is a tabular payload encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the format from the URI extension, falling back to
// sniffing the body (JSON arrays start with '[', XLSX files are zip archives).
func DetectFormat(uri string, body []byte) Format {
	p := uri
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".csv", ".txt":
		return FormatCSV
	case ".json":
		return FormatJSON
	case ".xlsx":
		return FormatXLSX
	}

	trimmed := bytes.TrimSpace(body)
	switch {
	case bytes.HasPrefix(trimmed, []byte("[")):
		return FormatJSON
	case bytes.HasPrefix(body, []byte("PK\x03\x04")):
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// Decode turns a payload into a table whose first row is the header.
func Decode(uri string, body []byte) ([][]string, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, domain.ErrEmptySource
	}

	var (
		table [][]string
		err   error
	)
	switch DetectFormat(uri, body) {
	case FormatJSON:
		table, err = decodeCensusJSON(body)
	case FormatXLSX:
		table, err = decodeXLSX(body)
	default:
		table, err = decodeCSV(body)
	}
	if err != nil {
		return nil, err
	}
	if len(table) == 0 {
		return nil, domain.ErrEmptySource
	}
	return table, nil
}

func decodeCSV(body []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	table, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}
	return table, nil
}

// decodeCensusJSON reads the Census Data API response shape: an array of
// arrays, header first. Cells may be strings, numbers or null. When the
// response has state and county columns but no GEO_ID, one is synthesized.
func decodeCensusJSON(body []byte) ([][]string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw [][]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	table := make([][]string, len(raw))
	for i, rec := range raw {
		row := make([]string, len(rec))
		for j, cell := range rec {
			s, err := jsonCell(cell)
			if err != nil {
				return nil, fmt.Errorf("decode json: row %d column %d: %w", i, j, err)
			}
			row[j] = s
		}
		table[i] = row
	}
	return withGeoID(table), nil
}

func jsonCell(v any) (string, error) {
	switch c := v.(type) {
	case nil:
		return "", nil
	case string:
		return c, nil
	case json.Number:
		return c.String(), nil
	case bool:
		return strconv.FormatBool(c), nil
	default:
		return "", errors.New("nested values are not supported")
	}
}

// withGeoID appends a county GEO_ID column built from the API's state and
// county FIPS columns.
func withGeoID(table [][]string) [][]string {
	header := table[0]
	stateCol, countyCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "geo_id":
			return table
		case "state":
			stateCol = i
		case "county":
			countyCol = i
		}
	}
	if stateCol < 0 || countyCol < 0 {
		return table
	}

	table[0] = append(header, "GEO_ID")
	for i := 1; i < len(table); i++ {
		row := table[i]
		if len(row) != len(header) {
			continue
		}
		table[i] = append(row, "0500000US"+row[stateCol]+row[countyCol])
	}
	return table
}

// decodeXLSX reads the first sheet. Excel drops trailing empty cells, so
// short rows are padded to the header width.
func decodeXLSX(body []byte) ([][]string, error) {
	f, err := xlsx.OpenBinary(body)
	if err != nil {
		return nil, fmt.Errorf("decode xlsx: %w", err)
	}
	if len(f.Sheets) == 0 {
		return nil, errors.New("decode xlsx: workbook has no sheets")
	}

	sheet := f.Sheets[0]
	table := make([][]string, 0, len(sheet.Rows))
	width := 0
	for i, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		if i == 0 {
			width = len(cells)
		}
		for len(cells) < width {
			cells = append(cells, "")
		}
		table = append(table, cells)
	}
	return table, nil
}
