package domain

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ErrEmptySource is returned when a source fetch succeeds but carries no data.
var ErrEmptySource = errors.New("source returned an empty body")

// SourceLoadError reports that one source could not be fetched or parsed.
// It is isolated to that source: fields it would have filled stay null.
type SourceLoadError struct {
	Dataset Dataset
	Err     error
}

func (e *SourceLoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Dataset, e.Err)
}

func (e *SourceLoadError) Unwrap() error { return e.Err }

// LoadedStatus records a successful load.
func LoadedStatus(ds Dataset, rows int) LoadStatus {
	return LoadStatus{Dataset: ds, Loaded: true, Rows: rows}
}

// FailedStatus records a failed load. The row set for the source is empty.
func FailedStatus(ds Dataset, err error) LoadStatus {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return LoadStatus{Dataset: ds, Loaded: false, Error: msg}
}

// nullMarkers are Census cell values meaning "no estimate".
var nullMarkers = map[string]struct{}{
	"":    {},
	"-":   {},
	"N":   {},
	"(X)": {},
}

// sentinelCodes appear as prefixes of annotation values such as -666666666.
var sentinelCodes = []string{"-666", "-888", "-999"}

// CleanValue converts a raw cell into a number, or nil when the cell is
// empty, a Census null marker, a sentinel code, or not numeric. Sentinels
// are never turned into zero.
func CleanValue(raw any) *float64 {
	switch v := raw.(type) {
	case nil:
		return nil
	case float64:
		return cleanNumber(v)
	case float32:
		return cleanNumber(float64(v))
	case int:
		return cleanNumber(float64(v))
	case int64:
		return cleanNumber(float64(v))
	case string:
		return cleanString(v)
	default:
		return nil
	}
}

func cleanNumber(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	if hasSentinel(strconv.FormatFloat(v, 'f', -1, 64)) {
		return nil
	}
	return &v
}

func cleanString(s string) *float64 {
	s = strings.TrimSpace(s)
	if _, ok := nullMarkers[s]; ok {
		return nil
	}
	if hasSentinel(s) {
		return nil
	}

	// Top- and bottom-coded estimates ("250,000+", "2,500-") keep their bound.
	s = strings.TrimSuffix(s, "+")
	if len(s) > 1 && strings.HasSuffix(s, "-") {
		s = strings.TrimSuffix(s, "-")
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func hasSentinel(s string) bool {
	for _, code := range sentinelCodes {
		if strings.Contains(s, code) {
			return true
		}
	}
	return false
}

// ParseTable turns a decoded table (header row first) into rows keyed by
// header name. For datasets with a label row the row after the header is
// skipped when its content is a label, so API payloads of the same dataset
// keep their first record. Rows whose width does not match the header are skipped and
// counted as parse warnings; blank rows are ignored.
func ParseTable(ds Dataset, table [][]string) ([]Row, int) {
	if len(table) == 0 {
		return nil, 0
	}

	header := make([]string, len(table[0]))
	for i, h := range table[0] {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = h
	}

	start := 1
	if ds.HasLabelRow() && len(table) > 1 && isLabelRow(header, table[1]) {
		start = 2
	}

	var (
		rows     []Row
		warnings int
	)
	for i := start; i < len(table); i++ {
		record := table[i]
		if isBlank(record) {
			continue
		}
		if len(record) != len(header) {
			warnings++
			continue
		}

		row := make(Row, len(header))
		for j, name := range header {
			if name == "" {
				continue
			}
			cell := strings.TrimSpace(record[j])
			row[name] = Value{Num: CleanValue(cell), Text: cell}
		}
		rows = append(rows, row)
	}
	return rows, warnings
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// isLabelRow reports whether record is a variable-label row. With a geography
// column the label is the cell there ("Geography") holding no digits;
// otherwise no cell may hold a number.
func isLabelRow(header, record []string) bool {
	if isBlank(record) {
		return false
	}
	for i, name := range header {
		if !slices.Contains(colGeoID, name) {
			continue
		}
		if i >= len(record) {
			return false
		}
		return !strings.ContainsAny(record[i], "0123456789")
	}
	for _, cell := range record {
		if CleanValue(cell) != nil {
			return false
		}
	}
	return true
}
