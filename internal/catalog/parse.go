package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jonathan/catalog-enricher/internal/types"
)

// Format is the declared catalog encoding
type Format string

// Format constants
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// FormatFromFilename selects the parser branch from the file suffix
func FormatFromFilename(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", &ParseError{
		Kind:    KindUnsupportedType,
		Message: "Unsupported file type. Please upload CSV or JSON.",
	}
}

// Parse turns an uploaded file into records. The suffix of filename picks the format.
func Parse(filename string, data []byte) ([]types.RawRecord, error) {
	format, err := FormatFromFilename(filename)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatJSON:
		return ParseJSON(data)
	default:
		return ParseCSV(data)
	}
}

// ParseReader reads r fully and parses it. Unsupported suffixes are rejected
// before the stream is read.
func ParseReader(filename string, r io.Reader) ([]types.RawRecord, error) {
	if _, err := FormatFromFilename(filename); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{
			Kind:    KindReadError,
			Message: "File read error",
			Cause:   err,
		}
	}
	return Parse(filename, data)
}

// ParseJSON parses a JSON catalog. An array yields one record per element,
// a single object yields a one-element sequence.
func ParseJSON(data []byte) ([]types.RawRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		return nil, invalidJSON(nil)
	}

	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, invalidJSON(err)
		}
		records := make([]types.RawRecord, 0, len(items))
		for i, item := range items {
			if !isObject(item) {
				return nil, wrongShape(fmt.Sprintf("array element %d is not an object", i+1))
			}
			var rec types.RawRecord
			if err := json.Unmarshal(item, &rec); err != nil {
				return nil, invalidJSON(err)
			}
			records = append(records, rec)
		}
		return records, nil

	case len(trimmed) > 0 && trimmed[0] == '{':
		var rec types.RawRecord
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return nil, invalidJSON(err)
		}
		return []types.RawRecord{rec}, nil
	}

	return nil, wrongShape("root must be an object or an array of objects")
}

// ParseCSV parses a simple comma separated catalog. The first non-blank line
// is the header. Quoted fields containing commas are not supported.
func ParseCSV(data []byte) ([]types.RawRecord, error) {
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return nil, &ParseError{
			Kind:    KindInsufficientRows,
			Message: "CSV needs at least a header row and one data row",
		}
	}

	headers := splitCSVLine(lines[0])
	records := make([]types.RawRecord, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := splitCSVLine(line)
		rec := make(types.RawRecord, 0, len(headers))
		for i, h := range headers {
			value := ""
			if i < len(values) {
				value = values[i]
			}
			rec.Set(h, value)
		}
		records = append(records, rec)
	}
	return records, nil
}

// splitCSVLine splits on commas, trims each cell and strips one surrounding quote on each side
func splitCSVLine(line string) []string {
	cells := strings.Split(line, ",")
	for i, cell := range cells {
		cell = strings.TrimSpace(cell)
		cell = strings.TrimPrefix(cell, `"`)
		cell = strings.TrimSuffix(cell, `"`)
		cells[i] = cell
	}
	return cells
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// wrongShape reports valid JSON that does not hold product objects
func wrongShape(detail string) *ParseError {
	return &ParseError{
		Kind:    KindInvalidFormat,
		Message: "Invalid JSON file: " + detail,
	}
}

func invalidJSON(cause error) *ParseError {
	return &ParseError{
		Kind:    KindInvalidFormat,
		Message: "Invalid JSON file",
		Cause:   cause,
	}
}
