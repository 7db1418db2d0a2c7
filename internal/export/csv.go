// Package export renders collections as CSV downloads for spreadsheets.
//
// The format is deliberately Excel-friendly: the header row is unquoted,
// every data cell is double-quote wrapped, nested values are embedded as
// JSON strings and the payload is prefixed with a UTF-8 BOM so Excel
// detects the encoding.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"
)

// BOM is the UTF-8 byte order mark prepended to downloads.
const BOM = "\uFEFF"

// Marshal renders a slice of rows as CSV. The header is the union of the
// rows' keys in first-seen order. An empty collection yields an empty
// string.
func Marshal(rows any) (string, error) {
	v := reflect.ValueOf(rows)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice {
		return "", fmt.Errorf("export: expected a slice, got %T", rows)
	}
	if v.Len() == 0 {
		return "", nil
	}

	var headers []string
	seen := make(map[string]bool)
	keysByRow := make([][]string, v.Len())
	valuesByRow := make([]map[string]json.RawMessage, v.Len())

	for i := 0; i < v.Len(); i++ {
		data, err := json.Marshal(v.Index(i).Interface())
		if err != nil {
			return "", fmt.Errorf("export: marshal row %d: %w", i, err)
		}
		keys, err := orderedKeys(data)
		if err != nil {
			return "", fmt.Errorf("export: scan row %d: %w", i, err)
		}
		values := make(map[string]json.RawMessage)
		if err := json.Unmarshal(data, &values); err != nil {
			return "", fmt.Errorf("export: decode row %d: %w", i, err)
		}
		keysByRow[i] = keys
		valuesByRow[i] = values
		for _, key := range keys {
			if !seen[key] {
				seen[key] = true
				headers = append(headers, key)
			}
		}
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(headers, ","))
	for i := range keysByRow {
		sb.WriteByte('\n')
		cells := make([]string, len(headers))
		for j, key := range headers {
			cells[j] = quoteCell(cellValue(valuesByRow[i][key]))
		}
		sb.WriteString(strings.Join(cells, ","))
	}
	return sb.String(), nil
}

// Filename builds the conventional download name, e.g. sales-export-2026-08-28.csv.
func Filename(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-export-%s.csv", prefix, now.Format("2006-01-02"))
}

// WriteHTTP sends a CSV payload as an attachment with a UTF-8 BOM.
func WriteHTTP(w http.ResponseWriter, prefix, data string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", Filename(prefix, time.Now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(BOM + data))
}

// cellValue converts a raw JSON value into its cell text. Strings are
// unquoted, null and missing values become empty, and composite values stay
// as compact JSON.
func cellValue(raw json.RawMessage) string {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

func quoteCell(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// orderedKeys walks the top level of a JSON object and returns its keys in
// document order, which for structs is field declaration order.
func orderedKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("row is not a JSON object")
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		keys = append(keys, key)
		if err := skipValue(dec); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || (delim != '{' && delim != '[') {
		return nil
	}
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
