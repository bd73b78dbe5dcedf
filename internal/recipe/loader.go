package recipe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ErrMalformedInput is returned when an import document cannot be turned into
// a sequence of records.
var ErrMalformedInput = errors.New("malformed input")

var utf8BOM = []byte("\xef\xbb\xbf")

// LoadFile reads and parses an import document from disk.
func LoadFile(path string) ([]RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseRecords(data)
}

// ParseRecords parses an import document into an ordered list of records.
//
// An array yields its elements in order. An object whose keys are all
// non-negative integer strings, e.g. {"0": {...}, "1": {...}}, yields its
// values ordered by numeric key. Any other object is a single record.
func ParseRecords(data []byte) ([]RawRecord, error) {
	data = bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedInput)
	}
	if !json.Valid(data) {
		// Decode again only to get a descriptive syntax error.
		var v any
		err := json.Unmarshal(data, &v)
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		return toRecords(items)
	case '{':
		entries, err := objectEntries(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		if !allIndexKeys(entries) {
			rec := make(RawRecord, len(entries))
			for _, e := range entries {
				rec[e.key] = e.value
			}
			return []RawRecord{rec}, nil
		}
		sort.SliceStable(entries, func(i, j int) bool {
			return lessIndexKey(entries[i].key, entries[j].key)
		})
		items := make([]json.RawMessage, len(entries))
		for i, e := range entries {
			items[i] = e.value
		}
		return toRecords(items)
	default:
		return nil, fmt.Errorf("%w: document must be a JSON array or object", ErrMalformedInput)
	}
}

type objectEntry struct {
	key   string
	value json.RawMessage
}

// objectEntries returns the members of a JSON object in document order.
// A repeated key keeps its first position and its last value.
func objectEntries(data []byte) ([]objectEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var entries []objectEntry
	seen := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		if i, dup := seen[key]; dup {
			entries[i].value = value
			continue
		}
		seen[key] = len(entries)
		entries = append(entries, objectEntry{key: key, value: value})
	}
	return entries, nil
}

func allIndexKeys(entries []objectEntry) bool {
	if len(entries) == 0 {
		return false
	}
	for _, e := range entries {
		if !isIndexKey(e.key) {
			return false
		}
	}
	return true
}

func isIndexKey(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < '0' || key[i] > '9' {
			return false
		}
	}
	return true
}

// lessIndexKey compares digit strings numerically without a width limit.
func lessIndexKey(a, b string) bool {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func toRecords(items []json.RawMessage) ([]RawRecord, error) {
	records := make([]RawRecord, 0, len(items))
	for i, item := range items {
		trimmed := bytes.TrimSpace(item)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return nil, fmt.Errorf("%w: record %d is not a JSON object", ErrMalformedInput, i)
		}
		var rec RawRecord
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformedInput, i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
