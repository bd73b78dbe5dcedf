package recipe

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Normalize maps a raw import record onto the storage row. It never fails:
// values that cannot be coerced fall back to the per-field default.
//
// rating defaults to NULL so an unrated recipe is distinguishable from one
// rated 0; the *_time fields default to 0.
func Normalize(rec RawRecord) Row {
	return Row{
		Cuisine:     toText(rec["cuisine"]),
		Title:       toText(rec["title"]),
		Rating:      toNumber(rec["rating"]),
		PrepTime:    toMinutes(rec["prep_time"]),
		CookTime:    toMinutes(rec["cook_time"]),
		TotalTime:   toMinutes(rec["total_time"]),
		Description: toNullableText(rec["description"]),
		Nutrients:   toNutrients(rec["nutrients"]),
		Serves:      toNullableText(rec["serves"]),
	}
}

// NormalizeAll normalizes records in order.
func NormalizeAll(records []RawRecord) []Row {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, Normalize(rec))
	}
	return rows
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// toNumber parses a JSON number or numeric string. Absent, empty and
// non-finite values yield nil.
func toNumber(raw json.RawMessage) *float64 {
	if isNull(raw) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}

	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func toMinutes(raw json.RawMessage) int64 {
	f := toNumber(raw)
	if f == nil {
		return 0
	}
	t := math.Trunc(*f)
	if t > math.MaxInt64 || t < math.MinInt64 {
		return 0
	}
	return int64(t)
}

func toText(raw json.RawMessage) string {
	if s := toNullableText(raw); s != nil {
		return *s
	}
	return ""
}

// toNullableText returns strings as-is and any other JSON value as its
// compact JSON text.
func toNullableText(raw json.RawMessage) *string {
	if isNull(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil
	}
	text := buf.String()
	return &text
}

// toNutrients keeps the value verbatim, key order included. Falsy values
// (null, false, 0, "") are stored as NULL.
func toNutrients(raw json.RawMessage) Nutrients {
	if isNull(raw) {
		return Nutrients{}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return Nutrients{}
	}
	switch text := buf.String(); text {
	case "false", `""`:
		return Nutrients{}
	default:
		if f, err := strconv.ParseFloat(text, 64); err == nil && f == 0 {
			return Nutrients{}
		}
		return NewNutrients(text)
	}
}
