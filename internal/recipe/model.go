package recipe

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// RawRecord is one loosely typed entry of a bulk import document. Values are
// kept as raw JSON so the normalizer can coerce them field by field.
type RawRecord map[string]json.RawMessage

// Recipe represents a stored row of the recipes table.
type Recipe struct {
	ID          int64     `json:"id" db:"id"`
	Cuisine     string    `json:"cuisine" db:"cuisine"`
	Title       string    `json:"title" db:"title"`
	Rating      *float64  `json:"rating" db:"rating"`
	PrepTime    int64     `json:"prep_time" db:"prep_time"`
	CookTime    int64     `json:"cook_time" db:"cook_time"`
	TotalTime   int64     `json:"total_time" db:"total_time"`
	Description *string   `json:"description" db:"description"`
	Nutrients   Nutrients `json:"nutrients" db:"nutrients"`
	Serves      *string   `json:"serves" db:"serves"`
	Calories    *float64  `json:"calories" db:"calories"`
}

// Row is the normalized, storage-shaped form of a RawRecord.
type Row struct {
	Cuisine     string
	Title       string
	Rating      *float64
	PrepTime    int64
	CookTime    int64
	TotalTime   int64
	Description *string
	Nutrients   Nutrients
	Serves      *string
}

// Args returns the row values in insert column order.
func (r Row) Args() []any {
	return []any{
		r.Cuisine,
		r.Title,
		r.Rating,
		r.PrepTime,
		r.CookTime,
		r.TotalTime,
		r.Description,
		r.Nutrients,
		r.Serves,
	}
}

// ListItem is a row of the newest-first listing.
type ListItem struct {
	ID        int64    `json:"id" db:"id"`
	Title     string   `json:"title" db:"title"`
	Cuisine   string   `json:"cuisine" db:"cuisine"`
	Rating    *float64 `json:"rating" db:"rating"`
	TotalTime int64    `json:"total_time" db:"total_time"`
	Calories  *float64 `json:"calories" db:"calories"`
}

// RatedItem is a row of the rating-ordered listing.
type RatedItem struct {
	ID        int64    `json:"id" db:"id"`
	Title     string   `json:"title" db:"title"`
	Cuisine   string   `json:"cuisine" db:"cuisine"`
	Rating    *float64 `json:"rating" db:"rating"`
	TotalTime int64    `json:"total_time" db:"total_time"`
}

// SearchItem is a row of a filtered search.
type SearchItem struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Cuisine     string    `json:"cuisine" db:"cuisine"`
	Rating      *float64  `json:"rating" db:"rating"`
	PrepTime    int64     `json:"prep_time" db:"prep_time"`
	CookTime    int64     `json:"cook_time" db:"cook_time"`
	TotalTime   int64     `json:"total_time" db:"total_time"`
	Description *string   `json:"description" db:"description"`
	Nutrients   Nutrients `json:"nutrients" db:"nutrients"`
	Calories    *float64  `json:"calories" db:"calories"`
}

// ListPage is the result of List. Count is the number of rows on the page.
type ListPage struct {
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
	Count int        `json:"count"`
	Data  []ListItem `json:"data"`
}

// RatedPage is the result of ListByRating.
type RatedPage struct {
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
	Total int64       `json:"total"`
	Data  []RatedItem `json:"data"`
}

// SearchPage is the result of Search. Total counts every matching row.
type SearchPage struct {
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Total int64        `json:"total"`
	Data  []SearchItem `json:"data"`
}

// Nutrients holds the serialized nutrient mapping of a recipe. The zero value
// is NULL.
type Nutrients struct {
	Text  string
	Valid bool
}

// NewNutrients returns a non-null Nutrients holding text.
func NewNutrients(text string) Nutrients {
	return Nutrients{Text: text, Valid: true}
}

// Scan implements sql.Scanner.
func (n *Nutrients) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*n = Nutrients{}
	case string:
		*n = NewNutrients(v)
	case []byte:
		*n = NewNutrients(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Nutrients", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (n Nutrients) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Text, nil
}

// MarshalJSON emits the stored mapping as structured JSON. Text that does not
// parse as JSON is emitted as a plain string instead of failing the response.
func (n Nutrients) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	if json.Valid([]byte(n.Text)) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(n.Text)); err == nil {
			return buf.Bytes(), nil
		}
	}
	return json.Marshal(n.Text)
}

// UnmarshalJSON stores any JSON value verbatim; null clears it.
func (n *Nutrients) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*n = Nutrients{}
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return err
	}
	*n = NewNutrients(buf.String())
	return nil
}

// Map decodes the stored text into a mapping. ok is false when the value is
// NULL or not a JSON object.
func (n Nutrients) Map() (m map[string]any, ok bool) {
	if !n.Valid {
		return nil, false
	}
	if err := json.Unmarshal([]byte(n.Text), &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}
