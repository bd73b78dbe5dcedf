package recipe

import (
	"strconv"
	"strings"
)

// Pagination bounds.
const (
	MaxLimit = 200

	DefaultListLimit   = 25
	DefaultRatedLimit  = 10
	DefaultSearchLimit = 10

	// maxPage keeps the offset well inside int64.
	maxPage = 1 << 30
)

// Pagination is a validated page/limit pair.
type Pagination struct {
	Page  int
	Limit int
}

// NewPagination builds a Pagination from raw query values. Missing or
// unparseable values take the defaults (page 1, defaultLimit); numbers out
// of range are clamped to 1 <= page <= 2^30 and 1 <= limit <= MaxLimit.
func NewPagination(page, limit string, defaultLimit int) Pagination {
	p := Pagination{Page: 1, Limit: defaultLimit}
	if n, ok := parseInt(page); ok {
		p.Page = min(max(n, 1), maxPage)
	}
	if n, ok := parseInt(limit); ok {
		p.Limit = min(max(n, 1), MaxLimit)
	}
	return p
}

// Offset is the number of rows skipped before the page starts.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
