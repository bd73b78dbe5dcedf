package recipe

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Filter names recognized by BuildPredicate.
const (
	FilterTitle     = "title"
	FilterCuisine   = "cuisine"
	FilterRating    = "rating"
	FilterTotalTime = "total_time"
	FilterCalories  = "calories"
)

var filterNames = []string{FilterCalories, FilterTitle, FilterCuisine, FilterTotalTime, FilterRating}

// Filters maps a filter name to its raw request value. A Filters value is
// built per request and never shared.
type Filters map[string]string

// FiltersFromQuery picks the recognized filters out of URL query values.
func FiltersFromQuery(q url.Values) Filters {
	f := make(Filters)
	for _, name := range filterNames {
		if v, ok := q[name]; ok && len(v) > 0 {
			f[name] = v[0]
		}
	}
	return f
}

// Comparison is a parsed "<op><number>" filter value.
type Comparison struct {
	Op    string
	Value float64
}

var comparisonPattern = regexp.MustCompile(`^\s*(<=|>=|=|<|>)?\s*(\S+)\s*$`)

// ParseComparison parses values such as ">=4.5", "< 30" or "4.5". A missing
// operator means "=". ok is false for anything else, including non-finite
// numbers; callers drop such filters instead of failing the request.
func ParseComparison(raw string) (c Comparison, ok bool) {
	m := comparisonPattern.FindStringSubmatch(raw)
	if m == nil {
		return Comparison{}, false
	}
	op := m[1]
	if op == "" {
		op = "="
	}
	v, err := strconv.ParseFloat(m[2], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Comparison{}, false
	}
	return Comparison{Op: op, Value: v}, true
}

// Predicate is a conjunction of SQL conditions with their bound arguments.
type Predicate struct {
	Conditions []string
	Args       []any
}

// Where renders the predicate as a WHERE clause, or "" when it is empty.
func (p Predicate) Where() string {
	if len(p.Conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(p.Conditions, " AND ")
}

func (p *Predicate) add(cond string, arg any) {
	p.Conditions = append(p.Conditions, cond)
	p.Args = append(p.Args, arg)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// BuildPredicate translates filters into parameterized conditions. Unknown
// names, blank text filters and unparseable comparisons are ignored.
func BuildPredicate(f Filters, d dialect) Predicate {
	var p Predicate

	if c, ok := ParseComparison(f[FilterCalories]); ok {
		p.add(d.calories+" "+c.Op+" CAST(? AS DOUBLE PRECISION)", c.Value)
	}
	if title := strings.TrimSpace(f[FilterTitle]); title != "" {
		p.add(`LOWER(title) LIKE LOWER(?) ESCAPE '\'`, "%"+likeEscaper.Replace(title)+"%")
	}
	if cuisine := strings.TrimSpace(f[FilterCuisine]); cuisine != "" {
		p.add("LOWER(cuisine) = LOWER(?)", cuisine)
	}
	if c, ok := ParseComparison(f[FilterTotalTime]); ok {
		p.add("total_time "+c.Op+" CAST(? AS DOUBLE PRECISION)", c.Value)
	}
	if c, ok := ParseComparison(f[FilterRating]); ok {
		p.add("rating "+c.Op+" CAST(? AS DOUBLE PRECISION)", c.Value)
	}
	return p
}
