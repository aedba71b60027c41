package store

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Selector matches decoded documents. Build one with Eq, Ne, Gt, Gte, Lt,
// Lte, In and And.
type Selector interface {
	match(doc map[string]any) bool
	fields() []string
	String() string
}

// Query selects, orders and limits the records of one collection. The zero
// Query returns every record ordered by primary key.
type Query struct {
	Where  Selector
	SortBy string
	Desc   bool
	Limit  int
}

type opKind int

const (
	opEq opKind = iota
	opNe
	opGt
	opGte
	opLt
	opLte
)

var opNames = map[opKind]string{opEq: "=", opNe: "!=", opGt: ">", opGte: ">=", opLt: "<", opLte: "<="}

type fieldSelector struct {
	field string
	op    opKind
	value any
}

// Eq matches records whose field equals value. Eq(field, nil) matches
// records where the field is absent.
func Eq(field string, value any) Selector { return fieldSelector{field, opEq, normalize(value)} }

// Ne matches records whose field differs from value, including records
// without the field.
func Ne(field string, value any) Selector { return fieldSelector{field, opNe, normalize(value)} }

func Gt(field string, value any) Selector  { return fieldSelector{field, opGt, normalize(value)} }
func Gte(field string, value any) Selector { return fieldSelector{field, opGte, normalize(value)} }
func Lt(field string, value any) Selector  { return fieldSelector{field, opLt, normalize(value)} }
func Lte(field string, value any) Selector { return fieldSelector{field, opLte, normalize(value)} }

func (s fieldSelector) match(doc map[string]any) bool {
	got := doc[s.field]
	switch s.op {
	case opEq:
		return equal(got, s.value)
	case opNe:
		return !equal(got, s.value)
	}
	c, ok := compare(got, s.value)
	if !ok {
		return false
	}
	switch s.op {
	case opGt:
		return c > 0
	case opGte:
		return c >= 0
	case opLt:
		return c < 0
	case opLte:
		return c <= 0
	}
	return false
}

func (s fieldSelector) fields() []string { return []string{s.field} }

func (s fieldSelector) String() string {
	return fmt.Sprintf("%s %s %v", s.field, opNames[s.op], s.value)
}

type inSelector struct {
	field  string
	values []any
}

// In matches records whose field equals any of values.
func In(field string, values ...any) Selector {
	norm := make([]any, len(values))
	for i, v := range values {
		norm[i] = normalize(v)
	}
	return inSelector{field: field, values: norm}
}

func (s inSelector) match(doc map[string]any) bool {
	got := doc[s.field]
	for _, v := range s.values {
		if equal(got, v) {
			return true
		}
	}
	return false
}

func (s inSelector) fields() []string { return []string{s.field} }

func (s inSelector) String() string { return fmt.Sprintf("%s in %v", s.field, s.values) }

type andSelector []Selector

// And matches records matching every selector. And() matches everything.
func And(selectors ...Selector) Selector { return andSelector(selectors) }

func (s andSelector) match(doc map[string]any) bool {
	for _, sel := range s {
		if sel != nil && !sel.match(doc) {
			return false
		}
	}
	return true
}

func (s andSelector) fields() []string {
	var out []string
	for _, sel := range s {
		if sel != nil {
			out = append(out, sel.fields()...)
		}
	}
	return out
}

func (s andSelector) String() string {
	parts := make([]string, 0, len(s))
	for _, sel := range s {
		if sel != nil {
			parts = append(parts, sel.String())
		}
	}
	return "(" + strings.Join(parts, " and ") + ")"
}

// normalize maps a Go value to its JSON-decoded form, so typed strings and
// any integer kind compare like stored values.
func normalize(v any) any {
	switch x := v.(type) {
	case nil, string, float64, bool:
		return x
	}
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	c, ok := compare(a, b)
	return ok && c == 0
}

// compare orders two values of the same JSON kind.
func compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if x == y {
			return 0, true
		}
		if !x {
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

// apply filters, sorts and limits docs, which arrive ordered by primary key.
func (q Query) apply(docs []map[string]any) []map[string]any {
	out := docs
	if q.Where != nil {
		out = make([]map[string]any, 0, len(docs))
		for _, doc := range docs {
			if q.Where.match(doc) {
				out = append(out, doc)
			}
		}
	}

	if q.SortBy != "" {
		// Stable over primary-key order; records missing the field sort last.
		sort.SliceStable(out, func(i, j int) bool {
			a, aok := out[i][q.SortBy]
			b, bok := out[j][q.SortBy]
			if !aok || !bok {
				return aok && !bok
			}
			c, ok := compare(a, b)
			if !ok {
				return false
			}
			if q.Desc {
				return c > 0
			}
			return c < 0
		})
	} else if q.Desc {
		slices.Reverse(out)
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func (q Query) fields() []string {
	var out []string
	if q.Where != nil {
		out = append(out, q.Where.fields()...)
	}
	if q.SortBy != "" {
		out = append(out, q.SortBy)
	}
	return out
}
