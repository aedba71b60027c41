package schema

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/boddenberg/finance-store-go/internal/domain"
)

// Violation is re-exported so callers of this package need not import domain.
type Violation = domain.Violation

// Rule names reported in violations.
const (
	RuleRequired   = "required"
	RuleType       = "type"
	RuleMinLength  = "minLength"
	RuleMaxLength  = "maxLength"
	RulePattern    = "pattern"
	RuleEnum       = "enum"
	RuleMinimum    = "minimum"
	RuleMaximum    = "maximum"
	RuleMultipleOf = "multipleOf"
	RuleUnknown    = "additionalProperties"
	RuleCompare    = "comparison"
	// Store-level rules: a ref that must resolve, a field a patch may not change.
	RuleRef       = "ref"
	RuleImmutable = "immutable"
)

// stepULPs is how many units in the last place a value may sit from the
// nearest exact multiple of its step.
const stepULPs = 2

var patterns sync.Map // pattern string -> *regexp.Regexp

func compilePattern(p string) (*regexp.Regexp, error) {
	if re, ok := patterns.Load(p); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, err
	}
	patterns.Store(p, re)
	return re, nil
}

// Validate checks doc against d. doc holds JSON-decoded values: strings,
// float64 numbers, nil. Violations are ordered by field name.
func Validate(doc map[string]any, d Descriptor) Result {
	var out []Violation

	for _, name := range d.Required {
		if v, ok := doc[name]; !ok || v == nil {
			out = append(out, Violation{Field: name, Rule: RuleRequired, Message: "is required"})
		}
	}

	fields := make([]string, 0, len(doc))
	for k := range doc {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	for _, name := range fields {
		value := doc[name]
		prop, ok := d.Properties[name]
		if !ok {
			out = append(out, Violation{Field: name, Rule: RuleUnknown, Message: "is not a declared property"})
			continue
		}
		if value == nil {
			continue
		}
		out = append(out, checkProperty(name, value, prop)...)
	}

	for _, c := range d.Comparisons {
		if v, ok := compareFields(doc, c); ok && !v {
			out = append(out, Violation{
				Field:   c.Left,
				Rule:    RuleCompare,
				Message: fmt.Sprintf("must be %s %s", c.Op, c.Right),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return Result{Valid: len(out) == 0, Violations: out}
}

func checkProperty(name string, value any, p Property) []Violation {
	switch p.Type {
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return []Violation{{Field: name, Rule: RuleType, Message: "must be a string"}}
		}
		return checkString(name, s, p)
	case TypeNumber:
		f, ok := value.(float64)
		if !ok {
			return []Violation{{Field: name, Rule: RuleType, Message: "must be a number"}}
		}
		return checkNumber(name, f, p)
	default:
		return []Violation{{Field: name, Rule: RuleType, Message: fmt.Sprintf("unsupported schema type %q", p.Type)}}
	}
}

func checkString(name, s string, p Property) []Violation {
	var out []Violation
	n := utf8.RuneCountInString(s)
	if p.MinLength != nil && n < *p.MinLength {
		out = append(out, Violation{Field: name, Rule: RuleMinLength, Message: fmt.Sprintf("length must be >= %d", *p.MinLength)})
	}
	if p.MaxLength != nil && n > *p.MaxLength {
		out = append(out, Violation{Field: name, Rule: RuleMaxLength, Message: fmt.Sprintf("length must be <= %d", *p.MaxLength)})
	}
	if p.Pattern != "" {
		re, err := compilePattern(p.Pattern)
		switch {
		case err != nil:
			out = append(out, Violation{Field: name, Rule: RulePattern, Message: "invalid pattern: " + err.Error()})
		case !re.MatchString(s):
			out = append(out, Violation{Field: name, Rule: RulePattern, Message: fmt.Sprintf("must match %s", p.Pattern)})
		}
	}
	if len(p.Enum) > 0 && !slices.Contains(p.Enum, s) {
		out = append(out, Violation{Field: name, Rule: RuleEnum, Message: fmt.Sprintf("must be one of %v", p.Enum)})
	}
	return out
}

func checkNumber(name string, f float64, p Property) []Violation {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []Violation{{Field: name, Rule: RuleType, Message: "must be finite"}}
	}
	var out []Violation
	if p.Minimum != nil && f < *p.Minimum {
		out = append(out, Violation{Field: name, Rule: RuleMinimum, Message: fmt.Sprintf("must be >= %v", *p.Minimum)})
	}
	if p.Maximum != nil && f > *p.Maximum {
		out = append(out, Violation{Field: name, Rule: RuleMaximum, Message: fmt.Sprintf("must be <= %v", *p.Maximum)})
	}
	if p.MultipleOf > 0 && !IsMultipleOf(f, p.MultipleOf) {
		out = append(out, Violation{Field: name, Rule: RuleMultipleOf, Message: fmt.Sprintf("must be a multiple of %v", p.MultipleOf)})
	}
	return out
}

// IsMultipleOf reports whether v is an integer multiple of step. The nearest
// multiple is computed exactly in decimal; v may differ from it only by the
// float64 rounding of that multiple (0.1+0.2 is a multiple of 0.01,
// 999999999.0005 is not).
func IsMultipleOf(v, step float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	d := decimal.NewFromFloat(v)
	s := decimal.NewFromFloat(step)
	if d.Mod(s).IsZero() {
		return true
	}
	nearest, _ := d.Div(s).Round(0).Mul(s).Float64()
	a := math.Abs(v)
	ulp := math.Nextafter(a, math.Inf(1)) - a
	return math.Abs(v-nearest) <= stepULPs*ulp
}

// compareFields returns (result, evaluated).
func compareFields(doc map[string]any, c Comparison) (bool, bool) {
	l, lok := doc[c.Left].(float64)
	r, rok := doc[c.Right].(float64)
	if !lok || !rok {
		return false, false
	}
	switch c.Op {
	case OpLess:
		return l < r, true
	case OpLessOrEqual:
		return l <= r, true
	}
	return false, false
}
