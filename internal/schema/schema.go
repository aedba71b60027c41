// Package schema holds declarative field-level rules for each record kind
// and a generic validator that interprets them. Descriptors are plain data;
// Validate is pure and synchronous.
package schema

// Type is the JSON type a property must hold.
type Type string

const (
	TypeString Type = "string"
	TypeNumber Type = "number"
)

// Op compares two numeric fields of the same record.
type Op string

const (
	OpLess        Op = "<"
	OpLessOrEqual Op = "<="
)

// Property describes one field. Zero values mean "no constraint".
type Property struct {
	Type       Type
	MinLength  *int
	MaxLength  *int
	Pattern    string
	Enum       []string
	Minimum    *float64
	Maximum    *float64
	MultipleOf float64
	// Ref names the collection whose primary key this field must match.
	// The validator does not resolve refs; the store does.
	Ref string
}

// Comparison is a cross-field rule such as startDate < endDate.
// It is only evaluated when both fields are present.
type Comparison struct {
	Left  string
	Op    Op
	Right string
}

// Descriptor is the full schema for one record kind.
type Descriptor struct {
	Name        string
	PrimaryKey  string
	Properties  map[string]Property
	Required    []string
	Indexes     []string
	Comparisons []Comparison
}

// Result is the outcome of Validate.
type Result struct {
	Valid      bool
	Violations []Violation
}

// Refs returns field -> target collection for every property with a Ref.
func (d Descriptor) Refs() map[string]string {
	refs := make(map[string]string)
	for name, p := range d.Properties {
		if p.Ref != "" {
			refs[name] = p.Ref
		}
	}
	return refs
}

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }
