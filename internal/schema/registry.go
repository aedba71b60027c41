package schema

import (
	"errors"
	"fmt"
	"slices"
)

// Registry holds descriptors by collection name, in registration order.
type Registry struct {
	order       []string
	descriptors map[string]Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{descriptors: make(map[string]Descriptor)}
}

// Register adds d. Registering a name twice is an error.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return errors.New("schema: descriptor has no name")
	}
	if _, ok := r.descriptors[d.Name]; ok {
		return fmt.Errorf("schema: collection %q already registered", d.Name)
	}
	r.descriptors[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// Get returns the descriptor for name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	d, ok := r.descriptors[name]
	return d, ok
}

// Names lists registered collections in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// Referrer is a field in one collection that points at another collection.
type Referrer struct {
	Collection string
	Field      string
}

// Referrers lists every field across the registry whose Ref is target.
func (r *Registry) Referrers(target string) []Referrer {
	var out []Referrer
	for _, name := range r.order {
		d := r.descriptors[name]
		fields := make([]string, 0)
		for field, ref := range d.Refs() {
			if ref == target {
				fields = append(fields, field)
			}
		}
		slices.Sort(fields)
		for _, f := range fields {
			out = append(out, Referrer{Collection: name, Field: f})
		}
	}
	return out
}

// Check verifies every descriptor is well formed: a declared string primary
// key, compilable patterns, required/index/comparison fields that exist, and
// refs that point at registered collections. All problems are joined.
func (r *Registry) Check() error {
	var errs []error
	for _, name := range r.order {
		d := r.descriptors[name]
		pk, ok := d.Properties[d.PrimaryKey]
		if d.PrimaryKey == "" || !ok {
			errs = append(errs, fmt.Errorf("%s: primary key %q is not a declared property", name, d.PrimaryKey))
		} else if pk.Type != TypeString {
			errs = append(errs, fmt.Errorf("%s: primary key %q must be a string", name, d.PrimaryKey))
		}
		for field, p := range d.Properties {
			if p.Type != TypeString && p.Type != TypeNumber {
				errs = append(errs, fmt.Errorf("%s.%s: unsupported type %q", name, field, p.Type))
			}
			if p.Pattern != "" {
				if _, err := compilePattern(p.Pattern); err != nil {
					errs = append(errs, fmt.Errorf("%s.%s: %w", name, field, err))
				}
			}
			if p.MultipleOf < 0 {
				errs = append(errs, fmt.Errorf("%s.%s: multipleOf must be positive", name, field))
			}
			if p.Ref != "" {
				if _, ok := r.descriptors[p.Ref]; !ok {
					errs = append(errs, fmt.Errorf("%s.%s: ref to unknown collection %q", name, field, p.Ref))
				}
			}
		}
		for _, f := range d.Required {
			if _, ok := d.Properties[f]; !ok {
				errs = append(errs, fmt.Errorf("%s: required field %q is not declared", name, f))
			}
		}
		for _, f := range d.Indexes {
			if _, ok := d.Properties[f]; !ok {
				errs = append(errs, fmt.Errorf("%s: index field %q is not declared", name, f))
			}
		}
		for _, c := range d.Comparisons {
			for _, f := range []string{c.Left, c.Right} {
				if p, ok := d.Properties[f]; !ok || p.Type != TypeNumber {
					errs = append(errs, fmt.Errorf("%s: comparison field %q must be a declared number", name, f))
				}
			}
		}
	}
	return errors.Join(errs...)
}
