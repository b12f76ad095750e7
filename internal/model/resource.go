package model

// ResourceType governs how preprocessing aggregates same-named resources
// found only on children.
type ResourceType string

const (
	// Additive resources sum across children.
	Additive ResourceType = "additive"
	// Multiplicative resources multiply across children.
	Multiplicative ResourceType = "multiplicative"
	// Qubits marks qubit-count resources; no automatic aggregation.
	Qubits ResourceType = "qubits"
	// Other is the catch-all type; no automatic aggregation.
	Other ResourceType = "other"
)

// Valid reports whether the type is one of the known values.
func (t ResourceType) Valid() bool {
	switch t {
	case Additive, Multiplicative, Qubits, Other:
		return true
	}
	return false
}

func (t ResourceType) String() string { return string(t) }

// Resource is a named, typed, symbolically valued cost quantity attached to
// a routine.
type Resource[T any] struct {
	Name  string
	Type  ResourceType
	Value T
}

// Clone returns an independent copy of the resource.
func (r *Resource[T]) Clone() *Resource[T] {
	cp := *r
	return &cp
}

func (r *Resource[T]) validate(path string) error {
	if r.Name == "" {
		return constructionErrorf(path, "resource with empty name")
	}
	if !r.Type.Valid() {
		return constructionErrorf(path, "resource %q has invalid type %q", r.Name, r.Type)
	}
	return nil
}

// ResourceRef is the dotted name under which a child's resource is visible
// from its parent, e.g. "adder.N_toffs".
func ResourceRef(childName, resourceName string) string {
	return childName + "." + resourceName
}
