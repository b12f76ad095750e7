package model

// ConstraintStatus tracks the resolution state of a size constraint.
type ConstraintStatus string

const (
	// Inconclusive constraints still contain free symbols after
	// substitution and are carried forward for downstream consumers.
	Inconclusive ConstraintStatus = "inconclusive"
	// Satisfied constraints folded to an exact equality and are dropped
	// from compiled routines.
	Satisfied ConstraintStatus = "satisfied"
	// Violated constraints folded to a nonzero difference; compilation
	// aborts before a violated constraint is ever stored.
	Violated ConstraintStatus = "violated"
)

func (s ConstraintStatus) String() string { return string(s) }

// Constraint is an equality the compiler must assert, recorded with its
// resolution status.
type Constraint[T any] struct {
	LHS    T
	RHS    T
	Status ConstraintStatus
}
