package model

import "fmt"

// ConstructionError reports a structurally invalid routine tree, such as a
// children/children_order mismatch or a malformed endpoint reference. It is
// raised at build/validation time, before any compilation begins.
type ConstructionError struct {
	Path   string
	Reason string
}

func (e *ConstructionError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid routine: %s", e.Reason)
	}
	return fmt.Sprintf("invalid routine at %s: %s", e.Path, e.Reason)
}

func constructionErrorf(path, format string, args ...any) error {
	return &ConstructionError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
