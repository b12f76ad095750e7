package compile

import "fmt"

// Error is a hard compilation failure: a violated size constraint, a cyclic
// dependency among local variables or children, a shadowed repetition
// symbol, or a failed pre-compilation verification. It always carries the
// routine path where compilation stopped.
type Error struct {
	Path   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("compilation failed: %s", e.Reason)
	}
	return fmt.Sprintf("compilation failed at %s: %s", e.Path, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

func errorf(path string, format string, args ...any) *Error {
	return &Error{Path: path, Reason: fmt.Sprintf(format, args...)}
}

func wrapf(path string, err error, format string, args ...any) *Error {
	return &Error{Path: path, Reason: fmt.Sprintf(format, args...) + ": " + err.Error(), Err: err}
}
