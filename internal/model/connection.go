package model

import "strings"

// Endpoint identifies one side of a connection. An empty Routine refers to
// a port of the enclosing routine itself; a non-empty Routine names a
// direct child.
type Endpoint struct {
	Routine string
	Port    string
}

// ParseEndpoint parses "port" (own port) or "child.port" (child port).
func ParseEndpoint(s string) (Endpoint, error) {
	switch parts := strings.Split(s, "."); len(parts) {
	case 1:
		if parts[0] == "" {
			return Endpoint{}, constructionErrorf("", "empty endpoint")
		}
		return Endpoint{Port: parts[0]}, nil
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return Endpoint{}, constructionErrorf("", "malformed endpoint %q", s)
		}
		return Endpoint{Routine: parts[0], Port: parts[1]}, nil
	default:
		return Endpoint{}, constructionErrorf("", "malformed endpoint %q: at most one dot allowed", s)
	}
}

// String renders the endpoint in the same notation ParseEndpoint accepts.
func (e Endpoint) String() string {
	if e.Routine == "" {
		return e.Port
	}
	return e.Routine + "." + e.Port
}

// IsOwn reports whether the endpoint refers to the enclosing routine's own
// port rather than a child's.
func (e Endpoint) IsOwn() bool { return e.Routine == "" }
