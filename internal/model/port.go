package model

// Direction classifies how a port participates in a routine's data flow.
type Direction string

const (
	Input   Direction = "input"
	Output  Direction = "output"
	Through Direction = "through"
)

// Valid reports whether the direction is one of the three known values.
func (d Direction) Valid() bool {
	switch d {
	case Input, Output, Through:
		return true
	}
	return false
}

// Port is a named I/O boundary of a routine with a symbolic size. A nil
// Size means "derive from context": the size is expected to arrive through
// a connection during compilation.
type Port[T any] struct {
	Name      string
	Direction Direction
	Size      *T
}

// PortSymbol is the canonical size symbol for a port, e.g. "#in_data".
// After the port-variable preprocessing stage every non-output port's size
// is exactly this symbol.
func PortSymbol(portName string) string { return "#" + portName }

// Clone returns an independent copy of the port.
func (p *Port[T]) Clone() *Port[T] {
	cp := *p
	if p.Size != nil {
		size := *p.Size
		cp.Size = &size
	}
	return &cp
}

func (p *Port[T]) validate(path string) error {
	if p.Name == "" {
		return constructionErrorf(path, "port with empty name")
	}
	if !p.Direction.Valid() {
		return constructionErrorf(path, "port %q has invalid direction %q", p.Name, p.Direction)
	}
	return nil
}

// IsOutput reports whether the port is consumed forward rather than acting
// as a free parameter.
func (p *Port[T]) IsOutput() bool { return p.Direction == Output }

func (d Direction) String() string { return string(d) }
