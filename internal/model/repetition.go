package model

import (
	"fmt"

	"github.com/vk/qresgo/internal/symbolic"
)

// Repetition marks a routine as "its single child, repeated Count times".
// The Sequence describes how the per-iteration cost grows.
//
// A routine carrying a repetition must have exactly one child and no
// resources of its own; verification enforces this.
type Repetition[T any] struct {
	Count    T
	Sequence Sequence[T]
}

// Clone returns an independent copy of the repetition.
func (r *Repetition[T]) Clone() *Repetition[T] {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}

// SequenceSum accumulates a per-iteration additive cost over all Count
// iterations.
func (r *Repetition[T]) SequenceSum(unit T, b symbolic.Backend[T]) (T, error) {
	return r.Sequence.SequenceSum(unit, r.Count, b)
}

// SequenceProd accumulates a per-iteration multiplicative cost over all
// Count iterations.
func (r *Repetition[T]) SequenceProd(unit T, b symbolic.Backend[T]) (T, error) {
	return r.Sequence.SequenceProd(unit, r.Count, b)
}

// ProtectedSymbols returns the symbols the sequence reserves (iterator /
// num-terms symbols). Substituting any of these is a hard error during
// evaluation.
func (r *Repetition[T]) ProtectedSymbols() []string {
	if r == nil || r.Sequence == nil {
		return nil
	}
	return r.Sequence.ProtectedSymbols()
}

// Transform returns a new repetition with fn applied to the count and to
// every expression the sequence carries. Both the compiler and the
// evaluator use it to push substitutions through repetitions.
func (r *Repetition[T]) Transform(fn func(T) (T, error)) (*Repetition[T], error) {
	if r == nil {
		return nil, nil
	}
	count, err := fn(r.Count)
	if err != nil {
		return nil, err
	}
	seq := r.Sequence
	if seq != nil {
		seq, err = seq.transform(fn)
		if err != nil {
			return nil, err
		}
	}
	return &Repetition[T]{Count: count, Sequence: seq}, nil
}

// Sequence is the growth law of a repetition, over 5 kinds: constant,
// arithmetic, geometric, closed_form and custom. The variant set is sealed.
type Sequence[T any] interface {
	Kind() string
	// SequenceSum returns the closed-form sum of the per-iteration cost
	// `unit` scaled by this sequence, over `count` iterations.
	SequenceSum(unit, count T, b symbolic.Backend[T]) (T, error)
	// SequenceProd is the product analog of SequenceSum.
	SequenceProd(unit, count T, b symbolic.Backend[T]) (T, error)
	// ProtectedSymbols lists symbols that must never be substitution
	// targets while this sequence is in scope.
	ProtectedSymbols() []string

	transform(fn func(T) (T, error)) (Sequence[T], error)
}

// ConstantSequence repeats the unit cost with a flat multiplier each
// iteration.
type ConstantSequence[T any] struct {
	Multiplier T
}

func (s ConstantSequence[T]) Kind() string               { return "constant" }
func (s ConstantSequence[T]) ProtectedSymbols() []string { return nil }

func (s ConstantSequence[T]) SequenceSum(unit, count T, b symbolic.Backend[T]) (T, error) {
	term, err := symbolic.Mul(b, s.Multiplier, unit)
	if err != nil {
		return unit, err
	}
	return symbolic.Mul(b, count, term)
}

func (s ConstantSequence[T]) SequenceProd(unit, count T, b symbolic.Backend[T]) (T, error) {
	term, err := symbolic.Mul(b, s.Multiplier, unit)
	if err != nil {
		return unit, err
	}
	return symbolic.Pow(b, term, count)
}

// ArithmeticSequence scales iteration i by InitialTerm + i*Difference.
type ArithmeticSequence[T any] struct {
	InitialTerm T
	Difference  T
}

func (s ArithmeticSequence[T]) Kind() string               { return "arithmetic" }
func (s ArithmeticSequence[T]) ProtectedSymbols() []string { return nil }

/// SequenceSum uses the arithmetic series closed form:
// unit * (count*initial + diff*count*(count-1)/2).
func (s ArithmeticSequence[T]) SequenceSum(unit, count T, b symbolic.Backend[T]) (T, error) {
	expr := fmt.Sprintf("(%s) * ((%s)*(%s) + (%s)*(%s)*((%s) - 1)/2)",
		b.Serialize(unit),
		b.Serialize(count), b.Serialize(s.InitialTerm),
		b.Serialize(s.Difference), b.Serialize(count), b.Serialize(count))
	return b.AsExpression(expr)
}

// SequenceProd expresses the product of the multipliers through the rising
// factorial: unit^count * diff^count * rising_factorial(initial/diff, count).
func (s ArithmeticSequence[T]) SequenceProd(unit, count T, b symbolic.Backend[T]) (T, error) {
	expr := fmt.Sprintf("(%s)^(%s) * (%s)^(%s) * rising_factorial((%s)/(%s), %s)",
		b.Serialize(unit), b.Serialize(count),
		b.Serialize(s.Difference), b.Serialize(count),
		b.Serialize(s.InitialTerm), b.Serialize(s.Difference), b.Serialize(count))
	return b.AsExpression(expr)
}

// GeometricSequence scales iteration i by Ratio^i.
type GeometricSequence[T any] struct {
	Ratio T
}

func (s GeometricSequence[T]) Kind() string               { return "geometric" }
func (s GeometricSequence[T]) ProtectedSymbols() []string { return nil }

/// SequenceSum uses the geometric series closed form:
// unit * (1 - ratio^count) / (1 - ratio).
func (s GeometricSequence[T]) SequenceSum(unit, count T, b symbolic.Backend[T]) (T, error) {
	expr := fmt.Sprintf("(%s) * (1 - (%s)^(%s)) / (1 - (%s))",
		b.Serialize(unit), b.Serialize(s.Ratio), b.Serialize(count), b.Serialize(s.Ratio))
	return b.AsExpression(expr)
}

// SequenceProd: unit^count * ratio^(count*(count-1)/2).
func (s GeometricSequence[T]) SequenceProd(unit, count T, b symbolic.Backend[T]) (T, error) {
	expr := fmt.Sprintf("(%s)^(%s) * (%s)^((%s)*((%s) - 1)/2)",
		b.Serialize(unit), b.Serialize(count),
		b.Serialize(s.Ratio), b.Serialize(count), b.Serialize(count))
	return b.AsExpression(expr)
}

// ClosedFormSequence carries user-supplied closed forms over a num-terms
// symbol. Sum and Prod may independently be nil; invoking the missing
// operation is an error, but a partially specified sequence is legal until
// then.
type ClosedFormSequence[T any] struct {
	Sum            *T
	Prod           *T
	NumTermsSymbol string
}

func (s ClosedFormSequence[T]) Kind() string { return "closed_form" }

func (s ClosedFormSequence[T]) ProtectedSymbols() []string {
	if s.NumTermsSymbol == "" {
		return nil
	}
	return []string{s.NumTermsSymbol}
}

func (s ClosedFormSequence[T]) SequenceSum(unit, count T, b symbolic.Backend[T]) (T, error) {
	if s.Sum == nil {
		return unit, fmt.Errorf("closed-form sequence does not define a sum")
	}
	total, err := b.Substitute(*s.Sum, s.NumTermsSymbol, count)
	if err != nil {
		return unit, err
	}
	return symbolic.Mul(b, unit, total)
}

func (s ClosedFormSequence[T]) SequenceProd(unit, count T, b symbolic.Backend[T]) (T, error) {
	if s.Prod == nil {
		return unit, fmt.Errorf("closed-form sequence does not define a product")
	}
	total, err := b.Substitute(*s.Prod, s.NumTermsSymbol, count)
	if err != nil {
		return unit, err
	}
	return symbolic.Pow(b, unit, total)
}

// CustomSequence scales iteration i by an arbitrary symbolic term indexed
// by an iterator symbol. There is no closed form; the result is an
// uninterpreted Sum/Prod over the iterator range.
type CustomSequence[T any] struct {
	Term           T
	IteratorSymbol string
}

func (s CustomSequence[T]) Kind() string { return "custom" }

func (s CustomSequence[T]) ProtectedSymbols() []string {
	if s.IteratorSymbol == "" {
		return nil
	}
	return []string{s.IteratorSymbol}
}

func (s CustomSequence[T]) SequenceSum(unit, count T, b symbolic.Backend[T]) (T, error) {
	expr := fmt.Sprintf("Sum((%s)*(%s), %s, 0, (%s) - 1)",
		b.Serialize(s.Term), b.Serialize(unit), s.IteratorSymbol, b.Serialize(count))
	return b.AsExpression(expr)
}

func (s CustomSequence[T]) SequenceProd(unit, count T, b symbolic.Backend[T]) (T, error) {
	expr := fmt.Sprintf("Product((%s)*(%s), %s, 0, (%s) - 1)",
		b.Serialize(s.Term), b.Serialize(unit), s.IteratorSymbol, b.Serialize(count))
	return b.AsExpression(expr)
}

func (s ConstantSequence[T]) transform(fn func(T) (T, error)) (Sequence[T], error) {
	m, err := fn(s.Multiplier)
	if err != nil {
		return nil, err
	}
	return ConstantSequence[T]{Multiplier: m}, nil
}

func (s ArithmeticSequence[T]) transform(fn func(T) (T, error)) (Sequence[T], error) {
	initial, err := fn(s.InitialTerm)
	if err != nil {
		return nil, err
	}
	diff, err := fn(s.Difference)
	if err != nil {
		return nil, err
	}
	return ArithmeticSequence[T]{InitialTerm: initial, Difference: diff}, nil
}

func (s GeometricSequence[T]) transform(fn func(T) (T, error)) (Sequence[T], error) {
	ratio, err := fn(s.Ratio)
	if err != nil {
		return nil, err
	}
	return GeometricSequence[T]{Ratio: ratio}, nil
}

func (s ClosedFormSequence[T]) transform(fn func(T) (T, error)) (Sequence[T], error) {
	out := ClosedFormSequence[T]{NumTermsSymbol: s.NumTermsSymbol}
	if s.Sum != nil {
		v, err := fn(*s.Sum)
		if err != nil {
			return nil, err
		}
		out.Sum = &v
	}
	if s.Prod != nil {
		v, err := fn(*s.Prod)
		if err != nil {
			return nil, err
		}
		out.Prod = &v
	}
	return out, nil
}

func (s CustomSequence[T]) transform(fn func(T) (T, error)) (Sequence[T], error) {
	term, err := fn(s.Term)
	if err != nil {
		return nil, err
	}
	return CustomSequence[T]{Term: term, IteratorSymbol: s.IteratorSymbol}, nil
}
