// Package app wires the loaders, the compiler and the evaluator into the
// command-line application: it owns configuration, logger construction and
// the top-level run sequence.
package app
