// Package testutil holds small helpers shared by the package test suites.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/vk/qresgo/internal/ctxlog"
	"github.com/vk/qresgo/internal/symexpr"
)

// MustExpr parses src (a string or number) through the engine, failing the
// test on error.
func MustExpr(t *testing.T, en *symexpr.Engine, src any) symexpr.Expr {
	t.Helper()
	e, err := en.AsExpression(src)
	if err != nil {
		t.Fatalf("AsExpression(%v): %v", src, err)
	}
	return e
}

// ExprPtr is MustExpr returning a pointer, for port sizes.
func ExprPtr(t *testing.T, en *symexpr.Engine, src any) *symexpr.Expr {
	t.Helper()
	e := MustExpr(t, en, src)
	return &e
}

// QuietContext returns a context carrying a logger that discards everything,
// so library warnings do not pollute test output.
func QuietContext() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}
