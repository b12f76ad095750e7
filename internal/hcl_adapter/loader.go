// Package hcl_adapter loads routine trees from HCL files. It decodes the
// block structure with gohcl and translates it into the interchange schema,
// which handles the backend-specific expression parsing.
package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/qresgo/internal/ctxlog"
	"github.com/vk/qresgo/internal/schema"
)

// Loader parses routine definition files written in HCL.
type Loader struct{}

// NewLoader creates a new HCL routine loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses the file at path. The file must contain exactly one top-level
// routine block; everything else nests inside it.
func (l *Loader) Load(ctx context.Context, path string) (*schema.Routine, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return l.decode(ctx, path, hclFile)
}

// LoadBytes parses an in-memory HCL document; filename only labels
// diagnostics.
func (l *Loader) LoadBytes(ctx context.Context, src []byte, filename string) (*schema.Routine, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL %s: %w", filename, diags)
	}
	return l.decode(ctx, filename, hclFile)
}

func (l *Loader) decode(ctx context.Context, name string, hclFile *hcl.File) (*schema.Routine, error) {
	logger := ctxlog.FromContext(ctx)

	var root fileRoot
	diags := gohcl.DecodeBody(hclFile.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL %s: %w", name, diags)
	}
	if len(root.Routines) != 1 {
		return nil, fmt.Errorf("%s: want exactly one top-level routine block, got %d", name, len(root.Routines))
	}

	routine, err := translateRoutine(root.Routines[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	logger.Debug("HCL routine loaded", "file", name, "routine", routine.Name)
	return routine, nil
}
