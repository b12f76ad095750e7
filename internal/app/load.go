package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/qresgo/internal/hcl_adapter"
	"github.com/vk/qresgo/internal/model"
	"github.com/vk/qresgo/internal/schema"
	"github.com/vk/qresgo/internal/symbolic"
)

// loadRoutine reads and translates a routine definition, choosing the loader
// by file extension: .hcl for the HCL format, .json for the interchange
// format.
func loadRoutine[T any](ctx context.Context, path string, b symbolic.Backend[T]) (*model.Routine[T], error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		s, err := hcl_adapter.NewLoader().Load(ctx, path)
		if err != nil {
			return nil, err
		}
		r, err := schema.Decode(s, b)
		if err != nil {
			return nil, err
		}
		if err := r.Validate(); err != nil {
			return nil, err
		}
		return r, nil
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return schema.ImportJSON(data, b)
	default:
		return nil, fmt.Errorf("unsupported routine file extension %q: want .hcl or .json", filepath.Ext(path))
	}
}
