package integrationtests

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/qresgo/internal/app"
	"github.com/vk/qresgo/internal/cli"
)

// The whole command path: argument parsing, file loading, compilation,
// evaluation and printing.
func TestCLIFlow_ParseToRun(t *testing.T) {
	t.Parallel()

	src := `
routine "adder" {
  input_params = ["N"]

  linked_params = {
    N = ["maj.x"]
  }

  routine "maj" {
    input_params = ["x"]

    resource "toffoli" {
      type  = "additive"
      value = "3*x"
    }
  }
}
`
	path := filepath.Join(t.TempDir(), "adder.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	var usage bytes.Buffer
	config, shouldExit, err := cli.Parse(
		[]string{"-param", "N=2", "-format", "text", "-log-level", "error", path}, &usage)
	require.NoError(t, err)
	require.False(t, shouldExit)

	var out bytes.Buffer
	a := app.NewApp(&out, io.Discard, config)
	require.NoError(t, a.Run(context.Background()))

	assert.Contains(t, out.String(), "routine adder")
	assert.Contains(t, out.String(), "toffoli")
	assert.Contains(t, out.String(), "6")
}
