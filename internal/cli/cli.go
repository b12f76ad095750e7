package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/qresgo/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// paramFlags collects repeated -param NAME=VALUE bindings.
type paramFlags map[string]string

func (p paramFlags) String() string {
	parts := make([]string, 0, len(p))
	for name, value := range p {
		parts = append(parts, name+"="+value)
	}
	return strings.Join(parts, ",")
}

func (p paramFlags) Set(raw string) error {
	name, value, ok := strings.Cut(raw, "=")
	if !ok || name == "" {
		return fmt.Errorf("want NAME=VALUE, got %q", raw)
	}
	if _, dup := p[name]; dup {
		return fmt.Errorf("parameter %q bound twice", name)
	}
	p[name] = value
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("qresgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
qresgo - A compiler for hierarchical symbolic quantum-resource estimates.

Usage:
  qresgo [options] [ROUTINE_PATH]

Arguments:
  ROUTINE_PATH
    Path to a routine definition, either a .hcl or a .json file.

Options:
`)
		flagSet.PrintDefaults()
	}

	routineFlag := flagSet.String("routine", "", "Path to the routine definition file.")
	rFlag := flagSet.String("r", "", "Path to the routine definition file (shorthand).")
	params := paramFlags{}
	flagSet.Var(params, "param", "Bind an input parameter, NAME=VALUE. Repeatable.")
	formatFlag := flagSet.String("format", "text", "Output format. Options: 'text' or 'json'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	skipVerificationFlag := flagSet.Bool("skip-verification", false, "Skip the pre-compilation verification gate.")
	highwaterFlag := flagSet.Bool("highwater", false, "Also report the derived qubit highwater resource.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *routineFlag != "" {
		path = *routineFlag
	} else if *rFlag != "" {
		path = *rFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Routine path determined.", "path", path)

	if path == "" {
		slog.Debug("No routine path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	format := strings.ToLower(*formatFlag)
	if format != "text" && format != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid format: must be 'text' or 'json'"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		RoutinePath:      path,
		Params:           params,
		Format:           format,
		LogFormat:        logFormat,
		LogLevel:         logLevel,
		SkipVerification: *skipVerificationFlag,
		Highwater:        *highwaterFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
