package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	RoutinePath string

	// Params binds top-level input parameters for evaluation, raw NAME=VALUE
	// strings as received from the CLI. Values may be numbers or expressions.
	Params map[string]string

	Format           string // result output: "text" or "json"
	LogFormat        string
	LogLevel         string
	SkipVerification bool
	Highwater        bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.RoutinePath == "" {
		return nil, errors.New("RoutinePath is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}
