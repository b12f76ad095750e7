package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/qresgo/internal/ctxlog"
	"github.com/vk/qresgo/internal/model"
	"github.com/vk/qresgo/internal/symexpr"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	engine  *symexpr.Engine
	routine *model.Routine[symexpr.Expr]
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and symbolic engine,
// and the routine definition already loaded and translated into the model.
func NewApp(outW io.Writer, errW io.Writer, appConfig *Config) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, errW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	engine := symexpr.NewEngine()

	routine, err := loadRoutine(ctx, appConfig.RoutinePath, engine)
	if err != nil {
		// A failure to load the definition is a fatal startup error.
		panic(fmt.Errorf("failed to load routine definition: %w", err))
	}
	logger.Debug("Routine definition loaded.", "routine", routine.Name, "path", appConfig.RoutinePath)

	return &App{
		outW:    outW,
		logger:  logger,
		config:  appConfig,
		engine:  engine,
		routine: routine,
	}
}

// Routine returns the loaded routine tree. This is primarily for testing.
func (a *App) Routine() *model.Routine[symexpr.Expr] {
	return a.routine
}
