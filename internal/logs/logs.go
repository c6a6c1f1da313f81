package logs

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

var level = new(slog.LevelVar)

// Init configures the global slog logger. Colored tint output goes to
// stderr so that result tables on stdout stay machine-readable.
func Init(verbose bool) {
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	w := os.Stderr
	slog.SetDefault(slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			NoColor:    !isatty.IsTerminal(w.Fd()),
		}),
	))
}

// ConsoleLogger returns a tint-backed logger writing to stderr.
func ConsoleLogger() *slog.Logger {
	return slog.Default()
}

// ComponentLogger returns a logger tagged with the component name.
func ComponentLogger(component string) *slog.Logger {
	return slog.Default().With(slog.String("component", component))
}
