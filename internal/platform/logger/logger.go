package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Text handler on stdout; services receive
// it by injection so tests can swap in a silent one.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
