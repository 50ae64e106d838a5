package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns the process-wide structured JSON logger. Every line carries the
// service name so reveal audit trails stay attributable once logs are
// aggregated alongside other issuer services.
func New() *slog.Logger {
	return newWithWriter(os.Stdout)
}

func newWithWriter(w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(handler).With(slog.String("service", "tempora"))
}
