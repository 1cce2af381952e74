package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. Every line carries the service name
// ("api" or "scanner") so the two binaries stay attributable in a merged
// stream. APP_ENV=dev (or development) swaps in the console writer.
func NewLogger(env, service string) zerolog.Logger {
	var w io.Writer = os.Stdout
	if env == "dev" || env == "development" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Str("service", service).Logger()
}
