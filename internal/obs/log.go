package obs

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	loggerOnce sync.Once
	logger     zerolog.Logger
)

// Logger returns the shared structured logger. The level is read once from
// CAREBASE_LOG_LEVEL (default info); output is one JSON line per event.
func Logger() zerolog.Logger {
	loggerOnce.Do(func() {
		level, err := zerolog.ParseLevel(strings.TrimSpace(os.Getenv("CAREBASE_LOG_LEVEL")))
		if err != nil || level == zerolog.NoLevel {
			level = zerolog.InfoLevel
		}
		logger = zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	})
	return logger
}

// LogRequest emits one line with common HTTP fields.
func LogRequest(fields map[string]any) {
	l := Logger()
	l.Info().Fields(fields).Msg("http_request")
}
