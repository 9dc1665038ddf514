package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes the zerolog logger with the specified debug mode and output format.
func InitLogger(debug, human bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano                 // always initialize base logger with timestamp.
	base := zerolog.New(os.Stderr).With().Timestamp().Logger() // initialize base logger.
	if human {
		log.Logger = base.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		}) // select output format.
	} else {
		log.Logger = base // use JSON logger.
	}
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel) // set debug level.
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel) // set info level.
	}
}

// LogCompute logs a completed passcode derivation with structured fields.
// Key material and the passcode itself are never logged.
func LogCompute(backend, algorithm string, challengeLen int, elapsed time.Duration) {
	log.Info().
		Str("event", "passcode_computed").
		Str("backend", backend).
		Str("algorithm", algorithm).
		Int("challenge_len", challengeLen).
		Dur("elapsed", elapsed).
		Msg("computed passcode")
}
