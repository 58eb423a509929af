// Package logging installs the process-wide zerolog logger. The call
// sites elsewhere in this module use the chained Info()/Warn()/Error()
// idiom directly against the global logger (github.com/rs/zerolog/log),
// the same way other_examples' bgpfix-bgpipe stages-rpki.go chains
// s.Info().Str(...).Msg(...) — this package only configures the
// writer/level, it does not wrap or hide the zerolog API.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger. verbose raises the level to
// debug; otherwise info and above are emitted, matching the density of
// log lines the teacher emits per retry/sentinel/stage transition.
func Init(verbose bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
}
