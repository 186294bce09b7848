// Package logging configures the process-wide zerolog logger the way
// cmd/predictmarket wants it: console-formatted, RFC3339 timestamps.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. Call once from main.
func Init(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// For is a small convenience so components can get a named sub-logger
// instead of every file reaching into the global log.Logger by hand.
func For(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
