package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/snowmerak/passcode/cmd/passcode/cmd"
)

// main runs the passcode CLI.
func main() {
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
