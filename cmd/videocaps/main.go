package main

import (
	"os"

	"github.com/eternnoir/videocaps/cmd/videocaps/cmd"
	"github.com/eternnoir/videocaps/pkg/logger"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("Application execution failed")
		os.Exit(1)
	}
}
