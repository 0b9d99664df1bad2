package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/qrprint/kiosk/cmd"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	godotenv.Load()

	if err := cmd.App().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("application failed")
	}
}
