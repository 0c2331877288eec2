package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/macroloom/macroloom/internal/app"
	"github.com/macroloom/macroloom/internal/config"
	"github.com/macroloom/macroloom/internal/resources"
	"github.com/macroloom/macroloom/internal/ui"
)

const version = "v0.3.0"

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.Load("config.json")
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(level)
	}

	icon, err := resources.GetIcon()
	if err != nil {
		log.Warn().Err(err).Msg("loading embedded icon")
	}
	ui.InitGlobalNotifications(cfg.UseNotifications, "Macroloom", icon)

	log.Info().Str("version", version).Msg("macroloom starting")

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "fatal error: %v\n", r)
			os.Exit(1)
		}
	}()

	app.New(cfg, version).Run()
}
