// Package main is the entry point for the Raspberry Pi info ticker.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/bruno-farias/raspi-info-ticker/config"
	"github.com/bruno-farias/raspi-info-ticker/internal/app"
	"github.com/bruno-farias/raspi-info-ticker/internal/ticker"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	stats := flag.Bool("stats", false, "print the cache statistics of a running ticker and exit")
	addr := flag.String("addr", "localhost:8080", "diagnostics address used by -stats")
	version := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *version {
		fmt.Println(Version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *stats {
		if err := app.PrintCacheStats(ctx, *addr, os.Stdout, app.IsTerminal(os.Stdout)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	a, err := app.InitializeApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize ticker")
	}
	log.Info().Str("version", Version).Msg("Ticker initialized")

	if err := a.Run(ctx); err != nil {
		if errors.Is(err, ticker.ErrTooManyDisplayFailures) {
			log.Error().Err(err).Msg("Giving up on the display")
		} else {
			log.Error().Err(err).Msg("Ticker stopped with error")
		}
		stop()
		os.Exit(1)
	}
	log.Info().Msg("Ticker shut down")
}
