package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/MikhailRaia/tinyu/internal/app"
	"github.com/MikhailRaia/tinyu/internal/config"
	"github.com/MikhailRaia/tinyu/internal/logger"
)

var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

func writeHeapProfile(path string) {
	f, err := os.Create(path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create heap profile")
		return
	}
	defer f.Close()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Error().Err(err).Msg("Failed to write heap profile")
	}
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing application")
	}

	runErr := application.Run(ctx)

	if err := application.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing storage")
	}
	if *memprofile != "" {
		writeHeapProfile(*memprofile)
	}
	if runErr != nil {
		log.Error().Err(runErr).Msg("Error running application")
		stop()
		os.Exit(1)
	}
}
