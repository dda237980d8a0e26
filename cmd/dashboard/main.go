package main

import (
	"flag"
	"log/slog"
	"os"

	"investcli/internal/app"
	"investcli/internal/config"
	"investcli/internal/infrastructure"
)

func main() {
	configFile := flag.String("config", "", "YAML config file")
	dataset := flag.String("dataset", "", "canonical CSV to serve (overrides config)")
	port := flag.Int("port", 0, "listen port (overrides config)")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFrom(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *dataset != "" {
		cfg.Paths.Dataset = *dataset
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	application, err := app.NewApplication(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
