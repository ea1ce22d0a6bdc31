// Command shortwatch serves the structural shortage dashboard API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"shortwatch/internal/app"
	"shortwatch/internal/infrastructure"
	"shortwatch/pkg/contracts"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to $SHORTWATCH_CONFIG or ./config.yaml)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	application, err := app.NewApplication(*configPath)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	runErr := application.Run(context.Background())
	if err := infrastructure.CloseLogFile(); err != nil {
		slog.Error("Failed to close log file", slog.String("error", err.Error()))
	}
	if runErr != nil {
		slog.Error("Application error", slog.String("error", runErr.Error()))
		os.Exit(1)
	}
}
