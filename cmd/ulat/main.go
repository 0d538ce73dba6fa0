package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/tkjaer/ulat/internal/config"
)

func main() {
	args, err := config.ParseArgs()
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// Setup logging
	logFile, err := config.SetupLogging(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logging: %v\n", err)
		os.Exit(1)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	switch args.Mode {
	case config.ModeServer:
		err = runServer(args)
	case config.ModeClient:
		err = runClient(args)
	}

	if err != nil {
		slog.Error("ulat failed", "mode", args.Mode, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if logFile != nil {
			logFile.Close()
		}
		os.Exit(1)
	}
}
