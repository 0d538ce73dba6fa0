package config

import (
	"io"
	"log/slog"
	"os"
)

// logMode picks where diagnostics go so they never corrupt the dashboard or
// JSON written to stdout
func (a Args) logMode() string {
	switch {
	case a.Mode == ModeServer:
		return "text"
	case a.Client.Json:
		return "json"
	case a.Client.TUI:
		return "tui"
	default:
		return "text"
	}
}

// SetupLogging configures the global slog logger based on args
// Returns the log file handle (caller must close it) or nil if no file
func SetupLogging(args Args) (*os.File, error) {
	mode := args.logMode()

	var writers []io.Writer
	var logFile *os.File

	if args.Log != "" {
		f, err := os.OpenFile(args.Log, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		logFile = f
		writers = append(writers, f)
	}

	switch mode {
	case "tui":
		// TUI mode: only log to file (or discard if no file)
		if len(writers) == 0 {
			writers = append(writers, io.Discard)
		}
	default:
		// logs to stderr, data to stdout
		writers = append(writers, os.Stderr)
	}

	var output io.Writer
	if len(writers) == 1 {
		output = writers[0]
	} else {
		output = io.MultiWriter(writers...)
	}

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(args.LogLevel),
	}
	if opts.Level == slog.LevelDebug {
		opts.AddSource = true
	}

	var handler slog.Handler
	if mode == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
	slog.SetDefault(slog.New(handler))

	return logFile, nil
}

// parseLogLevel converts string to slog.Level
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
