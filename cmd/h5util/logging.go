package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// logLevelEnv names the environment variable holding the default level.
const logLevelEnv = "H5UTIL_LOG_LEVEL"

var logLevel = new(slog.LevelVar)

// configureLogging returns a text logger writing to w. The level comes
// from override when set, else from H5UTIL_LOG_LEVEL, else Info.
func configureLogging(w io.Writer, override string) (*slog.Logger, error) {
	logLevel.Set(slog.LevelInfo)

	lvl := override
	if lvl == "" {
		lvl = os.Getenv(logLevelEnv)
	}
	if lvl != "" {
		level, err := parseLevel(lvl)
		if err != nil {
			return nil, err
		}
		logLevel.Set(level)
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler), nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
