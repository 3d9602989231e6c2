// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Configure routes the global logger to a console writer on stderr and, when
// logFile is set, to a JSON log file. Every event carries a per-call run ID.
// It returns a function closing the file.
func Configure(stderr io.Writer, verbose bool, logFile string) (func() error, error) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	console := zerolog.ConsoleWriter{
		Out:        stderr,
		NoColor:    !IsTerminal(stderr),
		TimeFormat: "15:04:05",
	}

	runID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("generating run id: %w", err)
	}

	closer := func() error { return nil }
	var w io.Writer = console
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		w = zerolog.MultiLevelWriter(console, f)
		closer = f.Close
	}

	log.Logger = zerolog.New(w).Level(level).With().
		Timestamp().
		Str("app", "rotorbench").
		Str("run", runID.String()).
		Logger()
	return closer, nil
}
