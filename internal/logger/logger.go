// Package logger builds the diagnostic logger for one invocation.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for the optional log file.
const (
	maxSizeMB  = 10
	maxBackups = 3
	maxAgeDays = 28
)

// Options configures the diagnostic logger.
type Options struct {
	// Verbose lowers the console level from warn to debug.
	Verbose bool
	// NoColor disables ANSI colors on the console.
	NoColor bool
	// File, when set, receives every event as JSON at debug level.
	File string
	// Writer is the console destination; defaults to os.Stderr.
	Writer io.Writer
}

// Logger wraps the zerolog logger with the resources it owns.
type Logger struct {
	zerolog.Logger
	file *lumberjack.Logger
}

// New creates the logger. Every event carries an invocation id so lines
// from one run can be told apart in a shared log file.
func New(opts Options) (*Logger, error) {
	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}

	consoleLevel := zerolog.WarnLevel
	if opts.Verbose {
		consoleLevel = zerolog.DebugLevel
	}

	console := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    opts.NoColor,
		TimeFormat: time.TimeOnly,
	}
	writers := []io.Writer{levelWriter{Writer: console, min: consoleLevel}}

	var file *lumberjack.Logger
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, err
		}
		file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
		}
		writers = append(writers, file)
	}

	l := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Str("invocation", uuid.NewString()).
		Logger()

	return &Logger{Logger: l, file: file}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// levelWriter drops events below min for one destination of a multi writer.
type levelWriter struct {
	io.Writer
	min zerolog.Level
}

func (w levelWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < w.min {
		return len(p), nil
	}
	return w.Writer.Write(p)
}
