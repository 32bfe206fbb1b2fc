package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	Log  *logrus.Logger
	file *os.File
)

// Initialize replaces the global logger. Unknown levels fall back to info
// and unknown formats to json. Text output is colored only on a terminal. A
// log file that cannot be opened falls back to stderr.
func Initialize(level, format, output string) *logrus.Logger {
	Close()
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		Log.Warnf("Invalid log level '%s', using 'info'", level)
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	out := openOutput(output)
	Log.SetOutput(out)

	switch format {
	case "json":
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	case "text":
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			DisableColors:   !isTerminal(out),
		})
	default:
		Log.Warnf("Invalid log format '%s', using 'json'", format)
		Log.SetFormatter(&logrus.JSONFormatter{})
	}

	Log.WithFields(logrus.Fields{
		"level":  lvl.String(),
		"output": output,
	}).Debug("Logger initialized")
	return Log
}

// openOutput resolves stdout, stderr or a file path, creating the file's
// directory next to the experiment outputs if needed
func openOutput(output string) io.Writer {
	switch output {
	case "stdout":
		return os.Stdout
	case "", "stderr":
		return os.Stderr
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		Log.Warnf("Failed to create log directory for '%s', using stderr", output)
		return os.Stderr
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		Log.Warnf("Failed to open log file '%s', using stderr", output)
		return os.Stderr
	}
	file = f
	return f
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// Close releases the log file opened by Initialize, if any
func Close() error {
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	if Log != nil {
		Log.SetOutput(os.Stderr)
	}
	return err
}

// GetLogger returns the global logger instance
func GetLogger() *logrus.Logger {
	if Log == nil {
		Log = logrus.New()
		Log.SetLevel(logrus.InfoLevel)
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return Log
}

// Discard is a logger that writes nothing
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
