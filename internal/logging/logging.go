// Package logging builds the daemon's rotating file+stdout logger and
// exposes a small logging Interface the rest of the pipeline (scan
// engine, remover, validator) depends on instead of *log.Logger
// directly, so tests can substitute a recording stub. Grounded on the
// teacher's own logging.go: same rotate-then-open-then-MultiWriter
// shape, generalized to a configurable directory instead of a single
// hardcoded system path.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sweepd/sweepd/internal/config"
)

const logFileName = "sweepd.log"

// Interface is the structured-logging contract used across the
// scan/validate/remove pipeline.
type Interface interface {
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// Logger wraps the standard logger with rotation support and the
// Interface methods the pipeline packages expect.
type Logger struct {
	*log.Logger
}

func (l *Logger) Info(msg string, args ...interface{})  { l.Logger.Print("INFO  " + format(msg, args)) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.Logger.Print("WARN  " + format(msg, args)) }
func (l *Logger) Error(msg string, args ...interface{}) { l.Logger.Print("ERROR " + format(msg, args)) }
func (l *Logger) Debug(msg string, args ...interface{}) { l.Logger.Print("DEBUG " + format(msg, args)) }

func format(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}
	pairs := make([]string, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		pairs = append(pairs, fmt.Sprintf("%v=%v", args[i], args[i+1]))
	}
	return msg + " " + strings.Join(pairs, " ")
}

// New creates a logger writing under dataDir, with config-driven
// rotation.
func New(dataDir string, cfg *config.Config) *Logger {
	return &Logger{Logger: NewWithConfig(dataDir, cfg)}
}

// NewWithConfig creates a new logger with configuration for rotation
func NewWithConfig(dataDir string, cfg *config.Config) *log.Logger {
	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.Printf("failed to ensure log directory %s: %v", logDir, err)
	}

	filePath := filepath.Join(logDir, logFileName)

	// Check if rotation is needed
	rotateDays := 30 // default
	if cfg != nil && cfg.Logging.RotationDays > 0 {
		rotateDays = cfg.Logging.RotationDays
	}

	// Rotate logs if needed
	rotateLogsIfNeeded(filePath, rotateDays)

	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("failed to open log file %s: %v", filePath, err)
		return log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)
	}

	mw := io.MultiWriter(os.Stdout, f)
	return log.New(mw, "", log.LstdFlags|log.Lmicroseconds)
}

// rotateLogsIfNeeded rotates log files older than the specified days
func rotateLogsIfNeeded(logPath string, rotationDays int) {
	info, err := os.Stat(logPath)
	if err != nil {
		// Log file doesn't exist yet, nothing to rotate
		return
	}

	// Check if log file is older than rotation days
	cutoffTime := time.Now().AddDate(0, 0, -rotationDays)
	if info.ModTime().Before(cutoffTime) {
		// Rotate: rename current log with timestamp
		timestamp := info.ModTime().Format("20060102-150405")
		rotatedPath := logPath + "." + timestamp

		if err := os.Rename(logPath, rotatedPath); err != nil {
			log.Printf("failed to rotate log file: %v", err)
			return
		}

		// Clean up old rotated logs
		cleanupOldLogs(logPath, rotationDays)
	}
}

// cleanupOldLogs removes log files older than rotation days
func cleanupOldLogs(logPath string, rotationDays int) {
	logDir := filepath.Dir(logPath)
	baseName := filepath.Base(logPath)

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	cutoffTime := time.Now().AddDate(0, 0, -rotationDays)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		// Check if this is a rotated log file
		name := entry.Name()
		if !strings.HasPrefix(filepath.Base(name), filepath.Base(baseName)+".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		// Delete if older than rotation days
		if info.ModTime().Before(cutoffTime) {
			fullPath := filepath.Join(logDir, name)
			if err := os.Remove(fullPath); err != nil {
				log.Printf("failed to remove old log file %s: %v", fullPath, err)
			}
		}
	}
}
