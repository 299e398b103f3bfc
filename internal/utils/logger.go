package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RunLogger writes a run's log lines to stdout and to a per-run file
// under <dir>/<name>/.
type RunLogger struct {
	file   *os.File
	logger *log.Logger
	path   string
}

func NewRunLogger(dir, kind, name string) (*RunLogger, error) {
	sanitized := SanitizeName(name)

	runDir := filepath.Join(dir, sanitized)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(runDir, fmt.Sprintf("%s_%s_%s.log", kind, sanitized, timestamp))

	file, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	return &RunLogger{
		file:   file,
		logger: log.New(io.MultiWriter(os.Stdout, file), "", log.Ldate|log.Ltime|log.Lmicroseconds),
		path:   logPath,
	}, nil
}

// NewWriterLogger logs to w only, without a backing file.
func NewWriterLogger(w io.Writer) *RunLogger {
	return &RunLogger{logger: log.New(w, "", 0)}
}

func (rl *RunLogger) Path() string {
	return rl.path
}

func (rl *RunLogger) LogInfo(format string, v ...interface{}) {
	rl.log("INFO", format, v...)
}

func (rl *RunLogger) LogError(format string, v ...interface{}) {
	rl.log("ERROR", format, v...)
}

func (rl *RunLogger) LogDebug(format string, v ...interface{}) {
	rl.log("DEBUG", format, v...)
}

func (rl *RunLogger) log(level string, format string, v ...interface{}) {
	message := fmt.Sprintf(format, v...)
	rl.logger.Printf("[%s] %s", level, message)
}

func (rl *RunLogger) Close() error {
	if rl.file == nil {
		return nil
	}
	return rl.file.Close()
}

// SanitizeName lowercases name and replaces spaces and path separators with underscores.
func SanitizeName(name string) string {
	r := strings.NewReplacer(" ", "_", "/", "_", `\`, "_")
	return r.Replace(strings.ToLower(strings.TrimSpace(name)))
}
