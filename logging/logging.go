package logging

import (
	"fmt"
	"os"
	"strings"

	hclog "github.com/hashicorp/go-hclog"
)

// logger is the shared application logger. All packages log through the
// package level helpers below so the output format and level are consistent
// across the daemon and the CLI tools.
var logger = hclog.New(&hclog.LoggerOptions{
	Name:   "aurorascaler",
	Level:  hclog.Info,
	Output: os.Stderr,
})

// SetLevel updates the level at which the application logger will emit
// messages. Unknown level strings fall back to INFO.
func SetLevel(level string) {
	parsed := hclog.LevelFromString(strings.ToLower(level))
	if parsed == hclog.NoLevel {
		parsed = hclog.Info
	}
	logger.SetLevel(parsed)
}

// Debug logs a message at the DEBUG level.
func Debug(format string, v ...interface{}) {
	logger.Debug(fmt.Sprintf(format, v...))
}

// Info logs a message at the INFO level.
func Info(format string, v ...interface{}) {
	logger.Info(fmt.Sprintf(format, v...))
}

// Warning logs a message at the WARN level.
func Warning(format string, v ...interface{}) {
	logger.Warn(fmt.Sprintf(format, v...))
}

// Error logs a message at the ERROR level.
func Error(format string, v ...interface{}) {
	logger.Error(fmt.Sprintf(format, v...))
}
