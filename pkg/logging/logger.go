package logging

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

// New returns a console logger at the given level ("trace", "debug",
// "info", "warn", "error"). Output goes to the console writer so it can be
// kept quiet during the interactive loop with a "warn" level.
func New(level string) arbor.ILogger {
	logger := arbor.NewLogger().WithConsoleWriter(models.WriterConfiguration{
		Type:             models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		TextOutput:       true,
		DisableTimestamp: false,
	})
	if level == "" {
		level = "warn"
	}
	return logger.WithLevelFromString(level)
}
