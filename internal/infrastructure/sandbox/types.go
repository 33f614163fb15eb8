package sandbox

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

var (
	ErrClosed      = errors.New("sandbox is closed")
	ErrInterrupted = errors.New("script interrupted")
)

// Config defines sandbox configuration
type Config struct {
	Timeout          time.Duration // Execution timeout per Execute call
	MaxCallStackSize int           // goja call stack limit; 0 keeps the engine default
	EnableConsole    bool          // Capture console.log/warn/error/info
	Logger           *zap.Logger   // Mirrors console output at debug level when set
}

// Result holds execution result
type Result struct {
	Value    interface{}   // Exported return value
	Console  []LogEntry    // Console output captured during the run
	Duration time.Duration // Execution time
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// DefaultConfig returns the limits used for hosted applications
func DefaultConfig() Config {
	return Config{
		Timeout:          5 * time.Second,
		MaxCallStackSize: 1024,
		EnableConsole:    true,
	}
}
