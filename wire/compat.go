package wire

import (
	"os"

	"go.uber.org/zap"
)

// Config controls optional decoder behaviors.
type Config struct {
	// Logger receives diagnostics such as dropped fields and scan stops.
	// It never influences control flow. Nil means no logging.
	Logger *zap.Logger

	// StrictWireTypeOnScan: when true, a field occurrence whose wire type
	// differs from the first occurrence of the same field number stops the
	// scan of the message with ErrWireTypeMismatch. When false (default), the
	// occurrence is logged and dropped and scanning continues.
	StrictWireTypeOnScan bool
}

var (
	config    = Config{}
	nopLogger = zap.NewNop()
)

// SetConfig sets the package default used by NewMessage.
func SetConfig(c Config) { config = c }

// DefaultConfig returns the package default configuration.
func DefaultConfig() Config { return config }

func (c *Config) logger() *zap.Logger {
	if c.Logger == nil {
		return nopLogger
	}
	return c.Logger
}

func init() {
	// Optional env toggles for debugging; defaults remain unchanged if unset.
	if v := os.Getenv("IWALITE_DEBUG"); v == "1" || v == "true" {
		if l, err := zap.NewDevelopment(); err == nil {
			config.Logger = l
		}
	}
	if v := os.Getenv("IWALITE_STRICT_WIRE"); v == "1" || v == "true" {
		config.StrictWireTypeOnScan = true
	}
}
