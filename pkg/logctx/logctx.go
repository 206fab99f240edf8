// Package logctx is the sole place in botho that talks to the structured
// logger: every other package accepts a *zap.Logger (or calls
// logctx.Component to get one with its own name baked in) rather than writing to stdout
// directly, so log shape and level policy stay centralized.
package logctx

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/botho-project/botho/pkg/bothoerr"
)

// Level names accepted by New, matching the Logging.Level config field.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Options configures the root logger.
type Options struct {
	Level  string
	JSON   bool
	NodeID string
}

// New builds the root logger for a node process. JSON output is the default
// for production; setting JSON=false switches to a human-readable console
// encoder for local development, matching zap's own preset split between
// NewProduction and NewDevelopment.
func New(opts Options) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(levelOrDefault(opts.Level))); err != nil {
		return nil, bothoerr.Wrap(bothoerr.KindValidation, "logctx.New", err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.RFC3339TimeEncoder

	var encoder zapcore.Encoder
	if opts.JSON {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)
	logger := zap.New(core, zap.AddCaller())
	if opts.NodeID != "" {
		logger = logger.With(zap.String("node_id", opts.NodeID))
	}
	return logger, nil
}

func levelOrDefault(level string) string {
	if level == "" {
		return LevelInfo
	}
	return level
}

// Nop returns a logger that discards everything, for tests and tools that
// don't care about log output.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// Component returns logger scoped to a named subsystem ("scp", "mempool",
// "ledger", ...), the convention every package under pkg/ follows instead of
// each inventing its own field name for "which part of the node logged
// this".
func Component(logger *zap.Logger, name string) *zap.Logger {
	return logger.With(zap.String("component", name))
}
