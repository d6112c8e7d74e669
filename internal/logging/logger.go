// Package logging constructs the process-wide zap logger used for
// general application logs (startup, shutdown, wiring diagnostics) —
// distinct from internal/audit's buffered, event-typed audit trail, which
// owns its own zap cores for compliance-relevant events.
//
// Grounded on this codebase's audit logger's encoder/level
// construction, narrowed to a single console-friendly logger with no
// rotation: general process logs are operational noise, not the audit
// record, so they don't need lumberjack's rotation policy.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger at the given level ("debug", "info", "warn",
// "error"). format selects "json" (production-style structured output)
// or anything else for a human-readable console encoding.
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: invalid level %q: %w", level, err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.LowercaseLevelEncoder

	var encoder zapcore.Encoder
	if format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stdout)), lvl)
	return zap.New(core, zap.AddCaller()), nil
}
