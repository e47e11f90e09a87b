// internal/logging/levels.go
package logging

import (
	"go.uber.org/zap/zapcore"
)

// TraceLevel is a custom level below Debug for ultra-verbose logging.
// Value: -2 (Debug is -1, Info is 0)
//
// Use for:
//   - Function entry/exit
//   - Wire protocol data
//   - Byte-level details
//   - Almost always filtered in production
const TraceLevel = zapcore.Level(-2)

// AuditLevel is a custom level above Error (2) for moderation actions —
// a report filed or an account restricted. newSampledCore never samples
// anything at or above ErrorLevel, so logging a moderation action at
// AuditLevel rather than Info keeps it from being dropped under load the
// way a routine Info line can be; losing the record of a suspended account
// is a different kind of problem than losing a routine request log.
const AuditLevel = zapcore.Level(3)

// LevelFromString parses a string into a zapcore.Level, supporting "trace".
func LevelFromString(level string) (zapcore.Level, error) {
	if level == "trace" {
		return TraceLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}
