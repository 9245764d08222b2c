package logging

import "github.com/rs/zerolog"

// DispatcherLogger exposes a zerolog.Logger through the small leveled
// interface the command dispatcher logs against. Sensor commands flow
// through the dispatcher at tick rate, so the adapter keeps zerolog's
// allocation profile instead of bridging through slog.
type DispatcherLogger struct {
	logger zerolog.Logger
}

// NewDispatcherLogger wraps zlog for use as a dispatcher logger.
func NewDispatcherLogger(zlog zerolog.Logger) *DispatcherLogger {
	return &DispatcherLogger{logger: zlog}
}

func (l *DispatcherLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(pairFields(keysAndValues)).Msg(msg)
}

func (l *DispatcherLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info().Fields(pairFields(keysAndValues)).Msg(msg)
}

func (l *DispatcherLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error().Fields(pairFields(keysAndValues)).Msg(msg)
}

// pairFields folds variadic key-value pairs into a zerolog fields map.
// Non-string keys and a trailing unpaired value are skipped.
func pairFields(keysAndValues []any) map[string]any {
	if len(keysAndValues) == 0 {
		return nil
	}
	fields := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
