package scpfwk

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to the framework Logger interface.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger builds the default framework logger writing to w (stderr
// when nil) at the given level. Unknown level strings fall back to info.
func NewZerologLogger(w io.Writer, level string) *ZerologLogger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return &ZerologLogger{
		log: zerolog.New(w).Level(lvl).With().Timestamp().Logger(),
	}
}

// WrapZerolog adapts an existing zerolog.Logger.
func WrapZerolog(log zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{log: log}
}

func fields(ev *zerolog.Event, args []any) *zerolog.Event {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		switch v := args[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	return ev
}

// Info implements Logger.
func (l *ZerologLogger) Info(msg string, args ...any) {
	fields(l.log.Info(), args).Msg(msg)
}

// Error implements Logger.
func (l *ZerologLogger) Error(msg string, args ...any) {
	fields(l.log.Error(), args).Msg(msg)
}

// Warn implements Logger.
func (l *ZerologLogger) Warn(msg string, args ...any) {
	fields(l.log.Warn(), args).Msg(msg)
}

// Debug implements Logger.
func (l *ZerologLogger) Debug(msg string, args ...any) {
	fields(l.log.Debug(), args).Msg(msg)
}
