package notify

import "github.com/rs/zerolog"

// LogSink writes notifications to a zerolog logger.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink creates a sink logging through log.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

// Trigger implements Sink.
func (s *LogSink) Trigger(message string, severity Severity) {
	var ev *zerolog.Event
	switch severity {
	case SeverityError:
		ev = s.log.Error()
	case SeverityWarning:
		ev = s.log.Warn()
	default:
		ev = s.log.Info()
	}
	ev.Str("severity", string(severity)).Msg(message)
}

// Close implements Sink.
func (s *LogSink) Close() {}
