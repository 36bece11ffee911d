package sink

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogSink writes frames to a zerolog logger. Snapshot breaches are logged at warn.
type LogSink struct {
	Logger zerolog.Logger
}

func NewLogSink() *LogSink {
	return &LogSink{Logger: log.With().Str("sink", "log").Logger()}
}

func (l *LogSink) Publish(_ context.Context, f Frame) error {
	switch f.Type {
	case FrameSnapshot:
		breaches := f.Snapshot.Breaches()
		ev := l.Logger.Info()
		if len(breaches) > 0 {
			ev = l.Logger.Warn()
		}
		ev = ev.Str("phase", string(f.Phase)).Time("at", f.At)
		for _, t := range f.Snapshot.Fields {
			ev = ev.Str(t.Field.Parameter(), t.Raw)
		}
		ev.Int("breaches", len(breaches)).Msg("snapshot")
	case FrameSeries:
		l.Logger.Debug().Str("phase", string(f.Phase)).Str("field", f.Series.Key).
			Int("points", f.Series.Len()).Msg("series")
	case FrameNotice:
		l.Logger.Warn().Str("phase", string(f.Phase)).Msg(f.Notice)
	}
	return observe("log", nil)
}
