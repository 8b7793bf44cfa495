package mdio

import (
	"log/slog"

	"github.com/soypat/mdio/internal"
)

type logger struct {
	log *slog.Logger
}

func (l logger) logenabled(lvl slog.Level) bool {
	return internal.HeapAllocDebugging || internal.LogEnabled(l.log, lvl)
}

func (l logger) logattrs(lvl slog.Level, msg string, attrs ...slog.Attr) {
	internal.LogAttrs(l.log, lvl, msg, attrs...)
}

func (l logger) trace(msg string, attrs ...slog.Attr) {
	l.logattrs(internal.LevelTrace, msg, attrs...)
}

func (l logger) logerr(msg string, attrs ...slog.Attr) {
	l.logattrs(slog.LevelError, msg, attrs...)
}

func (m *Master) traceState(msg string) {
	if m.logenabled(internal.LevelTrace) {
		m.trace(msg,
			slog.String("state", m.state.String()),
			slog.Uint64("count", uint64(m.count)),
		)
	}
}
