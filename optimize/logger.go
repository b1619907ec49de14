package optimize

import "github.com/ethereum/go-ethereum/log"

// Level orders the three logging levels the core ever emits at. Kept as a
// small closed enum rather than reusing go-ethereum/log's own Lvl type, since
// this package's gating decision (whether to evaluate a thunk at all) has to
// happen before any call into the sink.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
)

// Logger is the leveled, thunk-based sink the pass driver reports through.
// Mirrors the teacher's "pass a key/value pair list" logging shape
// (consensus/parlia's log.Info("msg", "k", v, ...) calls) at the Go-idiom
// level, and the source's CPPLOG_LAZY macros at the gating level: a disabled
// level must never evaluate its thunk, so LogLazy takes the message/context
// pair behind a closure instead of pre-formatting it at the call site.
type Logger interface {
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	LogLazy(level Level, thunk func() (string, []any))
}

// EthLogger is the default Logger sink, wrapping github.com/ethereum/
// go-ethereum/log. It holds its own minimum level rather than querying the
// underlying root logger's handler, since the handler's enabled-level isn't
// part of that package's exported surface.
type EthLogger struct {
	level Level
	inner log.Logger
}

// NewEthLogger builds a sink that only forwards calls at or above `level`.
func NewEthLogger(level Level) *EthLogger {
	return &EthLogger{level: level, inner: log.Root()}
}

func (l *EthLogger) Debug(msg string, ctx ...any) {
	if l.level > LevelDebug {
		return
	}
	l.inner.Debug(msg, ctx...)
}

func (l *EthLogger) Info(msg string, ctx ...any) {
	if l.level > LevelInfo {
		return
	}
	l.inner.Info(msg, ctx...)
}

func (l *EthLogger) Warn(msg string, ctx ...any) {
	if l.level > LevelWarn {
		return
	}
	l.inner.Warn(msg, ctx...)
}

// LogLazy only invokes `thunk` -- and therefore only pays for building the
// message and context -- if `level` is actually enabled.
func (l *EthLogger) LogLazy(level Level, thunk func() (string, []any)) {
	if l.level > level {
		return
	}
	msg, ctx := thunk()
	switch level {
	case LevelDebug:
		l.inner.Debug(msg, ctx...)
	case LevelInfo:
		l.inner.Info(msg, ctx...)
	default:
		l.inner.Warn(msg, ctx...)
	}
}

// discardLogger is a dependency-free sink used where a caller builds an
// Optimizer without wiring a Logger (tests, one-off tooling).
type discardLogger struct{}

func (discardLogger) Debug(string, ...any)                {}
func (discardLogger) Info(string, ...any)                 {}
func (discardLogger) Warn(string, ...any)                 {}
func (discardLogger) LogLazy(Level, func() (string, []any)) {}
