// Package eventlog records structured cache and network activity
// for performance diagnosis.
package eventlog

import (
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event categories, emitted as the "category" field.
const (
	CategoryHTTP = "HTTP"
	CategorySet  = "CACHE SET"
	CategoryHit  = "CACHE HIT"
	CategoryDrop = "CACHE DROP"
	CategoryMsg  = "MSG"
)

// Log is an append-only stream of structured events.
// It starts out inactive: emission calls are no-ops until Start binds
// a sink, and become no-ops again after Stop. While active, every event
// is written to the sink synchronously and in emission order.
type Log struct {
	mutex  sync.RWMutex
	active bool
	logger zerolog.Logger
}

func New() *Log {
	return &Log{logger: zerolog.Nop()}
}

// Start binds the log to a sink. Each event is written to the sink as
// one line. How and where the line ends up is the sink's concern.
func (l *Log) Start(sink io.Writer) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.logger = zerolog.New(sink).With().Timestamp().Logger()
	l.active = true
}

// Stop unbinds the sink. Subsequent emissions are no-ops.
func (l *Log) Stop() {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.logger = zerolog.Nop()
	l.active = false
}

// Active reports whether a sink is bound.
func (l *Log) Active() bool {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.active
}

func (l *Log) current() zerolog.Logger {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.logger
}

// HTTP records a completed network call.
func (l *Log) HTTP(method, uri string, status int, elapsed time.Duration) {
	lg := l.current()
	lg.Info().
		Str("category", CategoryHTTP).
		Str("method", method).
		Str("url", uri).
		Int("status", status).
		Dur("duration", elapsed).
		Send()
}

// HTTPError records a failed network call.
func (l *Log) HTTPError(method, uri string, elapsed time.Duration, err error) {
	lg := l.current()
	lg.Error().
		Str("category", CategoryHTTP).
		Str("method", method).
		Str("url", uri).
		Dur("duration", elapsed).
		Err(err).
		Send()
}

// Set records a response being stored in the cache.
func (l *Log) Set(uri string) {
	lg := l.current()
	lg.Info().
		Str("category", CategorySet).
		Str("url", uri).
		Send()
}

// Hit records a lookup served from the cache.
func (l *Log) Hit(uri string) {
	lg := l.current()
	lg.Info().
		Str("category", CategoryHit).
		Str("url", uri).
		Send()
}

// Drop records a cache entry being invalidated.
func (l *Log) Drop(uri string) {
	lg := l.current()
	lg.Info().
		Str("category", CategoryDrop).
		Str("url", uri).
		Send()
}

// Message interleaves a custom caller message into the stream.
func (l *Log) Message(msg string) {
	lg := l.current()
	lg.Info().
		Str("category", CategoryMsg).
		Msg(msg)
}

// Error emits the error as an event and returns it unchanged,
// so diagnosis data survives failure paths.
func (l *Log) Error(err error, msg string) error {
	lg := l.current()
	lg.Error().
		Str("category", CategoryMsg).
		Err(err).
		Msg(msg)
	return err
}
