// Package notify delivers user-facing success and error messages.
package notify

import (
	"log/slog"
	"sync"
)

// Kind classifies a notification.
type Kind string

// Notification kinds.
const (
	Success Kind = "success"
	Error   Kind = "error"
)

// Sink receives notifications. Implementations must not block.
type Sink interface {
	Notify(message string, kind Kind)
}

// Func adapts a function to a Sink.
type Func func(message string, kind Kind)

// Notify calls f.
func (f Func) Notify(message string, kind Kind) {
	f(message, kind)
}

// Discard drops every notification.
var Discard Sink = Func(func(string, Kind) {})

// Logger writes notifications to a slog.Logger: errors at warn, successes at info.
type Logger struct {
	log *slog.Logger
}

// NewLogger creates a sink backed by log, or slog.Default() when log is nil.
func NewLogger(log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{log: log}
}

// Notify implements Sink.
func (l *Logger) Notify(message string, kind Kind) {
	if kind == Error {
		l.log.Warn(message, "kind", string(kind))
		return
	}
	l.log.Info(message, "kind", string(kind))
}

// Message is one recorded notification.
type Message struct {
	Text string
	Kind Kind
}

// Recorder keeps every notification in memory. Safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Notify implements Sink.
func (r *Recorder) Notify(message string, kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Text: message, Kind: kind})
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Count returns how many notifications of kind were recorded.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.messages {
		if m.Kind == kind {
			n++
		}
	}
	return n
}
