// Package notify carries user-facing messages from services to the views.
package notify

import (
	"fmt"
	"log/slog"
	"sync"
)

// Level tells the view how to present a notification.
type Level int

const (
	// Info and Error are transient status line messages.
	Info Level = iota
	Success
	Error
	// Blocking requires acknowledgement before the view continues.
	Blocking
)

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Success:
		return "success"
	case Error:
		return "error"
	case Blocking:
		return "blocking"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Notifier shows a message to the user.
type Notifier interface {
	Notify(level Level, message string)
}

// Func adapts a function to Notifier.
type Func func(level Level, message string)

func (f Func) Notify(level Level, message string) { f(level, message) }

// Log writes notifications to the default slog logger. Used when no view is attached.
type Log struct{}

func (Log) Notify(level Level, message string) {
	if level == Error || level == Blocking {
		slog.Warn("notification", slog.String("level", level.String()), slog.String("message", message))
		return
	}
	slog.Info("notification", slog.String("level", level.String()), slog.String("message", message))
}

// Message is a recorded notification.
type Message struct {
	Level Level
	Text  string
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Level: level, Text: message})
}

// Messages returns a copy of the recorded notifications.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Count returns the number of notifications at level.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.messages {
		if m.Level == level {
			n++
		}
	}
	return n
}

// Relay forwards to a target attached after construction and logs until then.
type Relay struct {
	mu     sync.RWMutex
	target Notifier
}

// Set attaches the target. A nil target restores logging.
func (r *Relay) Set(target Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = target
}

func (r *Relay) Notify(level Level, message string) {
	r.mu.RLock()
	target := r.target
	r.mu.RUnlock()
	if target == nil {
		Log{}.Notify(level, message)
		return
	}
	target.Notify(level, message)
}
