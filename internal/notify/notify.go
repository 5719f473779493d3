// Package notify delivers user-facing notifications.
package notify

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tessro/interlude/internal/core"
)

// Notification is one delivered message.
type Notification struct {
	Title string    `json:"title"`
	Body  string    `json:"body"`
	At    time.Time `json:"at"`
}

// Log writes notifications to a logger.
type Log struct {
	logger zerolog.Logger
}

// NewLog returns a notifier that logs at info level.
func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger.With().Str("component", "notify").Logger()}
}

func (l *Log) Notify(title, body string) {
	l.logger.Info().Str("title", title).Msg(body)
}

// Multi fans a notification out to several notifiers.
type Multi []core.Notifier

func (m Multi) Notify(title, body string) {
	for _, n := range m {
		n.Notify(title, body)
	}
}

// DefaultCapacity is the number of notifications a Buffer keeps.
const DefaultCapacity = 50

// Buffer keeps the most recent notifications in memory. It is safe for
// concurrent use.
type Buffer struct {
	mu    sync.Mutex
	items []Notification
	next  int
	full  bool
	now   func() time.Time
}

// NewBuffer returns a buffer holding up to capacity notifications.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{items: make([]Notification, capacity), now: time.Now}
}

func (b *Buffer) Notify(title, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items[b.next] = Notification{Title: title, Body: body, At: b.now()}
	b.next = (b.next + 1) % len(b.items)
	if b.next == 0 {
		b.full = true
	}
}

// Recent returns the buffered notifications, oldest first.
func (b *Buffer) Recent() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.full {
		return append([]Notification(nil), b.items[:b.next]...)
	}
	out := make([]Notification, 0, len(b.items))
	out = append(out, b.items[b.next:]...)
	return append(out, b.items[:b.next]...)
}

// Counted calls fn for every notification before passing it on.
func Counted(n core.Notifier, fn func()) core.Notifier {
	return core.NotifierFunc(func(title, body string) {
		fn()
		n.Notify(title, body)
	})
}
