// Package notify carries user-facing notifications from the
// reconciliation layer to whatever renders them. Transient
// notifications auto-dismiss; blocking ones gate the application
// (auth failures) and require an explicit acknowledgement.
package notify

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level separates how a notification is presented.
type Level int

const (
	// LevelInfo is a transient, auto-dismissing toast.
	LevelInfo Level = iota
	// LevelError is a transient toast for a failed operation.
	LevelError
	// LevelBlocking is a modal prompt; used for auth failures.
	LevelBlocking
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelError:
		return "error"
	case LevelBlocking:
		return "blocking"
	default:
		return "unknown"
	}
}

// DefaultToastDuration matches the auto-dismiss delay of the UI toast.
const DefaultToastDuration = 3 * time.Second

// Notification is one user-visible message.
type Notification struct {
	ID        string
	Level     Level
	Message   string
	Duration  time.Duration // 0 means the renderer's default; ignored for blocking
	CreatedAt time.Time
}

// Notifier receives notifications. Implementations must not block.
type Notifier interface {
	Notify(n Notification)
}

// Handler is a subscriber callback on the Bus.
type Handler func(n Notification)

// Bus fans notifications out to subscribed handlers synchronously.
// It also remembers the most recent notification so late-mounting
// views can show it.
type Bus struct {
	mu        sync.RWMutex
	handlers  map[int]Handler
	nextSubID int
	last      *Notification
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Notify assigns the notification an id and timestamp and delivers it.
func (b *Bus) Notify(n Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.Duration == 0 && n.Level != LevelBlocking {
		n.Duration = DefaultToastDuration
	}

	b.mu.Lock()
	b.last = &n
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(n)
	}
}

// Toast emits a transient info notification.
func (b *Bus) Toast(message string) {
	b.Notify(Notification{Level: LevelInfo, Message: message})
}

// Error emits a transient error notification.
func (b *Bus) Error(message string) {
	b.Notify(Notification{Level: LevelError, Message: message})
}

// Blocking emits a blocking notification.
func (b *Bus) Blocking(message string) {
	b.Notify(Notification{Level: LevelBlocking, Message: message})
}

// Last returns the most recent notification, or nil.
func (b *Bus) Last() *Notification {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last
}

// Subscribe registers a handler and returns its unsubscribe func.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextSubID
	b.nextSubID++
	b.handlers[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// LogNotifier writes notifications to the process log. Used by the CLI
// where there is no toast surface.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notification) {
	log.Printf("[Notify] %s: %s", n.Level, n.Message)
}
