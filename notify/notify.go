// Package notify delivers short user-facing messages (toasts) to whoever shows them.
package notify

import (
	"sync"

	"github.com/golang/glog"
)

type Kind int

const (
	Success Kind = iota
	Error
	Warning
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Notifier is fire-and-forget: implementations must not block the caller on delivery.
type Notifier interface {
	Notify(kind Kind, title, message string)
}

// Message is a recorded notification.
type Message struct {
	Kind    Kind   `json:"-"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// LogNotifier writes notifications to the log.
type LogNotifier struct{}

func (LogNotifier) Notify(kind Kind, title, message string) {
	switch kind {
	case Error:
		glog.Errorf("Notify kind=%v title=%q message=%q", kind, title, message)
	case Warning:
		glog.Warningf("Notify kind=%v title=%q message=%q", kind, title, message)
	default:
		glog.Infof("Notify kind=%v title=%q message=%q", kind, title, message)
	}
}

// Multi fans a notification out to every notifier.
type Multi []Notifier

func (m Multi) Notify(kind Kind, title, message string) {
	for _, n := range m {
		if n != nil {
			n.Notify(kind, title, message)
		}
	}
}

// Recorder keeps every notification, for tests and status endpoints.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Notify(kind Kind, title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Kind: kind, Title: title, Message: message})
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Titles lists the recorded titles of the given kind, in order.
func (r *Recorder) Titles(kind Kind) []string {
	var titles []string
	for _, m := range r.Messages() {
		if m.Kind == kind {
			titles = append(titles, m.Title)
		}
	}
	return titles
}
