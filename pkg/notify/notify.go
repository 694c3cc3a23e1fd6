// Package notify delivers user-visible notices when the router substitutes a
// fallback response. Delivery never blocks the invocation that triggered it.
package notify

import (
	"fmt"
	"log"
	"time"

	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

// Notification announces that a backup path served an endpoint
type Notification struct {
	Endpoint  string               `json:"endpoint"`
	Reason    types.FallbackReason `json:"reason"`
	Message   string               `json:"message"`
	Timestamp time.Time            `json:"timestamp"`
}

// NewFallbackNotification builds the standard notice for a substitution
func NewFallbackNotification(endpoint string, reason types.FallbackReason, at time.Time) Notification {
	return Notification{
		Endpoint:  endpoint,
		Reason:    reason,
		Message:   fmt.Sprintf("%s is temporarily unavailable, a backup response was used (%s)", endpoint, reason),
		Timestamp: at,
	}
}

// Notifier receives notifications. Implementations must not block.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(n Notification)

// Notify implements Notifier
func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier writes notifications to a logger
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses log.Default().
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier
func (l *LogNotifier) Notify(n Notification) {
	l.logger.Printf("[Notify] %s", n.Message)
}

// Multi fans a notification out to several notifiers in order
type Multi []Notifier

// Notify implements Notifier
func (m Multi) Notify(n Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(n)
		}
	}
}

// Discard drops every notification
var Discard Notifier = NotifierFunc(func(Notification) {})
