// Package notify delivers short user-facing messages about the outcome of
// table operations.
package notify

import (
	"fmt"
	"strings"
	"sync"
)

// Severity ranks a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// rank orders severities for threshold filtering.
func (s Severity) rank() int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeveritySuccess:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether s is as severe as min.
func (s Severity) AtLeast(min Severity) bool {
	return s.rank() >= min.rank()
}

// ParseSeverity maps a name to a Severity.
func ParseSeverity(name string) (Severity, error) {
	switch s := Severity(strings.ToLower(strings.TrimSpace(name))); s {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityError:
		return s, nil
	default:
		return "", fmt.Errorf("notify: unknown severity %q", name)
	}
}

// Sink receives notifications.
type Sink interface {
	// Trigger shows message with the given severity.
	Trigger(message string, severity Severity)

	// Close dismisses the current notification and releases resources.
	Close()
}

// Alert keeps the most recent notification, like a snackbar that shows one message at a time.
type Alert struct {
	mu       sync.Mutex
	open     bool
	message  string
	severity Severity
}

// NewAlert creates a closed alert.
func NewAlert() *Alert {
	return &Alert{severity: SeverityInfo}
}

// Trigger implements Sink.
func (a *Alert) Trigger(message string, severity Severity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.message = message
	a.severity = severity
	a.open = true
}

// Close implements Sink.
func (a *Alert) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.open = false
	a.message = ""
}

// State returns whether the alert is showing, its message and severity.
func (a *Alert) State() (open bool, message string, severity Severity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.open, a.message, a.severity
}

// Multi fans notifications out to several sinks.
type Multi []Sink

// Trigger implements Sink.
func (m Multi) Trigger(message string, severity Severity) {
	for _, s := range m {
		s.Trigger(message, severity)
	}
}

// Close implements Sink.
func (m Multi) Close() {
	for _, s := range m {
		s.Close()
	}
}

// Threshold drops notifications below Min before passing them to Sink.
type Threshold struct {
	Min  Severity
	Sink Sink
}

// Trigger implements Sink.
func (t Threshold) Trigger(message string, severity Severity) {
	if severity.AtLeast(t.Min) {
		t.Sink.Trigger(message, severity)
	}
}

// Close implements Sink.
func (t Threshold) Close() {
	t.Sink.Close()
}

// Discard ignores every notification.
type Discard struct{}

// Trigger implements Sink.
func (Discard) Trigger(string, Severity) {}

// Close implements Sink.
func (Discard) Close() {}

var (
	_ Sink = (*Alert)(nil)
	_ Sink = Multi(nil)
	_ Sink = Threshold{}
	_ Sink = Discard{}
)
