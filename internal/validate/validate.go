// Package validate implements the validation-message-with-severity pattern
// the configuration layer surfaces errors through (§7, §10.2), grounded on
// original_source/src/mapcraftercore/config/validation.h: messages
// accumulate across INFO/WARNING/ERROR severities while parsing continues,
// and a run aborts only if any ERROR was recorded.
package validate

import "fmt"

// Severity is the level of a validation message.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Message is a single validation finding: a severity plus where it came
// from (e.g. "worldcrop", "blockmask") and the text.
type Message struct {
	Severity Severity
	Source   string
	Text     string
}

func (m Message) String() string {
	return fmt.Sprintf("[%s] %s: %s", m.Severity, m.Source, m.Text)
}

// NewInfo, NewWarning, NewError build a Message at the given severity.
func NewInfo(source, format string, args ...any) Message {
	return Message{Severity: Info, Source: source, Text: fmt.Sprintf(format, args...)}
}

func NewWarning(source, format string, args ...any) Message {
	return Message{Severity: Warning, Source: source, Text: fmt.Sprintf(format, args...)}
}

func NewError(source, format string, args ...any) Message {
	return Message{Severity: Error, Source: source, Text: fmt.Sprintf(format, args...)}
}

// Result accumulates messages from one validation pass (e.g. parsing a
// WorldCrop or BlockMask configuration).
type Result struct {
	Messages []Message
}

// Add appends msgs to the result.
func (r *Result) Add(msgs ...Message) {
	r.Messages = append(r.Messages, msgs...)
}

// HasErrors reports whether any recorded message is at Error severity; a
// run must abort iff this is true (§7).
func (r *Result) HasErrors() bool {
	for _, m := range r.Messages {
		if m.Severity == Error {
			return true
		}
	}
	return false
}
