package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents transport failures while fetching a page
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents row-level HTML parsing failures
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeCache represents known-code store errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeNotify represents webhook delivery errors
	ErrorTypeNotify ErrorType = "notify"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError represents an error raised while processing one game
type ScrapeError struct {
	Type    ErrorType
	Game    string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Game, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Game, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether the error aborts the run for the game.
// Row, notification and publishing failures never escalate.
func (e *ScrapeError) IsFatal() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeCache, ErrorTypeConfiguration:
		return true
	default:
		return false
	}
}

// New creates a new ScrapeError
func New(errType ErrorType, game, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		Game:    game,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(game, message string, err error) *ScrapeError {
	return New(ErrorTypeNetwork, game, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(game, message string, err error) *ScrapeError {
	return New(ErrorTypeParsing, game, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(game string, duration time.Duration) *ScrapeError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, game, message, nil)
}

// NewCache creates a new cache error
func NewCache(game, message string, err error) *ScrapeError {
	return New(ErrorTypeCache, game, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(game, message string, err error) *ScrapeError {
	return New(ErrorTypePublisher, game, message, err)
}

// NewNotify creates a new notification error
func NewNotify(game, message string, err error) *ScrapeError {
	return New(ErrorTypeNotify, game, message, err)
}

// NewValidation creates a new validation error
func NewValidation(game, message string) *ScrapeError {
	return New(ErrorTypeValidation, game, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// Log collects soft errors in the order they were encountered.
// The zero value is ready to use.
type Log struct {
	entries []*ScrapeError
}

// Add records a soft error
func (l *Log) Add(err *ScrapeError) {
	if err == nil {
		return
	}
	l.entries = append(l.entries, err)
}

// Addf records a parsing error built from a format string
func (l *Log) Addf(game, format string, args ...interface{}) {
	l.Add(NewParsing(game, fmt.Sprintf(format, args...), nil))
}

// Merge appends every entry of other
func (l *Log) Merge(other *Log) {
	if other == nil {
		return
	}
	l.entries = append(l.entries, other.entries...)
}

// Len returns the number of collected errors
func (l *Log) Len() int {
	return len(l.entries)
}

// Entries returns the collected errors
func (l *Log) Entries() []*ScrapeError {
	return l.entries
}

// Messages returns the error strings in insertion order
func (l *Log) Messages() []string {
	messages := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		messages = append(messages, e.Error())
	}
	return messages
}

// Summary renders the log as one block of text, truncated after limit lines.
// A limit <= 0 means no truncation.
func (l *Log) Summary(limit int) string {
	messages := l.Messages()
	if limit > 0 && len(messages) > limit {
		rest := len(messages) - limit
		messages = append(messages[:limit:limit], fmt.Sprintf("... and %d more", rest))
	}
	return strings.Join(messages, "\n")
}
