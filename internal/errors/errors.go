// Package errors defines the failure taxonomy of the scraping engine.
//
// Every error that crosses a component boundary carries a Kind. The kind,
// not the error text, decides whether an attempt is retried, whether the
// session that produced it is considered compromised, and whether the whole
// run must abort.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure for retry and taint decisions.
type Kind int

const (
	// KindUnknown is the zero value; treated as fatal for the task.
	KindUnknown Kind = iota

	// KindTransientNetwork covers navigation timeouts, DNS failures and
	// connection resets. Retryable; the session stays clean.
	KindTransientNetwork

	// KindDetectionBlocked means the target served a challenge, captcha or
	// login wall. Retryable; the session is assumed compromised.
	KindDetectionBlocked

	// KindTaskTimeout means the overall task budget expired. Retryable; the
	// in-flight browser state is unknown so the session is recycled.
	KindTaskTimeout

	// KindCollaborator means the injected extractor rejected a page that
	// loaded fine. Retrying the same page cannot help.
	KindCollaborator

	// KindSessionCreation means a browser session failed to launch.
	KindSessionCreation

	// KindFatalConfiguration means invalid configuration or exhausted
	// session-creation retries. Aborts the run.
	KindFatalConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindTransientNetwork:
		return "transient_network"
	case KindDetectionBlocked:
		return "detection_blocked"
	case KindTaskTimeout:
		return "task_timeout"
	case KindCollaborator:
		return "collaborator"
	case KindSessionCreation:
		return "session_creation"
	case KindFatalConfiguration:
		return "fatal_configuration"
	default:
		return "unknown"
	}
}

// Error is a classified failure with an operation label for logs.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with a kind and operation label.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds a classified error from a format string.
func Newf(kind Kind, op string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the kind from an error chain. Plain context deadline
// errors count as task timeouts so callers need no special casing.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTaskTimeout
	}
	return KindUnknown
}

// Retryable reports whether another attempt at the same URL can succeed.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindTransientNetwork, KindDetectionBlocked, KindTaskTimeout:
		return true
	}
	return false
}

// RunFatal reports whether the failure must abort the whole run rather
// than a single task.
func RunFatal(err error) bool {
	return KindOf(err) == KindFatalConfiguration
}

// Navigation error fragments emitted by Chromium's network stack. A goto
// that fails with one of these is a network problem, not a page problem.
var networkErrorMarkers = []string{
	"net::err_",
	"name_not_resolved",
	"connection_reset",
	"connection_refused",
	"connection reset",
	"connection refused",
	"no such host",
	"i/o timeout",
	"tls handshake",
	"context deadline exceeded",
	"timeout",
	"dns",
}

// ClassifyNavigation turns a raw navigation failure into a classified one.
// Deadline expiry on the task context wins over string matching because it
// reflects the task budget, not the network. Failures that match no known
// network marker stay unclassified and end the task without retry.
func ClassifyNavigation(ctx context.Context, err error) *Error {
	if err == nil {
		return nil
	}
	if ctx != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return New(KindTaskTimeout, "navigate", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(KindTransientNetwork, "navigate", err)
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range networkErrorMarkers {
		if strings.Contains(msg, marker) {
			return New(KindTransientNetwork, "navigate", err)
		}
	}
	return New(KindUnknown, "navigate", err)
}
