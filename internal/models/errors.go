package models

import (
	"errors"
	"fmt"
)

// ErrEvaluationInFlight is returned when an evaluation trigger arrives while
// another run owns the session. The caller re-triggers once the run ends;
// there is no queue.
var ErrEvaluationInFlight = errors.New("evaluation already in flight")

// TransportError wraps a network or non-2xx failure at any remote call.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError reports a response that arrived but lacks the
// expected shape. Raw keeps a truncated copy of the body for diagnosis.
type MalformedResponseError struct {
	Op  string
	Raw string
	Err error
}

const rawSnippetLimit = 512

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v (raw: %s)", e.Op, e.Err, e.Raw)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// NewMalformedResponseError truncates raw before storing it.
func NewMalformedResponseError(op, raw string, err error) *MalformedResponseError {
	if len(raw) > rawSnippetLimit {
		raw = raw[:rawSnippetLimit] + "..."
	}
	return &MalformedResponseError{Op: op, Raw: raw, Err: err}
}

// StreamParseError reports a completed stream whose payload could not be
// reconciled into row structure. Distinct from TransportError: the transport
// succeeded, the content contract was violated.
type StreamParseError struct {
	Reason string
}

func (e *StreamParseError) Error() string {
	return fmt.Sprintf("stream payload not reconcilable: %s", e.Reason)
}

// PermissionError reports denied microphone access, relayed by the capture
// client. It never affects recorded answers.
type PermissionError struct {
	Resource string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Resource)
}
