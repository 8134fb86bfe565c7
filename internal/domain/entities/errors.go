package entities

import (
	"errors"
	"fmt"
)

// ErrEmptyMessage rejects blank input before any side effect happens.
var ErrEmptyMessage = errors.New("message is required")

// UpstreamError is a failed embedding or completion call inside the
// retrieval pipeline. The webhook action catches it and answers with a
// fixed fallback utterance instead of crashing the exchange.
type UpstreamError struct {
	Op  string // "embed" or "complete"
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *UpstreamError) Unwrap() error { return e.Err }

// DialogueErrorKind distinguishes how a dialogue-engine call failed.
type DialogueErrorKind int

const (
	DialogueUnreachable DialogueErrorKind = iota
	DialogueTimeout
	DialogueProtocol
)

// DialogueError is a failed dialogue-engine webhook call. The user turn
// stays logged; the kind drives the HTTP status returned to the caller.
type DialogueError struct {
	Kind DialogueErrorKind
	Err  error
}

func (e *DialogueError) Error() string {
	switch e.Kind {
	case DialogueTimeout:
		return fmt.Sprintf("dialogue engine timed out: %v", e.Err)
	case DialogueProtocol:
		return fmt.Sprintf("dialogue engine protocol error: %v", e.Err)
	default:
		return fmt.Sprintf("dialogue engine unreachable: %v", e.Err)
	}
}

func (e *DialogueError) Unwrap() error { return e.Err }

// StorageError wraps a conversation-store failure so handlers can map it
// to a server error without exposing driver detail to end users.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("conversation storage: %v", e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// IndexIntegrityError means the vector index and metadata artifacts do not
// come from the same ingestion pass. Fatal at startup; the process must
// refuse to serve on it.
type IndexIntegrityError struct {
	IndexLen int
	MetaLen  int
}

func (e *IndexIntegrityError) Error() string {
	return fmt.Sprintf("index/metadata length mismatch: index has %d vectors, metadata has %d records", e.IndexLen, e.MetaLen)
}
