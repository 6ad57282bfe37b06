package ingest

import "fmt"

// TransportError reports a failure to acquire bytes: an unreadable file,
// a connection error, or a non-success HTTP status. Distinct from decode
// failures so the user can tell a network problem from a corrupt file.
type TransportError struct {
	Source string
	Status int // HTTP status when applicable, 0 otherwise
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.Source, e.Status)
	}
	return fmt.Sprintf("read %s: %v", e.Source, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports bytes that were acquired but could not be turned
// into text: a malformed gzip stream or invalid UTF-8.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode artifact: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode artifact: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }
