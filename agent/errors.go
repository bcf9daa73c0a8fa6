package agent

import "fmt"

// RejectError reports a call the platform explicitly rejected.
type RejectError struct {
	// Code is the reject code certified by the platform.
	Code uint64

	// Message is the certified human-readable reject message.
	Message string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("call rejected: code %d: %s", e.Code, e.Message)
}

// DoneWithoutReplyError reports a call that reached the Done state
// before its reply was observed; the reply has been evicted.
type DoneWithoutReplyError struct{}

func (e *DoneWithoutReplyError) Error() string {
	return "call is done but its reply is no longer retained"
}

// TransportError wraps a failure in the underlying transport.
type TransportError struct {
	// Operation names the transport operation that failed.
	Operation string

	// Err is the underlying failure.
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s failed: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
