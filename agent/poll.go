package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"icagent/certification"
	"icagent/hashing"
	"icagent/hashtree"
	"icagent/internal/leb128"
	"icagent/principal"
)

// Status is the lifecycle state of a submitted call.
type Status string

const (
	// StatusReceived means the call was accepted but not yet scheduled.
	StatusReceived Status = "received"

	// StatusProcessing means the call is executing.
	StatusProcessing Status = "processing"

	// StatusReplied means the call produced a reply.
	StatusReplied Status = "replied"

	// StatusRejected means the platform refused the call.
	StatusRejected Status = "rejected"

	// StatusDone means the call finished and its reply was evicted.
	StatusDone Status = "done"

	// StatusUnknown means the platform has no record of the call yet.
	StatusUnknown Status = "unknown"
)

// Strategy decides how long to wait before the next poll round. It
// returns an error to give up; the error is surfaced to the caller.
type Strategy func(ctx context.Context, requestID hashing.RequestID, round int) error

// DefaultStrategy waits with exponential backoff between rounds,
// starting at half a second and capping the interval at five seconds.
func DefaultStrategy() Strategy {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.Multiplier = 1.5
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0

	return func(ctx context.Context, requestID hashing.RequestID, round int) error {
		wait := b.NextBackOff()

		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
}

// Transport is the slice of an Agent that polling needs. Agent
// implements it; tests substitute their own.
type Transport interface {
	// RootKey returns the DER-wrapped root of trust.
	RootKey() []byte

	// CreateReadStateRequest signs a read_state request for the paths.
	CreateReadStateRequest(paths [][]hashtree.Label) (*ReadStateRequest, error)

	// ReadState submits a pre-signed request and returns the raw
	// certificate bytes.
	ReadState(ctx context.Context, canisterID principal.Principal, req *ReadStateRequest) ([]byte, error)
}

// PollOptions tunes a polling loop. The zero value polls with the
// default strategy and full certificate verification.
type PollOptions struct {
	// Strategy paces the poll rounds. Defaults to DefaultStrategy.
	Strategy Strategy

	// Request reuses an existing pre-signed read_state request instead
	// of signing a fresh one.
	Request *ReadStateRequest

	// VerifySignature overrides the BLS verifier for certificates.
	VerifySignature certification.VerifyFunc

	// MaxCertificateAge bounds how old accepted certificates may be.
	MaxCertificateAge time.Duration

	// DisableTimeVerification skips certificate freshness checks.
	DisableTimeVerification bool
}

// PollForResponse polls the status of a submitted call until it
// reaches a terminal state. Replied returns the certified reply
// argument; rejected returns a RejectError; done without an observed
// reply returns a DoneWithoutReplyError. Every certificate is fully
// verified before its contents are trusted.
func PollForResponse(ctx context.Context, transport Transport, canisterID principal.Principal, requestID hashing.RequestID, opts PollOptions) ([]byte, error) {
	strategy := opts.Strategy
	if strategy == nil {
		strategy = DefaultStrategy()
	}

	statusPath := []hashtree.Label{
		hashtree.Label("request_status"),
		requestID[:],
	}

	req := opts.Request
	if req == nil {
		var err error
		req, err = transport.CreateReadStateRequest([][]hashtree.Label{statusPath})
		if err != nil {
			return nil, err
		}
	}

	for round := 0; ; round++ {
		if round > 0 {
			if err := strategy(ctx, requestID, round); err != nil {
				return nil, fmt.Errorf("give up polling request %s:\n%w", requestID, err)
			}
		}

		raw, err := transport.ReadState(ctx, canisterID, req)
		if err != nil {
			return nil, err
		}

		cert, err := certification.New(certification.Config{
			Certificate:             raw,
			RootKey:                 transport.RootKey(),
			CanisterID:              canisterID,
			VerifySignature:         opts.VerifySignature,
			MaxAge:                  opts.MaxCertificateAge,
			DisableTimeVerification: opts.DisableTimeVerification,
		})
		if err != nil {
			return nil, err
		}

		status := lookupStatus(cert, statusPath)

		switch status {
		case StatusReplied:
			res := cert.Lookup(append(statusPath, hashtree.Label("reply"))...)
			if res.Status != hashtree.LookupFound {
				return nil, fmt.Errorf("call %s replied but certificate has no reply", requestID)
			}
			return res.Value, nil

		case StatusRejected:
			return nil, lookupReject(cert, statusPath, requestID)

		case StatusDone:
			return nil, &DoneWithoutReplyError{}

		case StatusReceived, StatusProcessing, StatusUnknown:
			// Keep polling.

		default:
			return nil, fmt.Errorf("call %s has unexpected status %q", requestID, status)
		}
	}
}

// lookupStatus reads the certified status of a call. An absent or
// pruned status leaf means the platform has not recorded the call yet.
func lookupStatus(cert *certification.Certificate, statusPath []hashtree.Label) Status {
	res := cert.Lookup(append(statusPath, hashtree.Label("status"))...)
	if res.Status != hashtree.LookupFound {
		return StatusUnknown
	}
	return Status(res.Value)
}

// lookupReject assembles the RejectError certified for a rejected call.
func lookupReject(cert *certification.Certificate, statusPath []hashtree.Label, requestID hashing.RequestID) error {
	code := cert.Lookup(append(statusPath, hashtree.Label("reject_code"))...)
	if code.Status != hashtree.LookupFound {
		return fmt.Errorf("call %s rejected but certificate has no reject code", requestID)
	}

	rejectCode, err := leb128.DecodeUint64(code.Value)
	if err != nil {
		return fmt.Errorf("decode reject code for call %s:\n%w", requestID, err)
	}

	message := cert.Lookup(append(statusPath, hashtree.Label("reject_message"))...)
	if message.Status != hashtree.LookupFound {
		return fmt.Errorf("call %s rejected but certificate has no reject message", requestID)
	}

	return &RejectError{
		Code:    rejectCode,
		Message: string(message.Value),
	}
}
