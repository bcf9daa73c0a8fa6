package certification

import (
	"fmt"
	"time"

	"icagent/principal"
)

// MalformedCertificateError reports certificate bytes that could not be
// decoded into a tree, signature and optional delegation.
type MalformedCertificateError struct {
	// Reason describes what was malformed.
	Reason string

	// Err is the underlying decode error, if any.
	Err error
}

func (e *MalformedCertificateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed certificate: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed certificate: %s", e.Reason)
}

func (e *MalformedCertificateError) Unwrap() error {
	return e.Err
}

// MalformedDERError reports a public key that does not match the
// expected DER envelope for BLS12-381 G2 keys.
type MalformedDERError struct {
	// Length is the length of the rejected key.
	Length int

	// Reason describes the mismatch.
	Reason string
}

func (e *MalformedDERError) Error() string {
	return fmt.Sprintf("malformed DER public key (%d bytes): %s", e.Length, e.Reason)
}

// NestedDelegationError reports a delegation whose inner certificate
// itself carries a delegation, which is forbidden.
type NestedDelegationError struct{}

func (e *NestedDelegationError) Error() string {
	return "delegation certificates cannot be delegated further"
}

// CanisterRangeError reports a canister outside every range the subnet
// is authorized for.
type CanisterRangeError struct {
	// CanisterID is the canister that was looked up.
	CanisterID principal.Principal

	// SubnetID is the subnet claiming authority.
	SubnetID principal.Principal
}

func (e *CanisterRangeError) Error() string {
	return fmt.Sprintf("canister %s is not in any range of subnet %s", e.CanisterID, e.SubnetID)
}

// MissingSubnetKeyError reports a delegation tree without a public key
// for the subnet.
type MissingSubnetKeyError struct {
	// SubnetID is the subnet whose key was missing.
	SubnetID principal.Principal
}

func (e *MissingSubnetKeyError) Error() string {
	return fmt.Sprintf("no public key for subnet %s in delegation certificate", e.SubnetID)
}

// MissingTimeError reports a certificate without a time entry.
type MissingTimeError struct{}

func (e *MissingTimeError) Error() string {
	return "certificate does not certify a time"
}

// CertificateExpiredError reports a certificate older than the allowed
// window.
type CertificateExpiredError struct {
	// CertTime is the time the certificate certifies.
	CertTime time.Time

	// EarliestAllowed is the oldest acceptable certificate time.
	EarliestAllowed time.Time
}

func (e *CertificateExpiredError) Error() string {
	return fmt.Sprintf("certificate is too old: certified at %s, accepting no older than %s",
		e.CertTime.UTC().Format(time.RFC3339Nano), e.EarliestAllowed.UTC().Format(time.RFC3339Nano))
}

// CertificateFromFutureError reports a certificate timestamped further
// ahead than permitted clock drift.
type CertificateFromFutureError struct {
	// CertTime is the time the certificate certifies.
	CertTime time.Time

	// LatestAllowed is the newest acceptable certificate time.
	LatestAllowed time.Time
}

func (e *CertificateFromFutureError) Error() string {
	return fmt.Sprintf("certificate is from the future: certified at %s, accepting no newer than %s",
		e.CertTime.UTC().Format(time.RFC3339Nano), e.LatestAllowed.UTC().Format(time.RFC3339Nano))
}

// SignatureError reports a state-root signature that did not verify.
type SignatureError struct {
	// Err is the verifier failure, if verification errored rather than
	// merely returning false.
	Err error
}

func (e *SignatureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid state root signature: %v", e.Err)
	}
	return "invalid state root signature"
}

func (e *SignatureError) Unwrap() error {
	return e.Err
}
