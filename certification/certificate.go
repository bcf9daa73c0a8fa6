// Package certification decodes and verifies the signed, partially
// pruned state trees returned by the platform. A Certificate is only
// obtainable in verified form: construction runs the full pipeline
// (root hash, delegation resolution, DER unwrap, freshness, BLS
// signature) and fails with a typed error otherwise.
package certification

import (
	"time"

	"github.com/fxamacker/cbor/v2"

	"icagent/hashtree"
	"icagent/internal/leb128"
	"icagent/principal"
)

const (
	// DefaultMaxAge is how far in the past a certificate time may lie.
	DefaultMaxAge = 5 * time.Minute

	// maxClockDrift is how far in the future a certificate time may lie.
	maxClockDrift = 5 * time.Minute
)

// timeNow is stubbed in tests to pin the verification clock.
var timeNow = time.Now

// Delegation transfers signing authority from the root key to a subnet
// key, bounded by the subnet's canister ranges.
type Delegation struct {
	// SubnetID is the raw principal of the delegated subnet.
	SubnetID []byte `cbor:"subnet_id"`

	// Certificate is a nested certificate, decoded and verified in its
	// own right to extract the subnet public key.
	Certificate []byte `cbor:"certificate"`
}

// Config describes how to decode and verify a certificate.
type Config struct {
	// Certificate is the raw CBOR-encoded certificate.
	Certificate []byte

	// RootKey is the pinned DER-wrapped BLS public key of the root of
	// trust.
	RootKey []byte

	// CanisterID is the canister this certificate must speak for.
	CanisterID principal.Principal

	// VerifySignature overrides the BLS verifier. Defaults to VerifyBLS.
	VerifySignature VerifyFunc

	// MaxAge bounds how old the certificate time may be. Zero means
	// DefaultMaxAge; a negative value disables the age bound.
	MaxAge time.Duration

	// DisableTimeVerification skips the freshness check entirely.
	DisableTimeVerification bool
}

// Certificate is a verified state tree. It is immutable and supports
// only lookup after construction.
type Certificate struct {
	tree       hashtree.Node
	signature  []byte
	delegation *Delegation

	canisterID  principal.Principal
	rootKey     []byte
	verify      VerifyFunc
	maxAge      time.Duration
	disableTime bool
}

// rawCertificate is the wire form before the tree is decoded.
type rawCertificate struct {
	Tree       cbor.RawMessage `cbor:"tree"`
	Signature  []byte          `cbor:"signature"`
	Delegation *Delegation     `cbor:"delegation"`
}

// New decodes and fully verifies a certificate. No unverified
// certificate is ever returned.
func New(cfg Config) (*Certificate, error) {
	c, err := parse(cfg)
	if err != nil {
		return nil, err
	}

	if err := c.verifyCertificate(); err != nil {
		return nil, err
	}

	return c, nil
}

// parse decodes certificate bytes without verifying them. It is the
// only way to hold an unverified certificate, and stays private so
// such a value can never escape this package.
func parse(cfg Config) (*Certificate, error) {
	var raw rawCertificate
	if err := cbor.Unmarshal(stripSelfDescribe(cfg.Certificate), &raw); err != nil {
		return nil, &MalformedCertificateError{Reason: "not a cbor certificate map", Err: err}
	}

	if len(raw.Tree) == 0 {
		return nil, &MalformedCertificateError{Reason: "certificate has no tree"}
	}

	tree, err := hashtree.Deserialize(raw.Tree)
	if err != nil {
		return nil, err
	}

	if len(raw.Signature) != SignatureSize {
		return nil, &MalformedCertificateError{
			Reason: "signature is not 48 bytes",
		}
	}

	verify := cfg.VerifySignature
	if verify == nil {
		verify = VerifyBLS
	}

	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = DefaultMaxAge
	}

	return &Certificate{
		tree:        tree,
		signature:   raw.Signature,
		delegation:  raw.Delegation,
		canisterID:  cfg.CanisterID,
		rootKey:     cfg.RootKey,
		verify:      verify,
		maxAge:      maxAge,
		disableTime: cfg.DisableTimeVerification,
	}, nil
}

// verifyCertificate runs the verification pipeline in order: root hash,
// delegation resolution, DER unwrap, freshness, signature.
func (c *Certificate) verifyCertificate() error {
	rootHash := hashtree.Reconstruct(c.tree)

	derKey, err := c.signingKey()
	if err != nil {
		return err
	}

	key, err := ExtractDER(derKey)
	if err != nil {
		return err
	}

	if !c.disableTime {
		if err := c.verifyTime(); err != nil {
			return err
		}
	}

	message := append(hashtree.DomainSeparator("ic-state-root"), rootHash[:]...)

	ok, err := c.verify(key, c.signature, message)
	if err != nil {
		return &SignatureError{Err: err}
	}
	if !ok {
		return &SignatureError{}
	}

	return nil
}

// signingKey resolves the DER-wrapped public key this certificate must
// be signed with: the pinned root key, or the subnet key extracted from
// a verified delegation.
func (c *Certificate) signingKey() ([]byte, error) {
	if c.delegation == nil {
		return c.rootKey, nil
	}

	d := c.delegation
	subnetID := principal.Principal{Raw: d.SubnetID}

	// Delegations outlive the freshness window of the certificates they
	// vouch for, so the inner certificate carries no age bound.
	inner, err := parse(Config{
		Certificate:             d.Certificate,
		RootKey:                 c.rootKey,
		CanisterID:              c.canisterID,
		VerifySignature:         c.verify,
		MaxAge:                  -1,
		DisableTimeVerification: c.disableTime,
	})
	if err != nil {
		return nil, err
	}

	if inner.delegation != nil {
		return nil, &NestedDelegationError{}
	}

	if err := inner.verifyCertificate(); err != nil {
		return nil, err
	}

	if !c.canisterID.Equal(principal.ManagementCanister()) {
		ranges := inner.Lookup(hashtree.Label("subnet"), d.SubnetID, hashtree.Label("canister_ranges"))
		if ranges.Status != hashtree.LookupFound {
			return nil, &CanisterRangeError{CanisterID: c.canisterID, SubnetID: subnetID}
		}

		within, err := CheckCanisterRanges(ranges.Value, c.canisterID)
		if err != nil {
			return nil, err
		}
		if !within {
			return nil, &CanisterRangeError{CanisterID: c.canisterID, SubnetID: subnetID}
		}
	}

	key := inner.Lookup(hashtree.Label("subnet"), d.SubnetID, hashtree.Label("public_key"))
	if key.Status != hashtree.LookupFound {
		return nil, &MissingSubnetKeyError{SubnetID: subnetID}
	}

	return key.Value, nil
}

// verifyTime checks the certified time against the acceptance window.
// Both window edges are inclusive.
func (c *Certificate) verifyTime() error {
	res := c.Lookup(hashtree.Label("time"))
	if res.Status != hashtree.LookupFound {
		return &MissingTimeError{}
	}

	nanos, err := leb128.DecodeUint64(res.Value)
	if err != nil {
		return &MalformedCertificateError{Reason: "certified time is not valid leb128", Err: err}
	}

	certTime := time.Unix(0, int64(nanos))
	now := timeNow()

	if c.maxAge >= 0 {
		earliest := now.Add(-c.maxAge)
		if certTime.Before(earliest) {
			return &CertificateExpiredError{CertTime: certTime, EarliestAllowed: earliest}
		}
	}

	latest := now.Add(maxClockDrift)
	if certTime.After(latest) {
		return &CertificateFromFutureError{CertTime: certTime, LatestAllowed: latest}
	}

	return nil
}

// Lookup resolves a path to the leaf value certified at it.
func (c *Certificate) Lookup(path ...hashtree.Label) hashtree.LookupResult {
	return hashtree.LookupPath(c.tree, path...)
}

// LookupSubtree resolves a path to the certified subtree rooted at it.
func (c *Certificate) LookupSubtree(path ...hashtree.Label) (hashtree.Node, hashtree.LookupStatus) {
	return hashtree.LookupSubtree(c.tree, path...)
}

// Time returns the certified time of the certificate.
func (c *Certificate) Time() (time.Time, error) {
	res := c.Lookup(hashtree.Label("time"))
	if res.Status != hashtree.LookupFound {
		return time.Time{}, &MissingTimeError{}
	}

	nanos, err := leb128.DecodeUint64(res.Value)
	if err != nil {
		return time.Time{}, &MalformedCertificateError{Reason: "certified time is not valid leb128", Err: err}
	}

	return time.Unix(0, int64(nanos)), nil
}
