// Package agent submits calls and queries to the platform, reads
// certified state back and verifies every certificate before any value
// is surfaced to the caller.
package agent

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/quic-go/quic-go/http3"

	"icagent/certification"
	"icagent/hashing"
	"icagent/hashtree"
	"icagent/identity"
	"icagent/internal/logger"
	"icagent/principal"
)

// mainnetRootKeyHex is the pinned DER-wrapped BLS public key of the
// mainnet root of trust.
const mainnetRootKeyHex = "308182301d060d2b0601040182dc7c0503010201060c2b0601040182dc7c05030201036100814c0e6ec71fab583b08bd81373c255c3c371b2e84863c98a4f1e08b74235d14fb5d9c0cd546d9685f913a0c0b2cc5341583bf4b4392e467db96d65b9bb4cb717112f8472e0d5a4d14505ffd7484b01291091c5f87b98883463f98091a0baaae"

// MainnetRootKey returns the pinned mainnet root key in DER form.
func MainnetRootKey() []byte {
	key, err := hex.DecodeString(mainnetRootKeyHex)
	if err != nil {
		panic(fmt.Sprintf("decode mainnet root key: %v", err))
	}
	return key
}

// defaultIngressExpiry is how far in the future submitted requests
// expire when the config does not say otherwise.
const defaultIngressExpiry = 4 * time.Minute

// Config describes how to construct an Agent.
type Config struct {
	// Host is the base URL of the platform endpoint.
	Host *url.URL

	// Identity signs outgoing envelopes. Defaults to the anonymous
	// identity.
	Identity identity.Identity

	// HTTPClient overrides the HTTP client used for all requests.
	HTTPClient *http.Client

	// UseHTTP3 switches the default client onto an HTTP/3 transport.
	// Ignored when HTTPClient is set.
	UseHTTP3 bool

	// IngressExpiry is how far in the future submitted requests expire.
	// Zero means defaultIngressExpiry.
	IngressExpiry time.Duration

	// RootKey is the DER-wrapped root of trust. Defaults to the mainnet
	// root key.
	RootKey []byte

	// VerifySignature overrides the BLS verifier used for certificates.
	VerifySignature certification.VerifyFunc

	// MaxCertificateAge bounds how old accepted certificates may be.
	// Zero means certification.DefaultMaxAge.
	MaxCertificateAge time.Duration

	// DisableTimeVerification skips certificate freshness checks.
	DisableTimeVerification bool
}

// Agent is a client bound to one endpoint, one identity and one root of
// trust. It is safe for concurrent use.
type Agent struct {
	host   *url.URL
	client *http.Client
	id     identity.Identity

	rootKey       []byte
	ingressExpiry time.Duration
	verify        certification.VerifyFunc
	maxAge        time.Duration
	disableTime   bool

	log *logger.Logger
}

// New constructs an agent from the config, filling in defaults for
// every optional field.
func New(cfg Config) (*Agent, error) {
	if cfg.Host == nil {
		return nil, fmt.Errorf("agent config has no host")
	}

	id := cfg.Identity
	if id == nil {
		id = identity.Anonymous{}
	}

	client := cfg.HTTPClient
	if client == nil {
		if cfg.UseHTTP3 {
			client = &http.Client{Transport: &http3.Transport{}}
		} else {
			client = &http.Client{}
		}
	}

	rootKey := cfg.RootKey
	if rootKey == nil {
		rootKey = MainnetRootKey()
	}

	expiry := cfg.IngressExpiry
	if expiry == 0 {
		expiry = defaultIngressExpiry
	}

	return &Agent{
		host:          cfg.Host,
		client:        client,
		id:            id,
		rootKey:       rootKey,
		ingressExpiry: expiry,
		verify:        cfg.VerifySignature,
		maxAge:        cfg.MaxCertificateAge,
		disableTime:   cfg.DisableTimeVerification,
		log:           logger.New("agent"),
	}, nil
}

// Sender returns the principal this agent sends requests as.
func (a *Agent) Sender() principal.Principal {
	return a.id.Sender()
}

// RootKey returns the DER-wrapped root of trust the agent verifies
// certificates against.
func (a *Agent) RootKey() []byte {
	return a.rootKey
}

// expiry returns the ingress expiry for a request submitted now.
func (a *Agent) expiry() Expiry {
	return NewExpiry(time.Now().Add(a.ingressExpiry))
}

// Call submits an update call and returns its request id. The call is
// accepted for execution, not yet executed; poll for the outcome with
// PollForResponse or use CallAndWait.
func (a *Agent) Call(ctx context.Context, canisterID principal.Principal, method string, arg []byte) (hashing.RequestID, error) {
	nonce, err := newNonce()
	if err != nil {
		return hashing.RequestID{}, err
	}

	content := callContent{
		RequestType:   "call",
		Sender:        a.id.Sender().Raw,
		Nonce:         nonce,
		IngressExpiry: a.expiry(),
		CanisterID:    canisterID.Raw,
		MethodName:    method,
		Arg:           arg,
	}

	envelope, requestID, err := a.signEnvelope(content, content.hashable())
	if err != nil {
		return hashing.RequestID{}, err
	}

	a.log.Debug("submitting call",
		"canister", canisterID,
		"method", method,
		"request_id", requestID)

	endpoint := fmt.Sprintf("/api/v2/canister/%s/call", canisterID)
	if _, err := a.post(ctx, endpoint, envelope); err != nil {
		return hashing.RequestID{}, err
	}

	return requestID, nil
}

// queryResponse is the wire form of a query reply.
type queryResponse struct {
	Status     string `cbor:"status"`
	Reply      struct {
		Arg []byte `cbor:"arg"`
	} `cbor:"reply"`
	RejectCode    uint64 `cbor:"reject_code"`
	RejectMessage string `cbor:"reject_message"`
}

// Query performs a read-only query and returns the reply argument.
// Rejections surface as a RejectError.
func (a *Agent) Query(ctx context.Context, canisterID principal.Principal, method string, arg []byte) ([]byte, error) {
	content := queryContent{
		RequestType:   "query",
		Sender:        a.id.Sender().Raw,
		IngressExpiry: a.expiry(),
		CanisterID:    canisterID.Raw,
		MethodName:    method,
		Arg:           arg,
	}

	envelope, requestID, err := a.signEnvelope(content, content.hashable())
	if err != nil {
		return nil, err
	}

	a.log.Debug("submitting query",
		"canister", canisterID,
		"method", method,
		"request_id", requestID)

	endpoint := fmt.Sprintf("/api/v2/canister/%s/query", canisterID)
	body, err := a.post(ctx, endpoint, envelope)
	if err != nil {
		return nil, err
	}

	var response queryResponse
	if err := cbor.Unmarshal(stripSelfDescribe(body), &response); err != nil {
		return nil, fmt.Errorf("decode query response:\n%w", err)
	}

	switch response.Status {
	case "replied":
		return response.Reply.Arg, nil
	case "rejected":
		return nil, &RejectError{
			Code:    response.RejectCode,
			Message: response.RejectMessage,
		}
	default:
		return nil, fmt.Errorf("query response has unknown status %q", response.Status)
	}
}

// ReadStateRequest is a pre-signed read_state request. Its envelope can
// be resubmitted verbatim on every poll round, so the request id and
// signature are derived once.
type ReadStateRequest struct {
	// Envelope is the encoded, signed request body.
	Envelope []byte

	// RequestID is the id the envelope was signed over.
	RequestID hashing.RequestID

	// Paths are the state paths the request asks for.
	Paths [][]hashtree.Label
}

// CreateReadStateRequest signs a read_state request for the given paths
// without submitting it.
func (a *Agent) CreateReadStateRequest(paths [][]hashtree.Label) (*ReadStateRequest, error) {
	content := readStateContent{
		RequestType:   "read_state",
		Sender:        a.id.Sender().Raw,
		IngressExpiry: a.expiry(),
		Paths:         encodePaths(paths),
	}

	envelope, requestID, err := a.signEnvelope(content, content.hashable())
	if err != nil {
		return nil, err
	}

	return &ReadStateRequest{
		Envelope:  envelope,
		RequestID: requestID,
		Paths:     paths,
	}, nil
}

// readStateResponse is the wire form of a read_state reply.
type readStateResponse struct {
	Certificate []byte `cbor:"certificate"`
}

// ReadState submits a pre-signed read_state request and returns the raw
// certificate bytes. The certificate is not verified here; callers hand
// it to the certification package.
func (a *Agent) ReadState(ctx context.Context, canisterID principal.Principal, req *ReadStateRequest) ([]byte, error) {
	endpoint := fmt.Sprintf("/api/v2/canister/%s/read_state", canisterID)
	body, err := a.post(ctx, endpoint, req.Envelope)
	if err != nil {
		return nil, err
	}

	var response readStateResponse
	if err := cbor.Unmarshal(stripSelfDescribe(body), &response); err != nil {
		return nil, fmt.Errorf("decode read_state response:\n%w", err)
	}

	if len(response.Certificate) == 0 {
		return nil, fmt.Errorf("read_state response has no certificate")
	}

	return response.Certificate, nil
}

// ReadStatePath reads a single certified state path and returns the
// value at it. The certificate is fully verified first.
func (a *Agent) ReadStatePath(ctx context.Context, canisterID principal.Principal, path ...hashtree.Label) ([]byte, error) {
	req, err := a.CreateReadStateRequest([][]hashtree.Label{path})
	if err != nil {
		return nil, err
	}

	raw, err := a.ReadState(ctx, canisterID, req)
	if err != nil {
		return nil, err
	}

	cert, err := certification.New(certification.Config{
		Certificate:             raw,
		RootKey:                 a.rootKey,
		CanisterID:              canisterID,
		VerifySignature:         a.verify,
		MaxAge:                  a.maxAge,
		DisableTimeVerification: a.disableTime,
	})
	if err != nil {
		return nil, err
	}

	res := cert.Lookup(path...)
	if res.Status != hashtree.LookupFound {
		return nil, fmt.Errorf("state path is %s", res.Status)
	}

	return res.Value, nil
}

// CallAndWait submits an update call and polls until it finalizes,
// returning the certified reply argument.
func (a *Agent) CallAndWait(ctx context.Context, canisterID principal.Principal, method string, arg []byte) ([]byte, error) {
	requestID, err := a.Call(ctx, canisterID, method, arg)
	if err != nil {
		return nil, err
	}

	return PollForResponse(ctx, a, canisterID, requestID, PollOptions{
		VerifySignature:         a.verify,
		MaxCertificateAge:       a.maxAge,
		DisableTimeVerification: a.disableTime,
	})
}
