package agent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/klauspost/compress/gzip"
)

// post submits a CBOR body to an endpoint under the agent's host and
// returns the response body. Both 200 and 202 count as accepted; 202 is
// what call submission returns and carries no body.
func (a *Agent) post(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	target := a.host.JoinPath(endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request for %s:\n%w", endpoint, err)
	}

	req.Header.Set("Content-Type", "application/cbor")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &TransportError{Operation: endpoint, Err: err}
	}
	defer resp.Body.Close()

	payload, err := decodeBody(resp)
	if err != nil {
		return nil, &TransportError{Operation: endpoint, Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		return payload, nil
	default:
		return nil, &TransportError{
			Operation: endpoint,
			Err:       fmt.Errorf("status %d: %s", resp.StatusCode, payload),
		}
	}
}

// decodeBody reads a response body, transparently gunzipping it when
// the server compressed it. Setting Accept-Encoding by hand turns off
// the transport's automatic decompression, so it happens here.
func decodeBody(resp *http.Response) ([]byte, error) {
	reader := io.Reader(resp.Body)

	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("open gzip body:\n%w", err)
		}
		defer gz.Close()
		reader = gz
	}

	payload, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read body:\n%w", err)
	}

	return payload, nil
}

// selfDescribeTag is the CBOR self-describe tag prefix some encoders
// place in front of the payload.
var selfDescribeTag = []byte{0xd9, 0xd9, 0xf7}

// stripSelfDescribe removes a leading self-describe tag, if present.
func stripSelfDescribe(data []byte) []byte {
	if bytes.HasPrefix(data, selfDescribeTag) {
		return data[len(selfDescribeTag):]
	}
	return data
}
