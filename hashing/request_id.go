package hashing

import "encoding/hex"

// RequestID identifies a submitted request. It is the
// representation-independent hash of the request content map and is
// deliberately a distinct type from a plain byte string.
type RequestID [32]byte

// RequestIDOf derives the request identifier from a request content map.
func RequestIDOf(content map[string]any) (RequestID, error) {
	sum, err := hashMap(content)
	if err != nil {
		return RequestID{}, err
	}

	return RequestID(sum), nil
}

// String returns the identifier in hex for logs and errors.
func (id RequestID) String() string {
	return hex.EncodeToString(id[:])
}
