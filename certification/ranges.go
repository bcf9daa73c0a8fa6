package certification

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"icagent/principal"
)

// CheckCanisterRanges reports whether a canister falls inside any of the
// [low, high] pairs in a CBOR-encoded range list. Bounds compare as
// unsigned byte strings with both ends inclusive.
func CheckCanisterRanges(rangesCBOR []byte, canisterID principal.Principal) (bool, error) {
	var pairs [][][]byte
	if err := cbor.Unmarshal(stripSelfDescribe(rangesCBOR), &pairs); err != nil {
		return false, &MalformedCertificateError{Reason: "canister range list is not valid cbor", Err: err}
	}

	for i, pair := range pairs {
		if len(pair) != 2 {
			return false, &MalformedCertificateError{
				Reason: fmt.Sprintf("canister range %d has %d bounds, want 2", i, len(pair)),
			}
		}

		if bytes.Compare(canisterID.Raw, pair[0]) >= 0 && bytes.Compare(canisterID.Raw, pair[1]) <= 0 {
			return true, nil
		}
	}

	return false, nil
}

// selfDescribeTag is the CBOR self-describe tag prefix (55799) some
// encoders place in front of the payload.
var selfDescribeTag = []byte{0xd9, 0xd9, 0xf7}

// stripSelfDescribe removes a leading self-describe tag, if present.
func stripSelfDescribe(data []byte) []byte {
	if bytes.HasPrefix(data, selfDescribeTag) {
		return data[len(selfDescribeTag):]
	}
	return data
}
