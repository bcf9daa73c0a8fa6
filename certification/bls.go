package certification

import (
	blst "github.com/supranational/blst/bindings/go"
)

const (
	// PublicKeySize is the size of an unwrapped BLS public key (G2).
	PublicKeySize = 96

	// SignatureSize is the size of a state root signature (G1).
	SignatureSize = 48
)

// blsDST is the ciphersuite domain separation tag for state root
// signatures: minimal-signature-size over BLS12-381.
var blsDST = []byte("BLS_SIG_BLS12381G1_XMD:SHA-256_SSWU_RO_NUL_")

// VerifyFunc checks a BLS signature over a message. Implementations
// return false for signatures that do not verify; an error means the
// check itself could not be performed. Either outcome fails
// verification.
type VerifyFunc func(publicKey, signature, message []byte) (bool, error)

// VerifyBLS is the default signature verifier: a 48-byte G1 signature
// against a 96-byte G2 public key.
func VerifyBLS(publicKey, signature, message []byte) (bool, error) {
	if len(signature) != SignatureSize || len(publicKey) != PublicKeySize {
		return false, nil
	}

	sig := new(blst.P1Affine).Uncompress(signature)
	if sig == nil {
		return false, nil
	}

	pk := new(blst.P2Affine).Uncompress(publicKey)
	if pk == nil {
		return false, nil
	}

	return sig.Verify(true, pk, true, message, blsDST), nil
}
