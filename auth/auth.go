package auth

/*
Keyed message authentication for discovery frames. Both sides hold the
same secret; a frame carries an HMAC-SHA256 over the variant's signed
region to prove the sender knows it. The packets stay plaintext, the MAC
only provides authenticity and integrity.
*/

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"

	"github.com/lancast/lancast/params"
)

// MACSize is the byte length of every MAC this package produces.
const MACSize = sha256.Size

// Sign returns the HMAC-SHA256 of material under secret.
func Sign(material []byte, secret []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(material)
	return mac.Sum(nil)
}

// Verify reports whether candidate is the MAC of material under secret.
// The comparison runs in constant time; an early-exit byte compare would
// leak how much of a forged MAC was correct.
func Verify(material []byte, secret []byte, candidate []byte) bool {
	if len(candidate) != MACSize {
		return false
	}
	return hmac.Equal(Sign(material, secret), candidate)
}

// CheckSecret rejects unusable secrets. A secret shorter than the
// recommended minimum is legal (the reference deployments use short
// ones) so it only produces an error for an empty secret; callers warn
// about short secrets themselves.
func CheckSecret(secret []byte) error {
	if len(secret) == 0 {
		return fmt.Errorf("empty secret")
	}
	return nil
}

// Weak reports whether the secret is below the recommended length.
func Weak(secret []byte) bool {
	return len(secret) < params.MinSecretLen
}
