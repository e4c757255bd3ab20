package common

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateRandByteArray returns size cryptographically random bytes.
// It panics if the system random source fails, which is unrecoverable anyway.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// MakeRandHexString generates a random hexadecimal string of the given size.
// The size parameter specifies the number of random bytes to generate, so the
// final string length is twice the size.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// WipeByteArray overwrites the contents of the provided byte slice with
// zeros. Useful for removing passwords from memory after use. A nil slice is
// a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
