package users

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"

	"golang.org/x/crypto/argon2"
)

// SaltSize is the number of random bytes in a password salt.
const SaltSize = 16

// tempPasswordAlphabet excludes visually confusable characters (0/O/o,
// 1/l/I/i) so a password read over the phone survives transcription.
const tempPasswordAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

// TempPasswordLength is the default length of generated temporary passwords.
const TempPasswordLength = 12

// HashPassword derives the stored password hash from a password and salt
// using Argon2id.
func HashPassword(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
}

// CheckPassword recomputes the hash with the stored salt and compares it in
// constant time.
func CheckPassword(password string, salt, hash []byte) bool {
	candidate := HashPassword(password, salt)
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}

// GenerateTemporaryPassword returns a password of the given length drawn
// uniformly from the ambiguity-reduced alphabet using the system
// cryptographic random source. The result is shown once to the caller and
// never persisted in plain form.
func GenerateTemporaryPassword(length int) (string, error) {
	if length <= 0 {
		length = TempPasswordLength
	}

	max := big.NewInt(int64(len(tempPasswordAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = tempPasswordAlphabet[n.Int64()]
	}
	return string(out), nil
}
