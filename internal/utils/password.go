package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltLength        = 12
	HashIterations    = 100_000
	HashKeyLength     = 32
	PasswordSeparator = "$"

	saltAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// ErrMalformedCredential is returned when a stored password is not salt$digest.
var ErrMalformedCredential = errors.New("malformed credential record")

var alphabetSize = big.NewInt(int64(len(saltAlphabet)))

// GenerateSalt returns SaltLength random ASCII letters.
func GenerateSalt() string {
	var builder strings.Builder
	builder.Grow(SaltLength)
	for i := 0; i < SaltLength; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		builder.WriteByte(saltAlphabet[n.Int64()])
	}
	return builder.String()
}

// HashPassword derives a hex PBKDF2-HMAC-SHA256 digest of password with salt.
func HashPassword(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), HashIterations, HashKeyLength, sha256.New)
	return hex.EncodeToString(key)
}

// EncodePassword hashes password with a fresh salt and returns salt$digest.
func EncodePassword(password string) string {
	salt := GenerateSalt()
	return salt + PasswordSeparator + HashPassword(password, salt)
}

// ParseStoredPassword splits a salt$digest record.
func ParseStoredPassword(stored string) (salt, digest string, err error) {
	salt, digest, found := strings.Cut(stored, PasswordSeparator)
	if !found || salt == "" || digest == "" {
		return "", "", ErrMalformedCredential
	}
	return salt, digest, nil
}

// VerifyPassword reports whether password matches the stored salt$digest.
// Malformed records never match.
func VerifyPassword(password, stored string) bool {
	salt, digest, err := ParseStoredPassword(stored)
	if err != nil {
		return false
	}
	candidate := HashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(digest)) == 1
}
