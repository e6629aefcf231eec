// Package passwordhash implements the PBKDF2-HMAC-SHA256 password scheme.
//
// The wire format is bit-exact with the system this proxy was ported from:
//
//	{algorithm}${iterations}${salt_hex}${base64(pbkdf2_hmac_sha256(pw, salt, iters, dklen=32))}
package passwordhash

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Algorithm is the only scheme this package knows how to verify.
	Algorithm = "pbkdf2_sha256"
	keyLen    = 32
	saltBytes = 16
)

// Hasher hashes and verifies passwords. Mirrors the PasswordHasher contract
// the rest of the codebase was built around, with the concrete algorithm
// pinned to the wire-compatible PBKDF2 scheme above.
type Hasher struct {
	iterations int
}

// New returns a Hasher using the given iteration count.
func New(iterations int) *Hasher {
	return &Hasher{iterations: iterations}
}

// Hash derives a new salt and returns the encoded hash for password.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("passwordhash: generate salt: %w", err)
	}
	return encode(password, hex.EncodeToString(salt), h.iterations), nil
}

// Compare reports whether password matches the encoded hash.
func (h *Hasher) Compare(hash, password string) bool {
	return Verify(password, hash)
}

// Hash is the standalone form of Hasher.Hash, for callers (such as tests)
// that don't need a constructed Hasher. An empty saltHex draws a random salt.
func Hash(password, saltHex string, iterations int) (string, error) {
	if saltHex == "" {
		salt := make([]byte, saltBytes)
		if _, err := rand.Read(salt); err != nil {
			return "", fmt.Errorf("passwordhash: generate salt: %w", err)
		}
		saltHex = hex.EncodeToString(salt)
	}
	return encode(password, saltHex, iterations), nil
}

func encode(password, saltHex string, iterations int) string {
	derived := pbkdf2.Key([]byte(password), []byte(saltHex), iterations, keyLen, sha256.New)
	b64 := base64.StdEncoding.EncodeToString(derived)
	return fmt.Sprintf("%s$%d$%s$%s", Algorithm, iterations, saltHex, b64)
}

// Verify reports whether password matches the encoded hash. Splitting on "$"
// must yield exactly four parts; anything else is an invalid hash and never
// matches. Comparison of the recomputed hash against the stored one uses a
// constant-time primitive.
func Verify(password, hashed string) bool {
	parts := strings.Split(hashed, "$")
	if len(parts) != 4 {
		return false
	}
	algorithm, iterStr, salt := parts[0], parts[1], parts[2]
	if algorithm != Algorithm {
		return false
	}
	iterations, err := strconv.Atoi(iterStr)
	if err != nil {
		return false
	}
	recomputed := encode(password, salt, iterations)
	return subtle.ConstantTimeCompare([]byte(recomputed), []byte(hashed)) == 1
}
