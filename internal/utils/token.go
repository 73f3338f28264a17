package utils // package utils provides helper functions for secrets and identifiers

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 digests for session tokens
	"encoding/hex"  // hex encoding for tokens and digests
)

// sessionTokenLen is the number of random bytes in a session token.
// 32 bytes of entropy makes guessing a live token infeasible.
const sessionTokenLen = 32

// NewSessionToken returns a cryptographically secure random token as a hex
// string. The raw value goes back to the client exactly once; only its
// digest is ever persisted. An RNG failure is returned to the caller and
// must abort the operation rather than fall back to a weaker source.
func NewSessionToken() (string, error) {
	buf := make([]byte, sessionTokenLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// DigestToken returns the SHA-256 hex digest of a raw session token.
// Session lookups go raw token -> digest -> session row, so the database
// never holds anything a stolen dump could replay.
func DigestToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
