package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Password hashing parameters. Iterations may be raised over time; stored
// hashes embed the count they were created with, so old hashes keep verifying.
const (
	pbkdf2Iterations = 120000
	pbkdf2SaltLen    = 16
	pbkdf2KeyLen     = 32
)

// HashPassword derives a PBKDF2-SHA256 hash with a fresh random salt and
// returns it in the self-describing form
// "pbkdf2:sha256:<iterations>$<salt-hex>$<key-hex>".
func HashPassword(plain string) (string, error) {
	salt := make([]byte, pbkdf2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(plain), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return fmt.Sprintf("pbkdf2:sha256:%d$%s$%s",
		pbkdf2Iterations, hex.EncodeToString(salt), hex.EncodeToString(key)), nil
}

// VerifyPassword re-derives the key using the parameters embedded in the
// stored hash and compares the full derived output in constant time.
// Malformed stored values simply verify as false.
func VerifyPassword(plain, stored string) bool {
	iters, salt, want, ok := parseStoredHash(stored)
	if !ok {
		return false
	}
	got := pbkdf2.Key([]byte(plain), salt, iters, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func parseStoredHash(stored string) (iters int, salt, key []byte, ok bool) {
	parts := strings.Split(stored, "$")
	if len(parts) != 3 {
		return 0, nil, nil, false
	}
	header := strings.Split(parts[0], ":")
	if len(header) != 3 || header[0] != "pbkdf2" || header[1] != "sha256" {
		return 0, nil, nil, false
	}
	iters, err := strconv.Atoi(header[2])
	if err != nil || iters < 1 {
		return 0, nil, nil, false
	}
	salt, err = hex.DecodeString(parts[1])
	if err != nil || len(salt) == 0 {
		return 0, nil, nil, false
	}
	key, err = hex.DecodeString(parts[2])
	if err != nil || len(key) == 0 {
		return 0, nil, nil, false
	}
	return iters, salt, key, true
}
