package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Resource ID prefixes. The prefix makes an ID's kind readable in logs and
// bug reports without a database lookup.
const (
	IDPrefixUser      = "usr"
	IDPrefixSession   = "ses"
	IDPrefixWorkspace = "wsp"
	IDPrefixBase      = "bse"
	IDPrefixTable     = "tbl"
	IDPrefixRecord    = "rec"
)

// NewID returns a collision-resistant identifier of the form
// "<prefix>_<unix-seconds base36><8 random bytes hex>". The timestamp keeps
// IDs roughly sortable by creation time; 64 bits of randomness per second
// makes collisions negligible at any realistic resource volume.
func NewID(prefix string) (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	ts := strconv.FormatInt(time.Now().UTC().Unix(), 36)
	return prefix + "_" + ts + hex.EncodeToString(buf), nil
}
