package utils

import (
	"strings"
	"testing"
)

func TestNewSessionToken(t *testing.T) {
	a, err := NewSessionToken()
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewSessionToken()
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != sessionTokenLen*2 {
		t.Fatalf("expected %d hex chars, got %d", sessionTokenLen*2, len(a))
	}
	if a == b {
		t.Fatal("two tokens must not collide")
	}
}

func TestDigestTokenDeterministic(t *testing.T) {
	raw, err := NewSessionToken()
	if err != nil {
		t.Fatal(err)
	}
	d1 := DigestToken(raw)
	d2 := DigestToken(raw)
	if d1 != d2 {
		t.Fatal("digest must be deterministic")
	}
	if d1 == raw || strings.Contains(d1, raw) {
		t.Fatal("digest must not expose the raw token")
	}
	if DigestToken(raw+"x") == d1 {
		t.Fatal("different tokens must digest differently")
	}
}

func TestNewIDPrefixAndUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := NewID(IDPrefixTable)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(id, "tbl_") {
			t.Fatalf("expected tbl_ prefix, got %s", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %s after %d draws", id, i)
		}
		seen[id] = true
	}
}
