package utils

import "testing"

func TestRandStringLengthAndUniqueness(t *testing.T) {
	a, err := RandString(32)
	if err != nil {
		t.Fatalf("rand: %v", err)
	}
	b, err := RandString(32)
	if err != nil {
		t.Fatalf("rand: %v", err)
	}
	if a == "" || b == "" {
		t.Fatalf("empty token")
	}
	if a == b {
		t.Fatalf("tokens not unique")
	}
}

func TestHashKeyDeterministic(t *testing.T) {
	h1 := HashKey("dashboard:42")
	h2 := HashKey("dashboard:42")
	if h1 != h2 {
		t.Fatalf("HashKey not deterministic")
	}
	if len(h1) != 64 {
		t.Fatalf("unexpected digest length %d", len(h1))
	}
}
