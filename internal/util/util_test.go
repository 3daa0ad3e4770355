package util

import "testing"

func TestHashSourceID(t *testing.T) {
	first := HashSourceID("203.0.113.7")
	if len(first) != 16 {
		t.Fatalf("hash length = %d, want 16", len(first))
	}
	if first != HashSourceID("203.0.113.7") {
		t.Fatal("hash not deterministic")
	}
	if first == HashSourceID("203.0.113.8") {
		t.Fatal("distinct sources collided")
	}
	if first == "203.0.113.7" {
		t.Fatal("address stored unhashed")
	}
}
