package util

import "testing"

func TestHashUserKey(t *testing.T) {
	id := "guest:12345"
	got := HashUserKey(id)
	if got != HashUserKey(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}

func TestHashTextSeparatesCacheKeys(t *testing.T) {
	a := HashText("great launch")
	if a != HashText("great launch") {
		t.Fatalf("expected stable hash")
	}
	if a == HashText("Great launch") {
		t.Fatalf("expected case to change the hash")
	}
	// sha256 of the empty string
	if got := HashText(""); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Fatalf("unexpected empty hash %s", got)
	}
}
