package tracker

import "testing"

func TestEncodeDecodeUpdate_RoundTrips(t *testing.T) {
	info := Info{
		Port: 4871, Name: "Test Server", Description: "a test",
		Category: "general", URL: "http://example.com",
		Users: 3, Files: 100, Size: 1 << 20,
	}
	payload := encodeUpdate("update", info)
	kind, got := decodeUpdate(payload)

	if kind != "update" {
		t.Fatalf("expected kind=update, got %q", kind)
	}
	if got != info {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, info)
	}
}
