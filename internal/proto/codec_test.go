package proto

import (
	"testing"

	"github.com/stlalpha/wired/internal/schema"
)

func testSchema() *schema.Schema {
	s := &schema.Schema{Name: "test", Fields: make(map[string]*schema.FieldSpec), Messages: make(map[string]*schema.MessageSpec)}
	s.RegisterField(&schema.FieldSpec{Name: "wired.user.nick", ID: 1, Type: schema.TypeString})
	s.RegisterField(&schema.FieldSpec{Name: "wired.user.id", ID: 2, Type: schema.TypeUint32})
	s.RegisterMessage("wired.send_ping", nil, "wired.user.nick", "wired.user.id")
	return s
}

func TestEncodeDecode_RoundTrips(t *testing.T) {
	sch := testSchema()
	m := schema.NewMessage("wired.send_ping")
	m.SetString("wired.user.nick", "alice")
	m.SetUint32("wired.user.id", 42)

	raw, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(sch, raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	nick, _ := got.String("wired.user.nick")
	id, _ := got.Uint32("wired.user.id")
	if nick != "alice" || id != 42 {
		t.Fatalf("round-trip mismatch: nick=%q id=%d", nick, id)
	}
}

func TestDecode_UnknownMessageRejected(t *testing.T) {
	sch := testSchema()
	if _, err := Decode(sch, []byte(`<p7:message name="wired.bogus"></p7:message>`)); err == nil {
		t.Fatal("expected error for unrecognized message")
	}
}

func TestChecksum_RoundTrips(t *testing.T) {
	data := []byte("hello wired")
	appended := Append(ChecksumSHA256, data)
	got, ok := VerifyAndStrip(ChecksumSHA256, appended)
	if !ok {
		t.Fatal("expected checksum to verify")
	}
	if string(got) != string(data) {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestChecksum_MismatchRejected(t *testing.T) {
	data := []byte("hello wired")
	appended := Append(ChecksumSHA1, data)
	appended[len(appended)-1] ^= 0xFF
	if _, ok := VerifyAndStrip(ChecksumSHA1, appended); ok {
		t.Fatal("expected checksum mismatch to be detected")
	}
}

func TestCompress_RoundTrips(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog, repeatedly, to compress well")
	compressed, err := Compress(CompressDeflate, data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	got, err := Decompress(CompressDeflate, compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("round-trip mismatch")
	}
}
