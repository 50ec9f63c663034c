package proto

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
)

type ChecksumKind int

const (
	ChecksumNone ChecksumKind = iota
	ChecksumSHA1
	ChecksumSHA256
	ChecksumSHA512
)

func newHash(kind ChecksumKind) hash.Hash {
	switch kind {
	case ChecksumSHA1:
		return sha1.New()
	case ChecksumSHA256:
		return sha256.New()
	case ChecksumSHA512:
		return sha512.New()
	default:
		return nil
	}
}

// Append computes kind's digest over data and appends it, so the
// receiver can verify and strip it before decompression/decryption
// unwinding.
func Append(kind ChecksumKind, data []byte) []byte {
	h := newHash(kind)
	if h == nil {
		return data
	}
	h.Write(data)
	return h.Sum(data)
}

// VerifyAndStrip splits the trailing digest from payload and confirms
// it matches, returning the stripped data and true, or false on a
// mismatch or a payload shorter than the digest (the session then
// replies with wired.error "invalid_message").
func VerifyAndStrip(kind ChecksumKind, payload []byte) ([]byte, bool) {
	h := newHash(kind)
	if h == nil {
		return payload, true
	}
	size := h.Size()
	if len(payload) < size {
		return nil, false
	}
	data, digest := payload[:len(payload)-size], payload[len(payload)-size:]
	h.Write(data)
	sum := h.Sum(nil)
	if len(sum) != len(digest) {
		return nil, false
	}
	for i := range sum {
		if sum[i] != digest[i] {
			return nil, false
		}
	}
	return data, true
}
