// Package proto implements spec.md §6's P7 wire protocol: length-
// framed messages over the negotiated transform pipeline
// (compression, then encryption, then checksum, applied in that order
// on send and unwound in reverse on receive). Grounded on the
// envelope/length-prefix shape of internal/schema's Message type, with
// each transform stage adapted from the concern the example pack's
// stack actually covers: compress/flate for DEFLATE (stdlib is the
// correct, and only, home for this -- there is no ecosystem DEFLATE
// implementation more idiomatic than the one in the standard library),
// crypto/rsa for the key exchange with golang.org/x/crypto/hkdf for
// session-key expansion, and crypto/sha1|sha256|
// sha512 for the checksum options the wire format itself names.
package proto

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

const maxFrameSize = 16 << 20 // 16MiB, generous upper bound for a single P7 message

// ReadFrame reads one length-prefixed (4-byte big-endian) frame.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, err
	}
	if length > maxFrameSize {
		return nil, fmt.Errorf("frame length %d exceeds maximum %d", length, maxFrameSize)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteFrame writes payload as one length-prefixed frame.
func WriteFrame(w io.Writer, payload []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(payload))); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
