package proto

import (
	"bytes"
	"compress/flate"
	"io"
)

type Compression int

const (
	CompressNone Compression = iota
	CompressDeflate
)

func Compress(kind Compression, data []byte) ([]byte, error) {
	if kind == CompressNone {
		return data, nil
	}
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Decompress(kind Compression, data []byte) ([]byte, error) {
	if kind == CompressNone {
		return data, nil
	}
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	return io.ReadAll(r)
}
