package nbt

import (
	"bytes"
	"io"

	kgzip "github.com/klauspost/compress/gzip"
	kzlib "github.com/klauspost/compress/zlib"
)

// Compression identifies the outer stream compression wrapping an NBT
// payload, matching the region file's per-chunk compression byte (§4.2).
type Compression byte

const (
	CompressionGZIP Compression = 1
	CompressionZLIB Compression = 2
	CompressionNone Compression = 3
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGZIP:
		return "gzip"
	case CompressionZLIB:
		return "zlib"
	default:
		return "unknown"
	}
}

// Decompress unwraps data according to kind. It is exported for callers
// (such as the region package) that hold an already-framed compressed blob
// and compression tag separately, rather than a Decode-ready byte stream.
func Decompress(data []byte, kind Compression) ([]byte, error) {
	return decompress(data, kind)
}

func decompress(data []byte, kind Compression) ([]byte, error) {
	switch kind {
	case CompressionNone:
		return data, nil
	case CompressionGZIP:
		r, err := kgzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, &DecompressionFailedError{Kind: "gzip", Err: err}
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, &DecompressionFailedError{Kind: "gzip", Err: err}
		}
		return out, nil
	case CompressionZLIB:
		r, err := kzlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, &DecompressionFailedError{Kind: "zlib", Err: err}
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, &DecompressionFailedError{Kind: "zlib", Err: err}
		}
		return out, nil
	default:
		return nil, malformed("unknown compression kind %d", kind)
	}
}

func compress(data []byte, kind Compression) ([]byte, error) {
	var buf bytes.Buffer
	switch kind {
	case CompressionNone:
		return data, nil
	case CompressionGZIP:
		w := kgzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionZLIB:
		w := kzlib.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, malformed("unknown compression kind %d", kind)
	}
}
