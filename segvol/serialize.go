/*
	This file supports compression and checksums of voxel payloads.
*/

package segvol

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression is the format of compression for storing voxel payloads.
type Compression uint8

const (
	Uncompressed Compression = iota
	Zlib
	Snappy
	LZ4
	Zstd
)

func (compress Compression) String() string {
	switch compress {
	case Uncompressed:
		return "none"
	case Zlib:
		return "zlib"
	case Snappy:
		return "snappy"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// ParseCompression returns the compression for a name as written by Compression.String.
// An empty name gives zstd.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "uncompressed":
		return Uncompressed, nil
	case "zlib", "gzip":
		return Zlib, nil
	case "snappy":
		return Snappy, nil
	case "lz4":
		return LZ4, nil
	case "zstd", "":
		return Zstd, nil
	default:
		return Uncompressed, fmt.Errorf("unknown compression %q", name)
	}
}

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

func initZstd() {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil)
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil)
	})
}

// Compress returns the data compressed with the given format.
func Compress(data []byte, compress Compression) ([]byte, error) {
	switch compress {
	case Uncompressed:
		return data, nil
	case Zlib:
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case Snappy:
		return snappy.Encode(nil, data), nil
	case LZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case Zstd:
		initZstd()
		if zstdErr != nil {
			return nil, zstdErr
		}
		return zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)/4)), nil
	default:
		return nil, fmt.Errorf("illegal compression (%s) during serialization", compress)
	}
}

// Uncompress reverses Compress.  If expected is positive, the uncompressed data must have
// exactly that many bytes.
func Uncompress(data []byte, compress Compression, expected int) ([]byte, error) {
	var out []byte
	var err error
	switch compress {
	case Uncompressed:
		out = data
	case Zlib:
		var r io.ReadCloser
		if r, err = zlib.NewReader(bytes.NewReader(data)); err != nil {
			return nil, err
		}
		out, err = io.ReadAll(r)
		r.Close()
	case Snappy:
		out, err = snappy.Decode(nil, data)
	case LZ4:
		out, err = io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	case Zstd:
		initZstd()
		if zstdErr != nil {
			return nil, zstdErr
		}
		out, err = zstdDecoder.DecodeAll(data, nil)
	default:
		return nil, fmt.Errorf("illegal compression (%s) during deserialization", compress)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to uncompress %s data: %w", compress, err)
	}
	if expected > 0 && len(out) != expected {
		return nil, fmt.Errorf("uncompressed %s data has %d bytes, expected %d", compress, len(out), expected)
	}
	return out, nil
}

// Checksum returns the xxhash64 digest of the data as 16 hex digits.
func Checksum(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}
