// Package serialize handles ZStandard compression of encoded request batches.
package serialize

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// MaxDecodedSize bounds the size of a decompressed request batch.
const MaxDecodedSize = 64 << 20

// ErrCorrupt indicates input that carries a ZStandard header but does not
// decode.
var ErrCorrupt = errors.New("corrupt compressed batch")

var frameHeader = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Encoder and decoder are shared; EncodeAll and DecodeAll are safe for
// concurrent use.
var (
	encoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	})
	decoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(0),
			zstd.WithDecoderMaxMemory(MaxDecodedSize),
		)
	})
)

// IsCompressed reports whether data starts with a ZStandard frame header.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, frameHeader)
}

// Compress returns data as a single ZStandard frame. Empty input stays empty.
func Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	enc, err := encoder()
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Unwrap returns data decompressed when it carries a ZStandard header and
// unchanged otherwise.
func Unwrap(data []byte) ([]byte, error) {
	if !IsCompressed(data) {
		return data, nil
	}
	dec, err := decoder()
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return out, nil
}
