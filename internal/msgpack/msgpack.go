// Package msgpack provides MessagePack encoding/decoding for query envelopes.
// Used by the CLI and RPC callers to exchange compilation requests.
package msgpack

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrEmpty indicates empty input.
var ErrEmpty = errors.New("empty MessagePack data")

// Envelope carries one compilation request.
// Where and the macro bodies hold the nested-array DSL.
type Envelope struct {
	Name    string            `msgpack:"name,omitempty"`
	Dialect string            `msgpack:"dialect,omitempty"`
	Fields  map[string]string `msgpack:"fields,omitempty"`
	Where   any               `msgpack:"where"`
	Limit   *int64            `msgpack:"limit,omitempty"`
	Macros  map[string]any    `msgpack:"macros,omitempty"`
}

// Decode deserializes MessagePack data into a Go value.
// The v parameter should be a pointer to the target structure.
//
// Numbers inside interface values decode as int64, uint64 or float64
// regardless of their wire width.
func Decode(data []byte, v any) error {
	if len(data) == 0 {
		return ErrEmpty
	}

	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode MessagePack: %w", err)
	}

	return nil
}

// Encode serializes a Go value into MessagePack format.
// Returns the serialized bytes or error.
//
// Example:
//
//	data, err := msgpack.Encode(msgpack.Envelope{
//	    Dialect: "postgres",
//	    Where:   []any{"=", []any{"field", 2}, "cam"},
//	})
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode MessagePack: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeEnvelope deserializes a single envelope.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := Decode(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// DecodeEnvelopes deserializes an array of envelopes.
// This is useful for batch requests.
func DecodeEnvelopes(data []byte) ([]Envelope, error) {
	var envs []Envelope
	if err := Decode(data, &envs); err != nil {
		return nil, err
	}
	return envs, nil
}
