package schema

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode serializes a compiled schema for caching.
func Encode(s Schema) ([]byte, error) {
	b, err := msgpack.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	return b, nil
}

// Decode reads a schema written by Encode.
func Decode(b []byte) (Schema, error) {
	var s Schema
	if err := msgpack.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return s, nil
}
