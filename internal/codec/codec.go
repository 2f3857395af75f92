// Package codec writes results as JSON or MessagePack. MessagePack output
// reuses the json struct tags so both formats carry the same field names.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	JSON    = "json"
	MsgPack = "msgpack"
)

var ErrFormat = errors.New("codec: unknown format")

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	if format == MsgPack {
		return "application/x-msgpack"
	}
	return "application/json"
}

// Encode writes v to w. An empty format means JSON.
func Encode(w io.Writer, format string, v any) error {
	switch format {
	case JSON, "":
		return json.NewEncoder(w).Encode(v)
	case MsgPack:
		encoder := msgpack.NewEncoder(w)
		encoder.SetCustomStructTag("json")
		return encoder.Encode(v)
	default:
		return fmt.Errorf("%w: %q", ErrFormat, format)
	}
}

// Marshal is Encode into a byte slice.
func Marshal(format string, v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, format, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads v from r in the given format.
func Decode(r io.Reader, format string, v any) error {
	switch format {
	case JSON, "":
		return json.NewDecoder(r).Decode(v)
	case MsgPack:
		decoder := msgpack.NewDecoder(r)
		decoder.SetCustomStructTag("json")
		return decoder.Decode(v)
	default:
		return fmt.Errorf("%w: %q", ErrFormat, format)
	}
}
