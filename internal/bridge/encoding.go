package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Encoding names accepted by NewEncoder
const (
	EncodingJSON = "json"
	EncodingCBOR = "cbor"
)

// Encoder serializes events for a sink.
type Encoder interface {
	Encode(e Event) ([]byte, error)
	ContentType() string
}

// NewEncoder returns the encoder for name. An empty name selects JSON.
func NewEncoder(name string) (Encoder, error) {
	switch name {
	case "", EncodingJSON:
		return jsonEncoder{}, nil
	case EncodingCBOR:
		mode, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
		if err != nil {
			return nil, fmt.Errorf("cbor encoder: %w", err)
		}
		return cborEncoder{mode: mode}, nil
	default:
		return nil, fmt.Errorf("unknown encoding %q (want json or cbor)", name)
	}
}

type jsonEncoder struct{}

func (jsonEncoder) Encode(e Event) ([]byte, error) { return json.Marshal(e) }

func (jsonEncoder) ContentType() string { return "application/json" }

type cborEncoder struct {
	mode cbor.EncMode
}

func (c cborEncoder) Encode(e Event) ([]byte, error) { return c.mode.Marshal(e) }

func (cborEncoder) ContentType() string { return "application/cbor" }
