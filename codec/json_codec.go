package codec

import (
	"encoding/json"
	"fmt"

	"iracing-broadcast/message"
)

// JSONCodec reads and writes one Envelope per document:
//
//	{"type":"pit","mode":"fuel","value":40}
type JSONCodec struct{}

func (c *JSONCodec) Encode(msg message.BroadcastMessage) ([]byte, error) {
	e, err := EnvelopeOf(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

func (c *JSONCodec) Decode(data []byte) (message.BroadcastMessage, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("codec: decode json: %w", err)
	}
	return e.Message()
}

func (c *JSONCodec) Type() CodecType {
	return CodecTypeJSON
}
