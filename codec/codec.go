// Package codec converts broadcast messages to and from the textual forms
// used by the command line, the etcd command queue and the HTTP ingress.
//
// Both codecs go through the same Envelope and the same validating
// constructors of package message, so a decoded message is always valid.
package codec

import (
	"fmt"

	"iracing-broadcast/message"
)

type CodecType byte

const (
	CodecTypeJSON CodecType = 0
	CodecTypeText CodecType = 1
)

func (t CodecType) String() string {
	switch t {
	case CodecTypeJSON:
		return "json"
	case CodecTypeText:
		return "text"
	}
	return fmt.Sprintf("CodecType(%d)", byte(t))
}

type Codec interface {
	Encode(msg message.BroadcastMessage) ([]byte, error)
	Decode(data []byte) (message.BroadcastMessage, error)
	Type() CodecType // 0=JSON, 1=Text
}

func GetCodec(codecType CodecType) Codec {
	if codecType == CodecTypeJSON {
		return &JSONCodec{}
	}

	return &TextCodec{}
}
