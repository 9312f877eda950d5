package codec

import (
	"testing"

	"iracing-broadcast/message"
)

func BenchmarkCodecJSON(b *testing.B) {
	cdc := GetCodec(CodecTypeJSON)
	msg, _ := message.NewCameraSwitchNumber("064", 1, 2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		data, _ := cdc.Encode(msg)
		cdc.Decode(data)
	}
}

func BenchmarkCodecText(b *testing.B) {
	cdc := GetCodec(CodecTypeText)
	msg, _ := message.NewCameraSwitchNumber("064", 1, 2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		data, _ := cdc.Encode(msg)
		cdc.Decode(data)
	}
}
