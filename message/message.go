// Package message defines the closed set of broadcast commands and their
// wire encoding.
//
// Every command is an immutable value built by a New* constructor. The
// constructor validates each parameter against the protocol's range and
// returns an InvalidParameter error, so an accepted value always encodes:
//
//	msg, err := message.NewPitCommand(message.PitFuel, 40)
//	if err != nil {
//		return err
//	}
//	w := message.Encode(msg) // protocol.Words{A: 0x00020009, B: 0x00000028}
//
// Zero values of the command types are valid commands as well.
package message

import (
	"iracing-broadcast/protocol"
)

// BroadcastMessage is one broadcast command. The set of implementations is
// closed: it is sealed by the unexported encode method.
type BroadcastMessage interface {
	// Type returns the protocol tag of the command.
	Type() protocol.MessageType

	encode() protocol.Words
}

// Encode packs msg into the two words delivered with the broadcast message.
// It is pure and safe for concurrent use. msg must not be nil.
func Encode(msg BroadcastMessage) protocol.Words {
	return msg.encode()
}

var (
	_ BroadcastMessage = CameraSwitchPosition{}
	_ BroadcastMessage = CameraSwitchNumber{}
	_ BroadcastMessage = CameraSetState{}
	_ BroadcastMessage = ReplaySetPlaySpeed{}
	_ BroadcastMessage = ReplaySetPlayPosition{}
	_ BroadcastMessage = ReplaySearch{}
	_ BroadcastMessage = ReplaySetState{}
	_ BroadcastMessage = ReloadTextures{}
	_ BroadcastMessage = ChatCommand{}
	_ BroadcastMessage = PitCommand{}
	_ BroadcastMessage = TelemetryCommand{}
	_ BroadcastMessage = FFBCommand{}
	_ BroadcastMessage = ReplaySearchSessionTime{}
	_ BroadcastMessage = VideoCapture{}
)
