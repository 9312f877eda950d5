// Package protocol implements the wire layout of the iRacing broadcast message.
//
// A broadcast message is a registered window message carrying two machine
// words. Each word is split into two 16-bit halves, so one message carries a
// command tag plus up to three values:
//
//	        word A (WPARAM)                 word B (LPARAM)
//	┌────────────────┬────────────────┐┌────────────────┬────────────────┐
//	│  var1 (hi 16)  │  tag  (lo 16)  ││  var3 (hi 16)  │  var2 (lo 16)  │
//	└────────────────┴────────────────┘└────────────────┴────────────────┘
//
// Some commands use word B as one value instead of two halves: a signed
// 32-bit integer (replay frame, session time) or the raw IEEE-754 bits of a
// float32 (force feedback).
package protocol

import (
	"fmt"
	"math"
)

// BroadcastMessageName is registered with RegisterWindowMessage to obtain
// the message identifier shared by every process speaking the protocol.
const BroadcastMessageName = "IRSDK_BROADCASTMSG"

// Window identification of the simulator's message window.
const (
	DefaultWindowClass = "SimWinClass"
	DefaultWindowTitle = "" // Any title
)

// HWNDBroadcast is the HWND_BROADCAST pseudo handle.
const HWNDBroadcast uintptr = 0xFFFF

// MessageType is the command tag stored in the low half of word A.
type MessageType uint16

const (
	CameraSwitchPosition    MessageType = 0  // var1 car position, var2 group, var3 camera
	CameraSwitchNumber      MessageType = 1  // var1 padded car number, var2 group, var3 camera
	CameraSetState          MessageType = 2  // var1 camera state flags
	ReplaySetPlaySpeed      MessageType = 3  // var1 speed, var2 slow motion
	ReplaySetPlayPosition   MessageType = 4  // var1 position mode, word B frame number
	ReplaySearch            MessageType = 5  // var1 search mode
	ReplaySetState          MessageType = 6  // var1 state mode
	ReloadTextures          MessageType = 7  // var1 reload mode, var2 car index
	ChatCommand             MessageType = 8  // var1 chat mode, var2 macro number
	PitCommand              MessageType = 9  // var1 pit mode, var2 value
	TelemetryCommand        MessageType = 10 // var1 telemetry mode
	FFBCommand              MessageType = 11 // var1 ffb mode, word B float32 bits
	ReplaySearchSessionTime MessageType = 12 // var1 session number, word B session time in ms
	VideoCapture            MessageType = 13 // var1 video capture mode
)

// MaxMessageType is the highest tag defined by the protocol.
const MaxMessageType = VideoCapture

var messageTypeNames = [...]string{
	CameraSwitchPosition:    "CameraSwitchPosition",
	CameraSwitchNumber:      "CameraSwitchNumber",
	CameraSetState:          "CameraSetState",
	ReplaySetPlaySpeed:      "ReplaySetPlaySpeed",
	ReplaySetPlayPosition:   "ReplaySetPlayPosition",
	ReplaySearch:            "ReplaySearch",
	ReplaySetState:          "ReplaySetState",
	ReloadTextures:          "ReloadTextures",
	ChatCommand:             "ChatCommand",
	PitCommand:              "PitCommand",
	TelemetryCommand:        "TelemetryCommand",
	FFBCommand:              "FFBCommand",
	ReplaySearchSessionTime: "ReplaySearchSessionTime",
	VideoCapture:            "VideoCapture",
}

func (t MessageType) String() string {
	if t <= MaxMessageType {
		return messageTypeNames[t]
	}
	return fmt.Sprintf("MessageType(%d)", uint16(t))
}

// Valid reports whether t is a tag defined by the protocol.
func (t MessageType) Valid() bool {
	return t <= MaxMessageType
}

// Words is an encoded broadcast message: A travels as WPARAM, B as LPARAM.
type Words struct {
	A uint32
	B uint32
}

// Pack encodes a message whose word B carries two 16-bit halves.
func Pack(tag MessageType, var1, var2, var3 uint16) Words {
	return Words{
		A: join(uint16(tag), var1),
		B: join(var2, var3),
	}
}

// PackLong encodes a message whose word B carries one signed 32-bit value.
func PackLong(tag MessageType, var1 uint16, v int32) Words {
	return Words{
		A: join(uint16(tag), var1),
		B: uint32(v),
	}
}

// PackFloat encodes a message whose word B carries the raw bits of f.
// The receiver reinterprets the word as a float, so f is not scaled.
func PackFloat(tag MessageType, var1 uint16, f float32) Words {
	return Words{
		A: join(uint16(tag), var1),
		B: math.Float32bits(f),
	}
}

// Split returns the low and high halves of w.
func Split(w uint32) (lo, hi uint16) {
	return uint16(w), uint16(w >> 16)
}

func join(lo, hi uint16) uint32 {
	return uint32(lo) | uint32(hi)<<16
}

// Fields unpacks the four 16-bit sub-fields of the message.
func (w Words) Fields() (tag MessageType, var1, var2, var3 uint16) {
	t, v1 := Split(w.A)
	v2, v3 := Split(w.B)
	return MessageType(t), v1, v2, v3
}

// Type returns the command tag.
func (w Words) Type() MessageType {
	t, _ := Split(w.A)
	return MessageType(t)
}

// Long returns word B as a signed 32-bit value.
func (w Words) Long() int32 {
	return int32(w.B)
}

// Float returns word B reinterpreted as a float32.
func (w Words) Float() float32 {
	return math.Float32frombits(w.B)
}

func (w Words) String() string {
	tag, v1, v2, v3 := w.Fields()
	return fmt.Sprintf("%s{var1=%d var2=%d var3=%d raw=%08x:%08x}", tag, v1, v2, v3, w.A, w.B)
}
