package message

import (
	"math"

	"iracing-broadcast/broadcasterr"
	"iracing-broadcast/protocol"
)

// MaxCars is the number of car slots in a session; car indexes are below it.
const MaxCars = 64

// MaxChatMacro is the highest chat macro number.
const MaxChatMacro = 15

// ReloadTextures reloads car textures, for all cars or a single car index.
type ReloadTextures struct {
	mode   ReloadTexturesMode
	carIdx uint16
}

func NewReloadAllTextures() ReloadTextures {
	return ReloadTextures{mode: ReloadTexturesAll}
}

func NewReloadCarTextures(carIdx uint16) (ReloadTextures, error) {
	if carIdx >= MaxCars {
		return ReloadTextures{}, broadcasterr.Invalid("NewReloadCarTextures", "car index",
			"%d exceeds %d", carIdx, MaxCars-1)
	}
	return ReloadTextures{mode: ReloadTexturesCarIdx, carIdx: carIdx}, nil
}

func (m ReloadTextures) Type() protocol.MessageType { return protocol.ReloadTextures }
func (m ReloadTextures) Mode() ReloadTexturesMode   { return m.mode }
func (m ReloadTextures) CarIdx() uint16             { return m.carIdx }

func (m ReloadTextures) encode() protocol.Words {
	return protocol.Pack(protocol.ReloadTextures, uint16(m.mode), m.carIdx, 0)
}

// ChatCommand opens, answers or closes the chat window, or runs a macro.
// The zero value opens a new chat window.
type ChatCommand struct {
	slot  uint16 // Mode counted from ChatBeginChat, wrapping to ChatMacro
	macro uint16
}

const chatModes = uint16(ChatCancel) + 1

func chatSlot(mode ChatCommandMode) uint16 {
	return (uint16(mode) + chatModes - uint16(ChatBeginChat)) % chatModes
}

// NewChatCommand builds a chat command without a macro. Use NewChatMacro
// for ChatMacro.
func NewChatCommand(mode ChatCommandMode) (ChatCommand, error) {
	if !mode.Valid() {
		return ChatCommand{}, broadcasterr.Invalid("NewChatCommand", "mode",
			"%d exceeds %d", uint16(mode), uint16(ChatCancel))
	}
	if mode == ChatMacro {
		return ChatCommand{}, broadcasterr.Invalid("NewChatCommand", "mode",
			"macro needs a macro number")
	}
	return ChatCommand{slot: chatSlot(mode)}, nil
}

// NewChatMacro runs chat macro n, 1 to 15.
func NewChatMacro(n uint16) (ChatCommand, error) {
	if n < 1 || n > MaxChatMacro {
		return ChatCommand{}, broadcasterr.Invalid("NewChatMacro", "macro",
			"%d is outside 1-%d", n, MaxChatMacro)
	}
	return ChatCommand{slot: chatSlot(ChatMacro), macro: n}, nil
}

func (m ChatCommand) Type() protocol.MessageType { return protocol.ChatCommand }
func (m ChatCommand) Macro() uint16              { return m.macro }

func (m ChatCommand) Mode() ChatCommandMode {
	return ChatCommandMode((m.slot + uint16(ChatBeginChat)) % chatModes)
}

func (m ChatCommand) encode() protocol.Words {
	return protocol.Pack(protocol.ChatCommand, uint16(m.Mode()), m.macro, 0)
}

// PitCommand requests pit service for the player's car.
type PitCommand struct {
	mode  PitCommandMode
	value uint16
}

// NewPitCommand builds a pit request. value is the fuel amount in liters
// for PitFuel, the tire pressure in KPa for the tire modes, and must be 0
// for every other mode.
func NewPitCommand(mode PitCommandMode, value uint16) (PitCommand, error) {
	if !mode.Valid() {
		return PitCommand{}, broadcasterr.Invalid("NewPitCommand", "mode",
			"%d exceeds %d", uint16(mode), uint16(PitClearFuel))
	}
	if value != 0 && !mode.HasValue() {
		return PitCommand{}, broadcasterr.Invalid("NewPitCommand", "value",
			"%s takes no value, got %d", mode, value)
	}
	return PitCommand{mode: mode, value: value}, nil
}

func (m PitCommand) Type() protocol.MessageType { return protocol.PitCommand }
func (m PitCommand) Mode() PitCommandMode       { return m.mode }
func (m PitCommand) Value() uint16              { return m.value }

func (m PitCommand) encode() protocol.Words {
	return protocol.Pack(protocol.PitCommand, uint16(m.mode), m.value, 0)
}

// TelemetryCommand starts, stops or restarts disk telemetry.
type TelemetryCommand struct {
	mode TelemetryCommandMode
}

func NewTelemetryCommand(mode TelemetryCommandMode) (TelemetryCommand, error) {
	if !mode.Valid() {
		return TelemetryCommand{}, broadcasterr.Invalid("NewTelemetryCommand", "mode",
			"%d exceeds %d", uint16(mode), uint16(TelemetryRestart))
	}
	return TelemetryCommand{mode: mode}, nil
}

func (m TelemetryCommand) Type() protocol.MessageType { return protocol.TelemetryCommand }
func (m TelemetryCommand) Mode() TelemetryCommandMode { return m.mode }

func (m TelemetryCommand) encode() protocol.Words {
	return protocol.Pack(protocol.TelemetryCommand, uint16(m.mode), 0, 0)
}

// FFBCommand changes a force feedback setting. The value travels as the
// raw bits of a float32.
type FFBCommand struct {
	mode  FFBCommandMode
	value float32
}

func NewFFBCommand(mode FFBCommandMode, value float32) (FFBCommand, error) {
	if !mode.Valid() {
		return FFBCommand{}, broadcasterr.Invalid("NewFFBCommand", "mode",
			"%d exceeds %d", uint16(mode), uint16(FFBMaxForce))
	}
	if math.IsNaN(float64(value)) || math.IsInf(float64(value), 0) {
		return FFBCommand{}, broadcasterr.Invalid("NewFFBCommand", "value",
			"%v is not finite", value)
	}
	return FFBCommand{mode: mode, value: value}, nil
}

func (m FFBCommand) Type() protocol.MessageType { return protocol.FFBCommand }
func (m FFBCommand) Mode() FFBCommandMode       { return m.mode }
func (m FFBCommand) Value() float32             { return m.value }

func (m FFBCommand) encode() protocol.Words {
	return protocol.PackFloat(protocol.FFBCommand, uint16(m.mode), m.value)
}

// VideoCapture takes a screenshot or controls video capture.
type VideoCapture struct {
	mode VideoCaptureMode
}

func NewVideoCapture(mode VideoCaptureMode) (VideoCapture, error) {
	if !mode.Valid() {
		return VideoCapture{}, broadcasterr.Invalid("NewVideoCapture", "mode",
			"%d exceeds %d", uint16(mode), uint16(VideoHideTimer))
	}
	return VideoCapture{mode: mode}, nil
}

func (m VideoCapture) Type() protocol.MessageType { return protocol.VideoCapture }
func (m VideoCapture) Mode() VideoCaptureMode     { return m.mode }

func (m VideoCapture) encode() protocol.Words {
	return protocol.Pack(protocol.VideoCapture, uint16(m.mode), 0, 0)
}
