package codec

import (
	"fmt"
	"math"

	"iracing-broadcast/broadcasterr"
	"iracing-broadcast/message"
	"iracing-broadcast/protocol"
)

// Envelope is the flat, codec-neutral form of a broadcast message. Only the
// fields used by Type are meaningful.
type Envelope struct {
	Type       string   `json:"type"`
	Mode       string   `json:"mode,omitempty"`
	Target     string   `json:"target,omitempty"`     // camera-position
	CarNumber  string   `json:"car_number,omitempty"` // camera-number
	Group      uint16   `json:"group,omitempty"`
	Camera     uint16   `json:"camera,omitempty"`
	State      string   `json:"state,omitempty"` // camera-state
	Speed      int16    `json:"speed,omitempty"`
	SlowMotion bool     `json:"slow_motion,omitempty"`
	Frame      int32    `json:"frame,omitempty"`
	Session    uint16   `json:"session,omitempty"`
	TimeMS     int32    `json:"time_ms,omitempty"`
	CarIdx     *uint16  `json:"car_idx,omitempty"` // reload-textures, nil reloads all
	Macro      uint16   `json:"macro,omitempty"`
	Value      *float64 `json:"value,omitempty"` // pit value or ffb value
}

func invalid(param, format string, args ...any) error {
	return broadcasterr.Invalid("codec", param, format, args...)
}

// Message builds the message described by e.
func (e *Envelope) Message() (message.BroadcastMessage, error) {
	t, err := ParseType(e.Type)
	if err != nil {
		return nil, invalid("type", "%q is not a message type", e.Type)
	}

	switch t {
	case protocol.CameraSwitchPosition:
		target, ok := message.ParseCameraTarget(e.Target)
		if !ok {
			return nil, invalid("target", "%q is not a position or focus mode", e.Target)
		}
		return message.NewCameraSwitchPosition(target, e.Group, e.Camera)

	case protocol.CameraSwitchNumber:
		return message.NewCameraSwitchNumber(e.CarNumber, e.Group, e.Camera)

	case protocol.CameraSetState:
		st, ok := message.ParseCameraState(e.State)
		if !ok {
			return nil, invalid("state", "%q is not a camera state", e.State)
		}
		return message.NewCameraSetState(st)

	case protocol.ReplaySetPlaySpeed:
		return message.NewReplaySetPlaySpeed(e.Speed, e.SlowMotion)

	case protocol.ReplaySetPlayPosition:
		mode, ok := message.ParseReplayPositionMode(e.Mode)
		if !ok {
			return nil, invalid("mode", "%q is not a replay position mode", e.Mode)
		}
		return message.NewReplaySetPlayPosition(mode, e.Frame)

	case protocol.ReplaySearch:
		mode, ok := message.ParseReplaySearchMode(e.Mode)
		if !ok {
			return nil, invalid("mode", "%q is not a replay search mode", e.Mode)
		}
		return message.NewReplaySearch(mode)

	case protocol.ReplaySetState:
		mode := message.ReplayStateEraseTape
		if e.Mode != "" {
			var ok bool
			if mode, ok = message.ParseReplayStateMode(e.Mode); !ok {
				return nil, invalid("mode", "%q is not a replay state mode", e.Mode)
			}
		}
		return message.NewReplaySetState(mode)

	case protocol.ReloadTextures:
		if e.CarIdx == nil {
			return message.NewReloadAllTextures(), nil
		}
		return message.NewReloadCarTextures(*e.CarIdx)

	case protocol.ChatCommand:
		mode, ok := message.ParseChatCommandMode(e.Mode)
		if !ok {
			return nil, invalid("mode", "%q is not a chat mode", e.Mode)
		}
		if mode == message.ChatMacro {
			return message.NewChatMacro(e.Macro)
		}
		return message.NewChatCommand(mode)

	case protocol.PitCommand:
		mode, ok := message.ParsePitCommandMode(e.Mode)
		if !ok {
			return nil, invalid("mode", "%q is not a pit command", e.Mode)
		}
		var value uint16
		if e.Value != nil {
			v := *e.Value
			if v < 0 || v > math.MaxUint16 || v != math.Trunc(v) {
				return nil, invalid("value", "%v is not a whole number in 0-%d", v, math.MaxUint16)
			}
			value = uint16(v)
		}
		return message.NewPitCommand(mode, value)

	case protocol.TelemetryCommand:
		mode, ok := message.ParseTelemetryCommandMode(e.Mode)
		if !ok {
			return nil, invalid("mode", "%q is not a telemetry mode", e.Mode)
		}
		return message.NewTelemetryCommand(mode)

	case protocol.FFBCommand:
		mode := message.FFBMaxForce
		if e.Mode != "" {
			var ok bool
			if mode, ok = message.ParseFFBCommandMode(e.Mode); !ok {
				return nil, invalid("mode", "%q is not a force feedback mode", e.Mode)
			}
		}
		if e.Value == nil {
			return nil, invalid("value", "force feedback needs a value")
		}
		if math.Abs(*e.Value) > math.MaxFloat32 {
			return nil, invalid("value", "%v overflows float32", *e.Value)
		}
		return message.NewFFBCommand(mode, float32(*e.Value))

	case protocol.ReplaySearchSessionTime:
		return message.NewReplaySearchSessionTime(e.Session, e.TimeMS)

	case protocol.VideoCapture:
		mode, ok := message.ParseVideoCaptureMode(e.Mode)
		if !ok {
			return nil, invalid("mode", "%q is not a video capture mode", e.Mode)
		}
		return message.NewVideoCapture(mode)
	}

	return nil, invalid("type", "%q is not a message type", e.Type)
}

// EnvelopeOf flattens msg into an Envelope.
func EnvelopeOf(msg message.BroadcastMessage) (*Envelope, error) {
	e := &Envelope{Type: TypeName(msg.Type())}

	switch m := msg.(type) {
	case message.CameraSwitchPosition:
		e.Target, e.Group, e.Camera = m.Target().String(), m.Group(), m.Camera()
	case message.CameraSwitchNumber:
		e.CarNumber, e.Group, e.Camera = m.CarNumber(), m.Group(), m.Camera()
	case message.CameraSetState:
		e.State = m.State().String()
	case message.ReplaySetPlaySpeed:
		e.Speed, e.SlowMotion = m.Speed(), m.SlowMotion()
	case message.ReplaySetPlayPosition:
		e.Mode, e.Frame = m.Mode().String(), m.Frame()
	case message.ReplaySearch:
		e.Mode = m.Mode().String()
	case message.ReplaySetState:
		e.Mode = m.Mode().String()
	case message.ReloadTextures:
		if m.Mode() == message.ReloadTexturesCarIdx {
			idx := m.CarIdx()
			e.CarIdx = &idx
		}
	case message.ChatCommand:
		e.Mode, e.Macro = m.Mode().String(), m.Macro()
	case message.PitCommand:
		e.Mode = m.Mode().String()
		if m.Mode().HasValue() {
			v := float64(m.Value())
			e.Value = &v
		}
	case message.TelemetryCommand:
		e.Mode = m.Mode().String()
	case message.FFBCommand:
		v := float64(m.Value())
		e.Mode, e.Value = m.Mode().String(), &v
	case message.ReplaySearchSessionTime:
		e.Session, e.TimeMS = m.Session(), m.TimeMS()
	case message.VideoCapture:
		e.Mode = m.Mode().String()
	default:
		return nil, fmt.Errorf("codec: unsupported message %T", msg)
	}
	return e, nil
}
