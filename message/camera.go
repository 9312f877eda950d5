package message

import (
	"fmt"
	"strconv"
	"strings"

	"iracing-broadcast/broadcasterr"
	"iracing-broadcast/protocol"
)

// CameraTarget is the car a camera switch focuses on: a race position or a
// car number, or one of the negative focus modes.
type CameraTarget int16

const (
	FocusAtIncident CameraTarget = -3
	FocusAtLeader   CameraTarget = -2
	FocusAtExiting  CameraTarget = -1
)

var focusNames = map[CameraTarget]string{
	FocusAtIncident: "incident",
	FocusAtLeader:   "leader",
	FocusAtExiting:  "exiting",
}

func (t CameraTarget) String() string {
	if n, ok := focusNames[t]; ok {
		return n
	}
	return strconv.Itoa(int(t))
}

func (t CameraTarget) Valid() bool { return t >= FocusAtIncident }

// ParseCameraTarget parses a focus mode name or a non-negative position.
func ParseCameraTarget(s string) (CameraTarget, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, n := range focusNames {
		if n == s {
			return t, true
		}
	}
	n, err := strconv.ParseInt(s, 10, 16)
	if err != nil || n < 0 {
		return 0, false
	}
	return CameraTarget(n), true
}

// CameraState is the bit field of camera tool state.
type CameraState uint16

const (
	CamIsSessionScreen       CameraState = 0x0001 // The camera tool can only be activated if viewing the session screen (out of car)
	CamIsScenicActive        CameraState = 0x0002 // The scenic camera is active (no focus car)
	CamToolActive            CameraState = 0x0004
	CamUIHidden              CameraState = 0x0008
	CamUseAutoShotSelection  CameraState = 0x0010
	CamUseTemporaryEdits     CameraState = 0x0020
	CamUseKeyAcceleration    CameraState = 0x0040
	CamUseKey10xAcceleration CameraState = 0x0080
	CamUseMouseAimMode       CameraState = 0x0100
)

// CameraStateMask holds every flag defined by the protocol.
const CameraStateMask CameraState = 0x01FF

var cameraStateNames = []string{
	"session-screen", "scenic-active", "cam-tool-active", "ui-hidden",
	"auto-shot-selection", "temporary-edits", "key-acceleration",
	"key-10x-acceleration", "mouse-aim-mode",
}

func (s CameraState) Valid() bool { return s&^CameraStateMask == 0 }

// Has reports whether all bits of flag are set.
func (s CameraState) Has(flag CameraState) bool { return s&flag == flag }

func (s CameraState) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	for i, n := range cameraStateNames {
		if s&(1<<i) != 0 {
			parts = append(parts, n)
		}
	}
	if rest := s &^ CameraStateMask; rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint16(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseCameraState parses "ui-hidden|scenic-active", "none" or a number.
func ParseCameraState(s string) (CameraState, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "none" || s == "" {
		return 0, true
	}
	if n, err := strconv.ParseUint(s, 0, 16); err == nil {
		return CameraState(n), true
	}
	var st CameraState
	for _, part := range strings.Split(s, "|") {
		v, ok := parseMode(cameraStateNames, part)
		if !ok {
			return 0, false
		}
		st |= 1 << v
	}
	return st, true
}

// CameraSwitchPosition focuses the camera on the car at a race position.
type CameraSwitchPosition struct {
	target CameraTarget
	group  uint16
	camera uint16
}

// NewCameraSwitchPosition switches to group and camera focused on target.
// A group or camera of 0 keeps the current one.
func NewCameraSwitchPosition(target CameraTarget, group, camera uint16) (CameraSwitchPosition, error) {
	if !target.Valid() {
		return CameraSwitchPosition{}, broadcasterr.Invalid("NewCameraSwitchPosition", "target",
			"%d is below %d", int16(target), int16(FocusAtIncident))
	}
	return CameraSwitchPosition{target: target, group: group, camera: camera}, nil
}

func (m CameraSwitchPosition) Type() protocol.MessageType { return protocol.CameraSwitchPosition }
func (m CameraSwitchPosition) Target() CameraTarget       { return m.target }
func (m CameraSwitchPosition) Group() uint16              { return m.group }
func (m CameraSwitchPosition) Camera() uint16             { return m.camera }

func (m CameraSwitchPosition) encode() protocol.Words {
	return protocol.Pack(protocol.CameraSwitchPosition, uint16(m.target), m.group, m.camera)
}

// CameraSwitchNumber focuses the camera on a car by its painted number.
type CameraSwitchNumber struct {
	carNumber string
	padded    uint16
	group     uint16
	camera    uint16
}

// NewCameraSwitchNumber switches to group and camera focused on the car
// numbered carNumber. Leading zeros are significant: "1", "01" and "001"
// are different cars.
func NewCameraSwitchNumber(carNumber string, group, camera uint16) (CameraSwitchNumber, error) {
	padded, err := PadCarNumber(carNumber)
	if err != nil {
		return CameraSwitchNumber{}, err
	}
	return CameraSwitchNumber{carNumber: carNumber, padded: padded, group: group, camera: camera}, nil
}

func (m CameraSwitchNumber) Type() protocol.MessageType { return protocol.CameraSwitchNumber }

// CarNumber returns the car number as given, "0" for the zero value.
func (m CameraSwitchNumber) CarNumber() string {
	if m.carNumber == "" {
		return "0"
	}
	return m.carNumber
}
func (m CameraSwitchNumber) Group() uint16  { return m.group }
func (m CameraSwitchNumber) Camera() uint16 { return m.camera }

func (m CameraSwitchNumber) encode() protocol.Words {
	return protocol.Pack(protocol.CameraSwitchNumber, m.padded, m.group, m.camera)
}

// CameraSetState sets the camera tool state.
type CameraSetState struct {
	state CameraState
}

func NewCameraSetState(state CameraState) (CameraSetState, error) {
	if !state.Valid() {
		return CameraSetState{}, broadcasterr.Invalid("NewCameraSetState", "state",
			"unknown bits 0x%x", uint16(state&^CameraStateMask))
	}
	return CameraSetState{state: state}, nil
}

func (m CameraSetState) Type() protocol.MessageType { return protocol.CameraSetState }
func (m CameraSetState) State() CameraState         { return m.state }

func (m CameraSetState) encode() protocol.Words {
	return protocol.Pack(protocol.CameraSetState, uint16(m.state), 0, 0)
}
