package message

import (
	"iracing-broadcast/broadcasterr"
	"iracing-broadcast/protocol"
)

// ReplaySetPlaySpeed sets the replay speed. A negative speed plays in
// reverse; with slow motion the speed is a divisor (1/speed).
type ReplaySetPlaySpeed struct {
	speed      int16
	slowMotion bool
}

func NewReplaySetPlaySpeed(speed int16, slowMotion bool) (ReplaySetPlaySpeed, error) {
	return ReplaySetPlaySpeed{speed: speed, slowMotion: slowMotion}, nil
}

func (m ReplaySetPlaySpeed) Type() protocol.MessageType { return protocol.ReplaySetPlaySpeed }
func (m ReplaySetPlaySpeed) Speed() int16               { return m.speed }
func (m ReplaySetPlaySpeed) SlowMotion() bool           { return m.slowMotion }

func (m ReplaySetPlaySpeed) encode() protocol.Words {
	var slow uint16
	if m.slowMotion {
		slow = 1
	}
	return protocol.Pack(protocol.ReplaySetPlaySpeed, uint16(m.speed), slow, 0)
}

// ReplaySetPlayPosition moves the replay to a frame relative to mode.
type ReplaySetPlayPosition struct {
	mode  ReplayPositionMode
	frame int32
}

func NewReplaySetPlayPosition(mode ReplayPositionMode, frame int32) (ReplaySetPlayPosition, error) {
	if !mode.Valid() {
		return ReplaySetPlayPosition{}, broadcasterr.Invalid("NewReplaySetPlayPosition", "mode",
			"%d exceeds %d", uint16(mode), uint16(ReplayPosEnd))
	}
	return ReplaySetPlayPosition{mode: mode, frame: frame}, nil
}

func (m ReplaySetPlayPosition) Type() protocol.MessageType { return protocol.ReplaySetPlayPosition }
func (m ReplaySetPlayPosition) Mode() ReplayPositionMode   { return m.mode }
func (m ReplaySetPlayPosition) Frame() int32               { return m.frame }

func (m ReplaySetPlayPosition) encode() protocol.Words {
	return protocol.PackLong(protocol.ReplaySetPlayPosition, uint16(m.mode), m.frame)
}

// ReplaySearch jumps the replay to the next or previous point of interest.
type ReplaySearch struct {
	mode ReplaySearchMode
}

func NewReplaySearch(mode ReplaySearchMode) (ReplaySearch, error) {
	if !mode.Valid() {
		return ReplaySearch{}, broadcasterr.Invalid("NewReplaySearch", "mode",
			"%d exceeds %d", uint16(mode), uint16(ReplaySearchNextIncident))
	}
	return ReplaySearch{mode: mode}, nil
}

func (m ReplaySearch) Type() protocol.MessageType { return protocol.ReplaySearch }
func (m ReplaySearch) Mode() ReplaySearchMode     { return m.mode }

func (m ReplaySearch) encode() protocol.Words {
	return protocol.Pack(protocol.ReplaySearch, uint16(m.mode), 0, 0)
}

// ReplaySetState operates on the replay tape.
type ReplaySetState struct {
	mode ReplayStateMode
}

func NewReplaySetState(mode ReplayStateMode) (ReplaySetState, error) {
	if !mode.Valid() {
		return ReplaySetState{}, broadcasterr.Invalid("NewReplaySetState", "mode",
			"%d exceeds %d", uint16(mode), uint16(ReplayStateEraseTape))
	}
	return ReplaySetState{mode: mode}, nil
}

func (m ReplaySetState) Type() protocol.MessageType { return protocol.ReplaySetState }
func (m ReplaySetState) Mode() ReplayStateMode      { return m.mode }

func (m ReplaySetState) encode() protocol.Words {
	return protocol.Pack(protocol.ReplaySetState, uint16(m.mode), 0, 0)
}

// ReplaySearchSessionTime jumps the replay to a time within a session.
type ReplaySearchSessionTime struct {
	session uint16
	timeMS  int32
}

func NewReplaySearchSessionTime(session uint16, timeMS int32) (ReplaySearchSessionTime, error) {
	if timeMS < 0 {
		return ReplaySearchSessionTime{}, broadcasterr.Invalid("NewReplaySearchSessionTime", "time",
			"%dms is negative", timeMS)
	}
	return ReplaySearchSessionTime{session: session, timeMS: timeMS}, nil
}

func (m ReplaySearchSessionTime) Type() protocol.MessageType {
	return protocol.ReplaySearchSessionTime
}
func (m ReplaySearchSessionTime) Session() uint16 { return m.session }
func (m ReplaySearchSessionTime) TimeMS() int32   { return m.timeMS }

func (m ReplaySearchSessionTime) encode() protocol.Words {
	return protocol.PackLong(protocol.ReplaySearchSessionTime, m.session, m.timeMS)
}
