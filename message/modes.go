package message

import (
	"fmt"
	"strings"
)

// Mode values are the wire ordinals defined by the broadcast protocol.
// Names are the kebab-case forms accepted by the codecs.

func modeString(names []string, v uint16, typ string) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("%s(%d)", typ, v)
}

func parseMode(names []string, s string) (uint16, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return uint16(i), true
		}
	}
	return 0, false
}

// ReplayPositionMode selects the origin of a replay frame offset.
type ReplayPositionMode uint16

const (
	ReplayPosBegin ReplayPositionMode = iota
	ReplayPosCurrent
	ReplayPosEnd
)

var replayPositionNames = []string{"begin", "current", "end"}

func (m ReplayPositionMode) String() string {
	return modeString(replayPositionNames, uint16(m), "ReplayPositionMode")
}
func (m ReplayPositionMode) Valid() bool { return m <= ReplayPosEnd }

// ParseReplayPositionMode parses a mode name such as "begin".
func ParseReplayPositionMode(s string) (ReplayPositionMode, bool) {
	v, ok := parseMode(replayPositionNames, s)
	return ReplayPositionMode(v), ok
}

// ReplaySearchMode selects where a replay search jumps to.
type ReplaySearchMode uint16

const (
	ReplaySearchToStart ReplaySearchMode = iota
	ReplaySearchToEnd
	ReplaySearchPrevSession
	ReplaySearchNextSession
	ReplaySearchPrevLap
	ReplaySearchNextLap
	ReplaySearchPrevFrame
	ReplaySearchNextFrame
	ReplaySearchPrevIncident
	ReplaySearchNextIncident
)

var replaySearchNames = []string{
	"to-start", "to-end", "prev-session", "next-session", "prev-lap",
	"next-lap", "prev-frame", "next-frame", "prev-incident", "next-incident",
}

func (m ReplaySearchMode) String() string {
	return modeString(replaySearchNames, uint16(m), "ReplaySearchMode")
}
func (m ReplaySearchMode) Valid() bool { return m <= ReplaySearchNextIncident }

func ParseReplaySearchMode(s string) (ReplaySearchMode, bool) {
	v, ok := parseMode(replaySearchNames, s)
	return ReplaySearchMode(v), ok
}

// ReplayStateMode is the replay tape operation.
type ReplayStateMode uint16

const (
	ReplayStateEraseTape ReplayStateMode = iota // Clear any data in the replay tape
)

var replayStateNames = []string{"erase-tape"}

func (m ReplayStateMode) String() string {
	return modeString(replayStateNames, uint16(m), "ReplayStateMode")
}
func (m ReplayStateMode) Valid() bool { return m <= ReplayStateEraseTape }

func ParseReplayStateMode(s string) (ReplayStateMode, bool) {
	v, ok := parseMode(replayStateNames, s)
	return ReplayStateMode(v), ok
}

// ReloadTexturesMode selects which car textures are reloaded.
type ReloadTexturesMode uint16

const (
	ReloadTexturesAll ReloadTexturesMode = iota
	ReloadTexturesCarIdx
)

var reloadTexturesNames = []string{"all", "car-idx"}

func (m ReloadTexturesMode) String() string {
	return modeString(reloadTexturesNames, uint16(m), "ReloadTexturesMode")
}
func (m ReloadTexturesMode) Valid() bool { return m <= ReloadTexturesCarIdx }

func ParseReloadTexturesMode(s string) (ReloadTexturesMode, bool) {
	v, ok := parseMode(reloadTexturesNames, s)
	return ReloadTexturesMode(v), ok
}

// ChatCommandMode is the chat window operation.
type ChatCommandMode uint16

const (
	ChatMacro     ChatCommandMode = iota // Carries a macro number 1-15
	ChatBeginChat                        // Open a new chat window
	ChatReply                            // Reply to the last private chat
	ChatCancel                           // Close the chat window
)

var chatCommandNames = []string{"macro", "begin-chat", "reply", "cancel"}

func (m ChatCommandMode) String() string {
	return modeString(chatCommandNames, uint16(m), "ChatCommandMode")
}
func (m ChatCommandMode) Valid() bool { return m <= ChatCancel }

func ParseChatCommandMode(s string) (ChatCommandMode, bool) {
	v, ok := parseMode(chatCommandNames, s)
	return ChatCommandMode(v), ok
}

// PitCommandMode is the pit service request. Only the player's car can be
// serviced, and only while in the car.
type PitCommandMode uint16

const (
	PitClear           PitCommandMode = iota // Clear all pit checkboxes
	PitWS                                    // Clean the windshield (tearoff)
	PitFuel                                  // Add fuel, value in liters, 0 keeps the current amount
	PitLF                                    // Change left front tire, value in KPa, 0 keeps the current pressure
	PitRF                                    // Change right front tire
	PitLR                                    // Change left rear tire
	PitRR                                    // Change right rear tire
	PitClearTires                            // Clear tire pit checkboxes
	PitFR                                    // Request a fast repair
	PitClearWS                               // Uncheck clean the windshield
	PitClearFR                               // Uncheck fast repair
	PitClearFuel                             // Uncheck add fuel
)

// PitTearoff is the windshield tearoff request.
const PitTearoff = PitWS

var pitCommandNames = []string{
	"clear", "tearoff", "fuel", "lf", "rf", "lr", "rr",
	"clear-tires", "fast-repair", "clear-tearoff", "clear-fast-repair", "clear-fuel",
}

func (m PitCommandMode) String() string {
	return modeString(pitCommandNames, uint16(m), "PitCommandMode")
}
func (m PitCommandMode) Valid() bool { return m <= PitClearFuel }

// HasValue reports whether the mode carries a value in var2.
func (m PitCommandMode) HasValue() bool {
	switch m {
	case PitFuel, PitLF, PitRF, PitLR, PitRR:
		return true
	}
	return false
}

func ParsePitCommandMode(s string) (PitCommandMode, bool) {
	v, ok := parseMode(pitCommandNames, s)
	return PitCommandMode(v), ok
}

// TelemetryCommandMode controls disk telemetry recording.
type TelemetryCommandMode uint16

const (
	TelemetryStop TelemetryCommandMode = iota
	TelemetryStart
	TelemetryRestart // Write the current file to disk and start a new one
)

var telemetryCommandNames = []string{"stop", "start", "restart"}

func (m TelemetryCommandMode) String() string {
	return modeString(telemetryCommandNames, uint16(m), "TelemetryCommandMode")
}
func (m TelemetryCommandMode) Valid() bool { return m <= TelemetryRestart }

func ParseTelemetryCommandMode(s string) (TelemetryCommandMode, bool) {
	v, ok := parseMode(telemetryCommandNames, s)
	return TelemetryCommandMode(v), ok
}

// FFBCommandMode selects the force feedback setting to change.
type FFBCommandMode uint16

const (
	FFBMaxForce FFBCommandMode = iota // Steering wheel max force in Nm
)

var ffbCommandNames = []string{"max-force"}

func (m FFBCommandMode) String() string {
	return modeString(ffbCommandNames, uint16(m), "FFBCommandMode")
}
func (m FFBCommandMode) Valid() bool { return m <= FFBMaxForce }

func ParseFFBCommandMode(s string) (FFBCommandMode, bool) {
	v, ok := parseMode(ffbCommandNames, s)
	return FFBCommandMode(v), ok
}

// VideoCaptureMode controls screenshots and video capture.
type VideoCaptureMode uint16

const (
	VideoScreenShot VideoCaptureMode = iota
	VideoStartCapture
	VideoEndCapture
	VideoToggleCapture
	VideoShowTimer
	VideoHideTimer
)

var videoCaptureNames = []string{
	"screenshot", "start", "end", "toggle", "show-timer", "hide-timer",
}

func (m VideoCaptureMode) String() string {
	return modeString(videoCaptureNames, uint16(m), "VideoCaptureMode")
}
func (m VideoCaptureMode) Valid() bool { return m <= VideoHideTimer }

func ParseVideoCaptureMode(s string) (VideoCaptureMode, bool) {
	v, ok := parseMode(videoCaptureNames, s)
	return VideoCaptureMode(v), ok
}
