package codec

import (
	"fmt"
	"strings"

	"iracing-broadcast/protocol"
)

// Command names, indexed by protocol tag.
var typeNames = [...]string{
	protocol.CameraSwitchPosition:    "camera-position",
	protocol.CameraSwitchNumber:      "camera-number",
	protocol.CameraSetState:          "camera-state",
	protocol.ReplaySetPlaySpeed:      "replay-speed",
	protocol.ReplaySetPlayPosition:   "replay-position",
	protocol.ReplaySearch:            "replay-search",
	protocol.ReplaySetState:          "replay-state",
	protocol.ReloadTextures:          "reload-textures",
	protocol.ChatCommand:             "chat",
	protocol.PitCommand:              "pit",
	protocol.TelemetryCommand:        "telemetry",
	protocol.FFBCommand:              "ffb",
	protocol.ReplaySearchSessionTime: "replay-session-time",
	protocol.VideoCapture:            "video-capture",
}

// Usage lines for the text form, indexed by protocol tag.
var typeUsage = [...]string{
	protocol.CameraSwitchPosition:    "camera-position <position|incident|leader|exiting> [group] [camera]",
	protocol.CameraSwitchNumber:      "camera-number <car-number> [group] [camera]",
	protocol.CameraSetState:          "camera-state <flag|flag...|number|none>",
	protocol.ReplaySetPlaySpeed:      "replay-speed <speed> [slow]",
	protocol.ReplaySetPlayPosition:   "replay-position <begin|current|end> [frame]",
	protocol.ReplaySearch:            "replay-search <to-start|to-end|prev-session|next-session|prev-lap|next-lap|prev-frame|next-frame|prev-incident|next-incident>",
	protocol.ReplaySetState:          "replay-state [erase-tape]",
	protocol.ReloadTextures:          "reload-textures [car-idx]",
	protocol.ChatCommand:             "chat <begin-chat|reply|cancel|macro <1-15>>",
	protocol.PitCommand:              "pit <clear|tearoff|fuel|lf|rf|lr|rr|clear-tires|fast-repair|clear-tearoff|clear-fast-repair|clear-fuel> [value]",
	protocol.TelemetryCommand:        "telemetry <stop|start|restart>",
	protocol.FFBCommand:              "ffb max-force <newton-meters>",
	protocol.ReplaySearchSessionTime: "replay-session-time <session> <milliseconds>",
	protocol.VideoCapture:            "video-capture <screenshot|start|end|toggle|show-timer|hide-timer>",
}

// TypeName returns the codec name of a protocol tag.
func TypeName(t protocol.MessageType) string {
	if t.Valid() {
		return typeNames[t]
	}
	return t.String()
}

// ParseType resolves a codec name to its protocol tag.
func ParseType(name string) (protocol.MessageType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range typeNames {
		if n == name {
			return protocol.MessageType(i), nil
		}
	}
	return 0, fmt.Errorf("codec: unknown message type %q", name)
}

// TypeInfo describes one command for listings.
type TypeInfo struct {
	Name  string               `json:"name"`
	Tag   protocol.MessageType `json:"tag"`
	Usage string               `json:"usage"`
}

// Types lists every command in tag order.
func Types() []TypeInfo {
	out := make([]TypeInfo, 0, len(typeNames))
	for i, n := range typeNames {
		out = append(out, TypeInfo{Name: n, Tag: protocol.MessageType(i), Usage: typeUsage[i]})
	}
	return out
}
