package codec

import (
	"strconv"
	"strings"

	"iracing-broadcast/message"
	"iracing-broadcast/protocol"
)

// TextCodec reads and writes the command-line form: a command name followed
// by whitespace-separated arguments, e.g. "pit fuel 40" or
// "camera-number 064 1 2". Types lists the syntax of every command.
type TextCodec struct{}

func (c *TextCodec) Encode(msg message.BroadcastMessage) ([]byte, error) {
	e, err := EnvelopeOf(msg)
	if err != nil {
		return nil, err
	}

	args := []string{e.Type}
	switch msg.Type() {
	case protocol.CameraSwitchPosition:
		args = append(args, e.Target, itoa(e.Group), itoa(e.Camera))
	case protocol.CameraSwitchNumber:
		args = append(args, e.CarNumber, itoa(e.Group), itoa(e.Camera))
	case protocol.CameraSetState:
		args = append(args, e.State)
	case protocol.ReplaySetPlaySpeed:
		args = append(args, strconv.Itoa(int(e.Speed)))
		if e.SlowMotion {
			args = append(args, "slow")
		}
	case protocol.ReplaySetPlayPosition:
		args = append(args, e.Mode, strconv.Itoa(int(e.Frame)))
	case protocol.ReloadTextures:
		if e.CarIdx != nil {
			args = append(args, itoa(*e.CarIdx))
		}
	case protocol.ChatCommand:
		args = append(args, e.Mode)
		if e.Mode == message.ChatMacro.String() {
			args = append(args, itoa(e.Macro))
		}
	case protocol.PitCommand:
		args = append(args, e.Mode)
		if e.Value != nil {
			args = append(args, strconv.FormatFloat(*e.Value, 'f', -1, 64))
		}
	case protocol.FFBCommand:
		args = append(args, e.Mode, strconv.FormatFloat(*e.Value, 'g', -1, 32))
	case protocol.ReplaySearchSessionTime:
		args = append(args, itoa(e.Session), strconv.Itoa(int(e.TimeMS)))
	default:
		args = append(args, e.Mode)
	}
	return []byte(strings.Join(args, " ")), nil
}

func (c *TextCodec) Decode(data []byte) (message.BroadcastMessage, error) {
	return ParseArgs(strings.Fields(string(data)))
}

func (c *TextCodec) Type() CodecType {
	return CodecTypeText
}

// ParseArgs decodes an already split command line, such as cobra's args.
func ParseArgs(args []string) (message.BroadcastMessage, error) {
	if len(args) == 0 {
		return nil, invalid("type", "empty command")
	}
	t, err := ParseType(args[0])
	if err != nil {
		return nil, invalid("type", "%q is not a message type", args[0])
	}
	p := argParser{args: args[1:], usage: typeUsage[t]}
	e := &Envelope{Type: typeNames[t]}

	switch t {
	case protocol.CameraSwitchPosition:
		e.Target = p.required("target")
		e.Group = p.optionalUint16("group")
		e.Camera = p.optionalUint16("camera")
	case protocol.CameraSwitchNumber:
		e.CarNumber = p.required("car number")
		e.Group = p.optionalUint16("group")
		e.Camera = p.optionalUint16("camera")
	case protocol.CameraSetState:
		e.State = p.required("state")
	case protocol.ReplaySetPlaySpeed:
		e.Speed = p.int16Arg("speed", true)
		if s := p.optional(); s != "" {
			if s != "slow" {
				p.fail("slow motion", "%q is not \"slow\"", s)
			}
			e.SlowMotion = true
		}
	case protocol.ReplaySetPlayPosition:
		e.Mode = p.required("mode")
		e.Frame = p.int32Arg("frame", false)
	case protocol.ReloadTextures:
		if s := p.optional(); s != "" {
			idx := p.parseUint16("car index", s)
			e.CarIdx = &idx
		}
	case protocol.ChatCommand:
		e.Mode = p.required("mode")
		e.Macro = p.optionalUint16("macro")
	case protocol.PitCommand:
		e.Mode = p.required("mode")
		if s := p.optional(); s != "" {
			v := p.parseFloat("value", s)
			e.Value = &v
		}
	case protocol.FFBCommand:
		e.Mode = p.required("mode")
		v := p.parseFloat("value", p.required("value"))
		e.Value = &v
	case protocol.ReplaySearchSessionTime:
		e.Session = p.parseUint16("session", p.required("session"))
		e.TimeMS = p.int32Arg("time", true)
	case protocol.ReplaySetState:
		e.Mode = p.optional()
	default:
		e.Mode = p.required("mode")
	}
	p.done()

	if p.err != nil {
		return nil, p.err
	}
	return e.Message()
}

func itoa(v uint16) string {
	return strconv.Itoa(int(v))
}

// argParser consumes positional arguments and keeps the first error.
type argParser struct {
	args  []string
	usage string
	err   error
}

func (p *argParser) fail(param, format string, args ...any) {
	if p.err == nil {
		p.err = invalid(param, format+" (usage: "+p.usage+")", args...)
	}
}

func (p *argParser) optional() string {
	if len(p.args) == 0 {
		return ""
	}
	s := p.args[0]
	p.args = p.args[1:]
	return s
}

func (p *argParser) required(param string) string {
	s := p.optional()
	if s == "" {
		p.fail(param, "missing")
	}
	return s
}

func (p *argParser) parseUint16(param, s string) uint16 {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		p.fail(param, "%q is not a number in 0-65535", s)
	}
	return uint16(v)
}

func (p *argParser) optionalUint16(param string) uint16 {
	if s := p.optional(); s != "" {
		return p.parseUint16(param, s)
	}
	return 0
}

func (p *argParser) int16Arg(param string, required bool) int16 {
	s := p.optional()
	if s == "" {
		if required {
			p.fail(param, "missing")
		}
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 16)
	if err != nil {
		p.fail(param, "%q is not a 16-bit number", s)
	}
	return int16(v)
}

func (p *argParser) int32Arg(param string, required bool) int32 {
	s := p.optional()
	if s == "" {
		if required {
			p.fail(param, "missing")
		}
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		p.fail(param, "%q is not a 32-bit number", s)
	}
	return int32(v)
}

func (p *argParser) parseFloat(param, s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.fail(param, "%q is not a number", s)
	}
	return v
}

func (p *argParser) done() {
	if len(p.args) > 0 {
		p.fail("arguments", "unexpected %q", strings.Join(p.args, " "))
	}
}
