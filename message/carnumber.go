package message

import (
	"iracing-broadcast/broadcasterr"
)

// PadCarNumber encodes a car number string into the protocol's 16-bit form.
// Leading zeros are folded into the thousands place so that they stay
// distinct: "1" -> 1, "01" -> 2001, "001" -> 3001. In an all-zero number one
// zero is the number itself: "0" -> 0, "00" -> 2000.
func PadCarNumber(s string) (uint16, error) {
	if len(s) == 0 || len(s) > 3 {
		return 0, broadcasterr.Invalid("PadCarNumber", "car number",
			"%q must have 1 to 3 digits", s)
	}

	var num, zeros uint16
	leading := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, broadcasterr.Invalid("PadCarNumber", "car number",
				"%q is not a number", s)
		}
		if leading && c == '0' {
			zeros++
		} else {
			leading = false
		}
		num = num*10 + uint16(c-'0')
	}
	if int(zeros) == len(s) {
		zeros--
	}
	if zeros == 0 {
		return num, nil
	}

	var places uint16 = 1
	switch {
	case num > 99:
		places = 3
	case num > 9:
		places = 2
	}
	return num + 1000*(places+zeros), nil
}
