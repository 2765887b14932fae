// Package zebra builds Set-Get-Do control commands for Zebra mobile printers.
package zebra

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PowerPercentFull is the battery charge variable
const PowerPercentFull = "power.percent_full"

// Command builds SGD command lines
type Command struct {
	buf strings.Builder
}

func New() *Command {
	return &Command{}
}

// GetVar queries a setting
func (c *Command) GetVar(name string) *Command {
	fmt.Fprintf(&c.buf, "! U1 getvar %q\r\n", name)
	return c
}

// Bytes returns the command as 7-bit ASCII
func (c *Command) Bytes() []byte {
	return ASCII(c.buf.String())
}

// String returns the command text (for logging)
func (c *Command) String() string {
	return c.buf.String()
}

// BatteryQuery asks the printer for its charge as a percentage
func BatteryQuery() []byte {
	return New().GetVar(PowerPercentFull).Bytes()
}

// ASCII encodes s as 7-bit ASCII, replacing anything else with '?'
func ASCII(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0x7f {
			out = append(out, '?')
			continue
		}
		out = append(out, byte(r))
	}
	return out
}

var digits = regexp.MustCompile(`\d+`)

// FindPercent extracts the first run of decimal digits from a getvar reply
// such as `"57"`. ok is false when the text holds no digits.
func FindPercent(reply string) (value int, ok bool, err error) {
	m := digits.FindString(reply)
	if m == "" {
		return 0, false, nil
	}
	value, err = strconv.Atoi(m)
	if err != nil {
		return 0, true, fmt.Errorf("battery reply %q: %w", m, err)
	}
	return value, true, nil
}
