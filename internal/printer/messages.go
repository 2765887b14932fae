package printer

import "fmt"

// Table resolves message identifiers to display text
type Table interface {
	Lookup(id MessageID) (string, bool)
}

// MapTable is a Table backed by a map
type MapTable map[MessageID]string

// Lookup implements Table
func (m MapTable) Lookup(id MessageID) (string, bool) {
	s, ok := m[id]
	return s, ok
}

// DefaultMessages holds the English text for every message
var DefaultMessages = MapTable{
	MsgNoBluetooth:        "Bluetooth is not available on this device.",
	MsgNoPrinter:          "No paired printer was found. Pair the printer in Bluetooth settings and try again.",
	MsgPermission:         "Bluetooth must be turned on to print.",
	MsgPrintIOError:       "Unable to communicate with the printer. Check that it is on and in range.",
	MsgPrintInterrupted:   "Printing was interrupted.",
	MsgBatteryIOError:     "Unable to read the printer battery level.",
	MsgBatteryParseError:  "The printer returned an unexpected battery level.",
	MsgBatteryInterrupted: "Reading the printer battery level was interrupted.",
	MsgBatteryTimeout:     "The printer did not report its battery level in time.",
}

// Resolve returns the text for id. A nil table or an unknown id yields a
// fallback that still carries the numeric identifier.
func Resolve(t Table, id MessageID) string {
	if t == nil {
		return fmt.Sprintf("Failed to access printer (%d)", id)
	}
	if s, ok := t.Lookup(id); ok {
		return s
	}
	return fmt.Sprintf("Failed to access printer, unknown error (%d)", id)
}
