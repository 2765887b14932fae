package printer

// Code classifies how a printer job ended. It is a string newtype so it can
// travel over the wire unchanged.
type Code string

func (c Code) Error() string { return string(c) }

const (
	OK                 Code = "none"
	NoAdapter          Code = "no_adapter"
	PermissionRequired Code = "permission_required"
	NoDeviceFound      Code = "no_device_found"
	IOError            Code = "io_error"
	ParseError         Code = "parse_error"
	Timeout            Code = "timeout"
	Interrupted        Code = "interrupted"
)

// Battery read results. Positive values are a charge percentage.
const (
	BatteryNoPrinter    = 0
	BatteryPrinterError = -1
	BatteryParseError   = -2
	BatteryInterrupted  = -3
	BatteryTimeout      = -4
)

// MessageID identifies a user facing message in a Table
type MessageID int

const (
	MsgNone MessageID = iota
	MsgNoBluetooth
	MsgNoPrinter
	MsgPermission
	MsgPrintIOError
	MsgPrintInterrupted
	MsgBatteryIOError
	MsgBatteryParseError
	MsgBatteryInterrupted
	MsgBatteryTimeout
)
