// Package scanner supervises a barcode scanner backend and delivers its
// events to a single delegate in arrival order.
package scanner

//go:generate mockgen -destination=mock_scanner.go -package=scanner fieldlink/internal/scanner Backend,Delegate

// State is the vendor neutral connection state of a scanner
type State int

const (
	Idle State = iota
	Released
	SearchingOrConnecting
	Connected
	Lost
	Failed
	Disconnected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Released:
		return "released"
	case SearchingOrConnecting:
		return "connecting"
	case Connected:
		return "connected"
	case Lost:
		return "lost"
	case Failed:
		return "failed"
	case Disconnected:
		return "disconnected"
	}
	return "unknown"
}

// NeedsReconnect reports whether the state is a connection loss that
// warrants a deferred reconnect.
func (s State) NeedsReconnect() bool {
	return s == Lost || s == Failed || s == Disconnected
}

// Backend is a vendor scanner integration
type Backend interface {
	IsConnected() bool
	ConnectionDetails() string
	// Resume acquires the hardware and starts listening.
	Resume()
	// Pause stops listening and releases the hardware.
	Pause()
}

// Emitter is what backends report through. Button returns whether the
// delegate handled the transition.
type Emitter interface {
	Connection(state State, details string)
	Error(message, details string)
	Button(isLeft, isPressed bool) bool
	Scanning(isScanning bool, details string)
	Barcode(payload, symbology string)
}

// Factory builds the one backend a Supervisor drives
type Factory func(em Emitter) (Backend, error)

// Delegate receives scanner events. Calls are never concurrent.
type Delegate interface {
	OnConnected(isConnected bool, details string)
	OnError(message, details string)
	// OnButton returns true when the delegate handled the button itself.
	OnButton(isLeft, isPressed bool) bool
	OnScanning(isScanning bool, details string)
	OnBarcode(payload, symbology string)
}
