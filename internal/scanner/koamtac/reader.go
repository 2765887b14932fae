// Package koamtac integrates KDC series scanners, whose reader reports
// numeric connection states and decoded barcodes through listener callbacks.
package koamtac

import "fieldlink/internal/scanner"

// ConnectionState is the reader's native connection state
type ConnectionState int

const (
	StateNone               ConnectionState = 0
	StateListen             ConnectionState = 1
	StateConnecting         ConnectionState = 2
	StateConnected          ConnectionState = 3
	StateLost               ConnectionState = 4
	StateFailed             ConnectionState = 5
	StateConnectedXP67      ConnectionState = 6
	StateInitializing       ConnectionState = 7
	StateInitializingFailed ConnectionState = 8
)

// translate maps a native state to the neutral one. ok is false for states
// that are not reported.
func translate(s ConnectionState) (state scanner.State, details string, ok bool) {
	switch s {
	case StateConnected, StateConnectedXP67:
		return scanner.Connected, "Connected", true
	case StateFailed:
		return scanner.Failed, "Failed to connect to scanner", true
	case StateListen:
		return scanner.SearchingOrConnecting, "Listening for scanner", true
	case StateLost:
		return scanner.Lost, "Lost connection to scanner", true
	case StateConnecting:
		return scanner.SearchingOrConnecting, "Connecting to scanner", true
	case StateNone:
		return scanner.Disconnected, "No connection to scanner", true
	}
	return scanner.Idle, "", false
}

// Data is one decoded barcode
type Data struct {
	Barcode   string
	Symbology Symbology
}

// Listener receives reader callbacks
type Listener interface {
	ConnectionChanged(address string, state ConnectionState)
	BarcodeDataReceived(data Data)
}

// Reader is a live reader connection
type Reader interface {
	Dispose() error
}

// ReaderFactory constructs a reader that reports to l. It may block.
type ReaderFactory func(l Listener) (Reader, error)
