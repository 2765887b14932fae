// Package grabba integrates Grabba sleds through the vendor SDK's listener
// model.
package grabba

import (
	"errors"
	"fmt"
)

// ErrDriverNotInstalled is returned by an Opener when the vendor driver is
// missing
var ErrDriverNotInstalled = errors.New("grabba driver not installed")

// ConnectionListener receives sled attach and detach events
type ConnectionListener interface {
	ConnectedEvent()
	DisconnectedEvent()
}

// ButtonListener receives side button transitions
type ButtonListener interface {
	LeftButtonEvent(pressed bool)
	RightButtonEvent(pressed bool)
}

// BarcodeListener receives scan engine events
type BarcodeListener interface {
	TriggeredEvent()
	TimeoutEvent()
	ScanningStopped()
	ScannedEvent(barcode string, symbology int)
}

// SDK is the subset of the vendor API the backend needs
type SDK interface {
	AddConnectionListener(l ConnectionListener)
	RemoveConnectionListener(l ConnectionListener)
	AddButtonListener(l ButtonListener)
	RemoveButtonListener(l ButtonListener)
	AddBarcodeListener(l BarcodeListener)
	RemoveBarcodeListener(l BarcodeListener)
	// Acquire claims the sled as soon as it is available.
	Acquire()
	Release()
	Trigger(on bool) error
}

// Opener opens the SDK on behalf of appName
type Opener func(appName string) (SDK, error)

var symbologies = []string{
	"Unknown",
	"Code 39",
	"Codabar",
	"Code 128",
	"Discrete 2 of 5",
	"IATA 2 of 5",
	"Interleaved 2 of 5",
	"Code 93",
	"UPC-A",
	"UPC-E",
	"EAN-8",
	"EAN-13",
	"Code 11",
	"MSI",
	"GS1-128",
	"UPC-E1",
	"Trioptic Code 39",
	"Bookland EAN",
	"Coupon Code",
	"GS1 DataBar",
	"PDF417",
	"QR Code",
	"Data Matrix",
	"Aztec",
	"MaxiCode",
}

// SymbologyName returns the display name for an SDK symbology index
func SymbologyName(index int) string {
	if index < 0 || index >= len(symbologies) {
		return fmt.Sprintf("Unknown (%d)", index)
	}
	return symbologies[index]
}
