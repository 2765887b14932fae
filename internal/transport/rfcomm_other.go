//go:build !linux

package transport

import (
	"context"

	"github.com/google/uuid"

	"fieldlink/internal/bluetooth"
)

// RFCOMMDialer is only implemented on Linux
type RFCOMMDialer struct {
	Channel uint8
}

// NewRFCOMMDialer creates a dialer for the given RFCOMM channel
func NewRFCOMMDialer(channel uint8) *RFCOMMDialer {
	return &RFCOMMDialer{Channel: channel}
}

// Open always fails on this platform
func (d *RFCOMMDialer) Open(_ context.Context, _ bluetooth.DeviceRecord, _ uuid.UUID) (*Session, error) {
	return nil, bluetooth.ErrNotSupported
}
