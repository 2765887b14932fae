// Package bluetooth enumerates bonded Bluetooth peers and picks the one a
// caller needs by device class and advertised service.
package bluetooth

//go:generate mockgen -destination=mock_source.go -package=bluetooth fieldlink/internal/bluetooth Source

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrNoAdapter       = errors.New("no Bluetooth adapter present")
	ErrAdapterDisabled = errors.New("Bluetooth adapter is disabled")
	ErrNotFound        = errors.New("no bonded device matches")
	ErrNotSupported    = errors.New("operation not supported on this platform")
)

// SerialPortProfile is the Bluetooth Classic serial port service class.
var SerialPortProfile = uuid.MustParse("00001101-0000-1000-8000-00805f9b34fb")

// DeviceRecord is a snapshot of one bonded peer
type DeviceRecord struct {
	Address  string
	Name     string
	Class    uint32
	Services []uuid.UUID
}

// HasService reports whether the peer advertises id
func (d DeviceRecord) HasService(id uuid.UUID) bool {
	return slices.Contains(d.Services, id)
}

// Matches applies the discovery filter: every bit of mask is set in the
// class and the service is advertised.
func (d DeviceRecord) Matches(mask uint32, service uuid.UUID) bool {
	return d.Class&mask == mask && d.HasService(service)
}

func (d DeviceRecord) String() string {
	if d.Name == "" {
		return d.Address
	}
	return fmt.Sprintf("%s (%s)", d.Name, d.Address)
}

// AdapterState describes the local radio
type AdapterState struct {
	Present bool
	Enabled bool
}

// Source is a platform view of the local adapter and its bond list.
type Source interface {
	Adapter(ctx context.Context) (AdapterState, error)
	// BondedDevices returns records in platform order.
	BondedDevices(ctx context.Context) ([]DeviceRecord, error)
	EnableAdapter(ctx context.Context) error
}

// Directory answers peer lookups against a Source. It keeps no cache; every
// lookup re-reads the bond list.
type Directory struct {
	src Source
}

// NewDirectory creates a directory over src
func NewDirectory(src Source) *Directory {
	return &Directory{src: src}
}

// FindPeer returns the first bonded device whose class contains every bit of
// mask and which advertises service.
func (d *Directory) FindPeer(ctx context.Context, mask uint32, service uuid.UUID) (DeviceRecord, error) {
	state, err := d.src.Adapter(ctx)
	if err != nil {
		return DeviceRecord{}, fmt.Errorf("query adapter: %w", err)
	}
	if !state.Present {
		return DeviceRecord{}, ErrNoAdapter
	}
	if !state.Enabled {
		return DeviceRecord{}, ErrAdapterDisabled
	}

	devices, err := d.src.BondedDevices(ctx)
	if err != nil {
		return DeviceRecord{}, fmt.Errorf("list bonded devices: %w", err)
	}

	for _, dev := range devices {
		if dev.Matches(mask, service) {
			return dev, nil
		}
	}
	return DeviceRecord{}, fmt.Errorf("%w class mask %#x service %s", ErrNotFound, mask, service)
}

// EnableAdapter asks the platform to switch the radio on
func (d *Directory) EnableAdapter(ctx context.Context) error {
	return d.src.EnableAdapter(ctx)
}

// ParseAddress converts "AA:BB:CC:DD:EE:FF" into bytes in display order.
func ParseAddress(addr string) ([6]byte, error) {
	var out [6]byte
	parts := strings.Split(addr, ":")
	if len(parts) != 6 {
		return out, fmt.Errorf("invalid Bluetooth address %q", addr)
	}
	for i, p := range parts {
		b, err := strconv.ParseUint(p, 16, 8)
		if err != nil || len(p) != 2 {
			return out, fmt.Errorf("invalid Bluetooth address %q", addr)
		}
		out[i] = byte(b)
	}
	return out, nil
}
