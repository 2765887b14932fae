package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.bug.st/serial"

	"fieldlink/internal/bluetooth"
)

// ErrNoPort is returned when no tty is bound to a peer
var ErrNoPort = errors.New("no serial port bound to peer")

// pollWindow bounds how long Available waits for bytes
const pollWindow = 10 * time.Millisecond

// PortResolver maps a peer address to a tty path
type PortResolver func(ctx context.Context, address string) (string, error)

// SerialDialer opens sessions over a tty already bound to the peer, such as
// /dev/rfcomm0.
type SerialDialer struct {
	BaudRate int
	Ports    map[string]string // address -> tty, consulted first
	Resolve  PortResolver
}

// NewSerialDialer creates a serial dialer that falls back to rfcomm bindings
// for unmapped peers.
func NewSerialDialer(baud int, ports map[string]string, bindings *RFCOMMBindings) *SerialDialer {
	if baud <= 0 {
		baud = 115200
	}
	d := &SerialDialer{
		BaudRate: baud,
		Ports:    ports,
	}
	if bindings != nil {
		d.Resolve = bindings.PortFor
	}
	return d
}

func (d *SerialDialer) portFor(ctx context.Context, address string) (string, error) {
	for addr, port := range d.Ports {
		if strings.EqualFold(addr, address) {
			return port, nil
		}
	}
	if d.Resolve == nil {
		return "", fmt.Errorf("%w %s", ErrNoPort, address)
	}
	return d.Resolve(ctx, address)
}

// Open opens the tty bound to peer
func (d *SerialDialer) Open(ctx context.Context, peer bluetooth.DeviceRecord, _ uuid.UUID) (*Session, error) {
	name, err := d.portFor(ctx, peer.Address)
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: d.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open port %s: %w", name, err)
	}

	s := NewSession(peer.Address, &portStream{port: port})
	s.Hold("port", port.Close)
	return s, nil
}

// portStream emulates a non-blocking byte count on a serial port by reading
// ahead into a pending buffer.
type portStream struct {
	port serial.Port

	mu      sync.Mutex
	pending []byte
}

func (p *portStream) Available() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pending) > 0 {
		return len(p.pending), nil
	}
	if err := p.port.SetReadTimeout(pollWindow); err != nil {
		return 0, err
	}
	buf := make([]byte, 256)
	n, err := p.port.Read(buf)
	if err != nil {
		return 0, err
	}
	p.pending = append(p.pending, buf[:n]...)
	return len(p.pending), nil
}

func (p *portStream) Read(b []byte) (int, error) {
	p.mu.Lock()
	if len(p.pending) > 0 {
		n := copy(b, p.pending)
		p.pending = p.pending[n:]
		p.mu.Unlock()
		return n, nil
	}
	err := p.port.SetReadTimeout(serial.NoTimeout)
	p.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return p.port.Read(b)
}

func (p *portStream) Write(b []byte) (int, error) {
	return p.port.Write(b)
}
