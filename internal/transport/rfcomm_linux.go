//go:build linux

package transport

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"fieldlink/internal/bluetooth"
)

// RFCOMMDialer connects a native RFCOMM socket. The channel comes from
// configuration; no SDP lookup is done.
type RFCOMMDialer struct {
	Channel uint8
}

// NewRFCOMMDialer creates a dialer for the given RFCOMM channel
func NewRFCOMMDialer(channel uint8) *RFCOMMDialer {
	if channel == 0 {
		channel = 1
	}
	return &RFCOMMDialer{Channel: channel}
}

// Open connects to peer and returns a session owning the socket
func (d *RFCOMMDialer) Open(ctx context.Context, peer bluetooth.DeviceRecord, _ uuid.UUID) (*Session, error) {
	addr, err := bluetooth.ParseAddress(peer.Address)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, fmt.Errorf("rfcomm socket: %w", err)
	}

	s := NewSession(peer.Address, socketStream(fd))
	s.Hold("socket", func() error { return unix.Close(fd) })

	// bdaddr_t is little endian
	sa := &unix.SockaddrRFCOMM{Channel: d.Channel}
	for i := range addr {
		sa.Addr[i] = addr[len(addr)-1-i]
	}

	err = awaitConnect(ctx,
		func() error { return unix.Connect(fd, sa) },
		func() { _ = unix.Shutdown(fd, unix.SHUT_RDWR) },
	)
	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("rfcomm connect %s: %w", peer.Address, ctxErr)
	}
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("rfcomm connect %s channel %d: %w", peer.Address, d.Channel, err)
	}

	s.Hold("input", shutdown(fd, unix.SHUT_RD))
	s.Hold("output", shutdown(fd, unix.SHUT_WR))
	return s, nil
}

// awaitConnect runs connect until it returns or ctx is done. On cancel it
// calls abort and still waits for connect, so the socket is never closed
// underneath it.
func awaitConnect(ctx context.Context, connect func() error, abort func()) error {
	done := make(chan error, 1)
	go func() { done <- connect() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		abort()
		if err := <-done; err != nil {
			return err
		}
		return ctx.Err()
	}
}

func shutdown(fd, how int) func() error {
	return func() error {
		err := unix.Shutdown(fd, how)
		if errors.Is(err, unix.ENOTCONN) {
			return nil
		}
		return err
	}
}

type socketStream int

func (s socketStream) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(int(s), p)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if n == 0 && len(p) > 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

func (s socketStream) Write(p []byte) (int, error) {
	for {
		n, err := unix.Write(int(s), p)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return 0, err
		}
		return n, nil
	}
}

func (s socketStream) Available() (int, error) {
	return unix.IoctlGetInt(int(s), unix.SIOCINQ)
}
