// Package transport opens byte-stream sessions to bonded Bluetooth peers.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"fieldlink/internal/bluetooth"
)

// Common errors
var (
	ErrClosed = errors.New("session closed")
	ErrShort  = errors.New("short write")
)

// Stream is the raw duplex channel a Session is built on.
type Stream interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	// Available returns the number of bytes readable without blocking.
	Available() (int, error)
}

// Dialer opens a session to a peer's service
type Dialer interface {
	Open(ctx context.Context, peer bluetooth.DeviceRecord, service uuid.UUID) (*Session, error)
}

type release struct {
	name string
	fn   func() error
}

// Session is one open connection to a peer. Every handle acquired while
// opening is released exactly once, in reverse acquisition order, by Close.
type Session struct {
	peer   string
	stream Stream

	mu       sync.Mutex
	releases []release
	closed   atomic.Bool
	once     sync.Once
	closeErr error
}

// NewSession wraps stream for peer. Handles are attached with Hold.
func NewSession(peer string, stream Stream) *Session {
	return &Session{peer: peer, stream: stream}
}

// Hold registers a handle release to run on Close
func (s *Session) Hold(name string, fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releases = append(s.releases, release{name: name, fn: fn})
}

// Peer returns the remote address
func (s *Session) Peer() string {
	return s.peer
}

// Write sends all of p or fails
func (s *Session) Write(p []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	for len(p) > 0 {
		n, err := s.stream.Write(p)
		if err != nil {
			return fmt.Errorf("write %s: %w", s.peer, err)
		}
		if n == 0 {
			return fmt.Errorf("write %s: %w", s.peer, ErrShort)
		}
		p = p[n:]
	}
	return nil
}

// Read reads whatever is available, blocking until at least one byte arrives
func (s *Session) Read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	n, err := s.stream.Read(p)
	if err == io.EOF {
		return n, io.EOF
	}
	if err != nil {
		return n, fmt.Errorf("read %s: %w", s.peer, err)
	}
	return n, nil
}

// Available returns the count of bytes readable without blocking
func (s *Session) Available() (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	n, err := s.stream.Available()
	if err != nil {
		return 0, fmt.Errorf("available %s: %w", s.peer, err)
	}
	return n, nil
}

// Close releases every held handle, newest first. Later calls return the
// first call's result.
func (s *Session) Close() error {
	s.once.Do(func() {
		s.closed.Store(true)

		s.mu.Lock()
		releases := s.releases
		s.releases = nil
		s.mu.Unlock()

		var errs []error
		for i := len(releases) - 1; i >= 0; i-- {
			if err := releases[i].fn(); err != nil {
				errs = append(errs, fmt.Errorf("release %s: %w", releases[i].name, err))
			}
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
