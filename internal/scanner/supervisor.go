package scanner

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options configures a Supervisor
type Options struct {
	// ReconnectDelay is how long to wait after a connection loss before
	// pausing and resuming the backend. Zero disables reconnects.
	ReconnectDelay time.Duration
	// Buffer is the dispatcher queue length.
	Buffer int
}

type stopper interface {
	Stop() bool
}

// Supervisor owns exactly one backend, forwards its events to a delegate and
// schedules a reconnect when the connection drops.
type Supervisor struct {
	backend  Backend
	dispatch *Dispatcher
	delay    time.Duration
	log      zerolog.Logger

	afterFunc func(d time.Duration, f func()) stopper

	// lifecycle serializes backend Resume and Pause calls
	lifecycle sync.Mutex

	mu           sync.Mutex
	resumed      bool
	reconnecting bool
	timer        stopper
	timerGen     uint64
}

// NewSupervisor builds the backend with factory and starts event delivery
func NewSupervisor(factory Factory, delegate Delegate, opts Options, log zerolog.Logger) (*Supervisor, error) {
	s := &Supervisor{
		delay: opts.ReconnectDelay,
		log:   log,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
	s.dispatch = NewDispatcher(delegate, opts.Buffer, log)

	backend, err := factory(s)
	if err != nil {
		s.dispatch.Close()
		return nil, fmt.Errorf("create scanner backend: %w", err)
	}
	s.backend = backend
	return s, nil
}

// IsConnected reports whether the backend has a live connection
func (s *Supervisor) IsConnected() bool {
	return s.backend.IsConnected()
}

// ConnectionDetails returns the backend's human readable status
func (s *Supervisor) ConnectionDetails() string {
	return s.backend.ConnectionDetails()
}

// Resume acquires the scanner
func (s *Supervisor) Resume() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	s.resumed = true
	s.mu.Unlock()

	s.log.Debug().Msg("Resuming scanner")
	s.backend.Resume()
}

// Pause releases the scanner and cancels any pending reconnect
func (s *Supervisor) Pause() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	s.resumed = false
	s.cancelReconnectLocked()
	s.mu.Unlock()

	s.log.Debug().Msg("Pausing scanner")
	s.backend.Pause()
}

// Close pauses the backend if needed and stops event delivery
func (s *Supervisor) Close() {
	s.mu.Lock()
	resumed := s.resumed
	s.mu.Unlock()

	if resumed {
		s.Pause()
	}
	s.dispatch.Close()
}

// Connection implements Emitter
func (s *Supervisor) Connection(state State, details string) {
	s.log.Info().Str("state", state.String()).Str("details", details).Msg("Scanner connection changed")

	s.mu.Lock()
	switch {
	case state == Connected:
		s.cancelReconnectLocked()
	case state.NeedsReconnect():
		s.scheduleReconnectLocked()
	}
	s.mu.Unlock()

	s.dispatch.Post(ConnectionChanged{State: state, Details: details})
}

// Error implements Emitter
func (s *Supervisor) Error(message, details string) {
	s.log.Error().Str("details", details).Msg(message)
	s.dispatch.Post(Error{Message: message, Details: details})
}

// Button implements Emitter
func (s *Supervisor) Button(isLeft, isPressed bool) bool {
	return s.dispatch.Button(isLeft, isPressed)
}

// Scanning implements Emitter
func (s *Supervisor) Scanning(isScanning bool, details string) {
	s.dispatch.Post(ScanningChanged{IsScanning: isScanning, Details: details})
}

// Barcode implements Emitter
func (s *Supervisor) Barcode(payload, symbology string) {
	s.log.Debug().Str("symbology", symbology).Int("length", len(payload)).Msg("Barcode read")
	s.dispatch.Post(BarcodeRead{Payload: payload, Symbology: symbology})
}

func (s *Supervisor) scheduleReconnectLocked() {
	if s.delay <= 0 || !s.resumed || s.reconnecting || s.timer != nil {
		return
	}
	s.timerGen++
	gen := s.timerGen
	s.timer = s.afterFunc(s.delay, func() { s.reconnect(gen) })
	s.log.Info().Dur("delay", s.delay).Msg("Scanner reconnect scheduled")
}

func (s *Supervisor) cancelReconnectLocked() {
	if s.timer == nil {
		return
	}
	s.timer.Stop()
	s.timer = nil
}

func (s *Supervisor) reconnect(gen uint64) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	if s.timer == nil || gen != s.timerGen || !s.resumed {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.reconnecting = true
	s.mu.Unlock()

	s.log.Info().Msg("Reconnecting scanner")
	s.backend.Pause()
	s.backend.Resume()

	s.mu.Lock()
	s.reconnecting = false
	s.mu.Unlock()
}
