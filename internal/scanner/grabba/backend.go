package grabba

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"fieldlink/internal/scanner"
)

const (
	detailsNotInstalled = "Grabba Driver Not Installed"
	detailsNotResumed   = "Internal Error, Access Not Resumed"
	detailsNotConnected = "Not Connected"
)

// Backend drives a Grabba sled
type Backend struct {
	em        scanner.Emitter
	sdk       SDK
	installed bool
	events    *events
	log       zerolog.Logger

	mu      sync.Mutex
	resumed bool
	state   scanner.State
	details string
}

// New opens the SDK. A missing driver is not an error: the backend stays
// idle and reports it through ConnectionDetails.
func New(em scanner.Emitter, open Opener, appName string, log zerolog.Logger) (*Backend, error) {
	b := &Backend{em: em, log: log, state: scanner.Idle}
	b.events = &events{b: b}

	sdk, err := open(appName)
	switch {
	case errors.Is(err, ErrDriverNotInstalled):
		log.Warn().Msg("Grabba driver not installed")
		b.details = detailsNotInstalled
		return b, nil
	case err != nil:
		return nil, fmt.Errorf("open grabba sdk: %w", err)
	}

	b.sdk = sdk
	b.installed = true
	b.details = detailsNotResumed
	return b, nil
}

// IsConnected implements scanner.Backend
func (b *Backend) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == scanner.Connected
}

// ConnectionDetails implements scanner.Backend
func (b *Backend) ConnectionDetails() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.details
}

// Resume registers listeners and acquires the sled
func (b *Backend) Resume() {
	if !b.installed {
		return
	}
	b.mu.Lock()
	if b.resumed {
		b.mu.Unlock()
		return
	}
	b.resumed = true
	b.state = scanner.SearchingOrConnecting
	b.details = detailsNotConnected
	b.mu.Unlock()

	b.sdk.AddConnectionListener(b.events)
	b.sdk.AddButtonListener(b.events)
	b.sdk.AddBarcodeListener(b.events)
	b.sdk.Acquire()
}

// Pause removes listeners and releases the sled to other applications
func (b *Backend) Pause() {
	if !b.installed {
		return
	}
	b.mu.Lock()
	if !b.resumed {
		b.mu.Unlock()
		return
	}
	b.resumed = false
	b.state = scanner.Released
	b.details = detailsNotResumed
	b.mu.Unlock()

	b.sdk.RemoveConnectionListener(b.events)
	b.sdk.RemoveButtonListener(b.events)
	b.sdk.RemoveBarcodeListener(b.events)
	b.sdk.Release()
}

func (b *Backend) setConnection(state scanner.State, details string) {
	b.mu.Lock()
	b.state = state
	b.details = details
	b.mu.Unlock()
	b.em.Connection(state, details)
}

// handleButton offers the transition to the delegate first; an unhandled
// press fires the scan engine once.
func (b *Backend) handleButton(isLeft, isPressed bool) {
	if b.em.Button(isLeft, isPressed) {
		return
	}
	if !isPressed {
		return
	}
	if err := b.sdk.Trigger(true); err != nil {
		b.log.Error().Err(err).Bool("left", isLeft).Msg("Grabba trigger failed")
		b.em.Error(err.Error(), fmt.Sprintf("%T: %v", err, err))
	}
}

// events adapts SDK callbacks to the backend
type events struct {
	b *Backend
}

func (e *events) ConnectedEvent()    { e.b.setConnection(scanner.Connected, "Connected") }
func (e *events) DisconnectedEvent() { e.b.setConnection(scanner.Disconnected, "Disconnected") }

func (e *events) LeftButtonEvent(pressed bool)  { e.b.handleButton(true, pressed) }
func (e *events) RightButtonEvent(pressed bool) { e.b.handleButton(false, pressed) }

func (e *events) TriggeredEvent()  { e.b.em.Scanning(true, "Scanning") }
func (e *events) TimeoutEvent()    { e.b.em.Scanning(false, "Timeout") }
func (e *events) ScanningStopped() { e.b.em.Scanning(false, "Stopped") }

func (e *events) ScannedEvent(barcode string, symbology int) {
	e.b.em.Barcode(barcode, SymbologyName(symbology))
}
