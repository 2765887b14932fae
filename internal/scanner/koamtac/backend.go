package koamtac

import (
	"sync"

	"github.com/rs/zerolog"

	"fieldlink/internal/scanner"
)

const (
	detailsIdle     = "Scanner connector idle"
	detailsReleased = "Scanner connector released"
)

// Backend drives a KDC reader. The reader is constructed on its own
// goroutine at Resume and disposed at Pause.
type Backend struct {
	em        scanner.Emitter
	newReader ReaderFactory
	log       zerolog.Logger

	mu      sync.Mutex
	reader  Reader
	opening bool
	gen     uint64
	state   scanner.State
	details string

	wg sync.WaitGroup
}

// New creates an idle backend
func New(em scanner.Emitter, newReader ReaderFactory, log zerolog.Logger) *Backend {
	return &Backend{
		em:        em,
		newReader: newReader,
		log:       log,
		state:     scanner.Idle,
		details:   detailsIdle,
	}
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

// Resume starts constructing a reader unless one exists or is on its way
func (b *Backend) Resume() {
	b.mu.Lock()
	if b.reader != nil || b.opening {
		b.mu.Unlock()
		return
	}
	b.opening = true
	b.gen++
	gen := b.gen
	b.mu.Unlock()

	b.wg.Add(1)
	go b.open(gen)
}

func (b *Backend) open(gen uint64) {
	defer b.wg.Done()

	r, err := b.newReader(&listener{b: b, gen: gen})

	b.mu.Lock()
	if gen != b.gen {
		// paused while the reader was being built
		b.mu.Unlock()
		if r != nil {
			b.dispose(r)
		}
		return
	}
	b.opening = false
	if err != nil {
		b.state = scanner.Failed
		b.details = "Failed to connect to scanner"
		b.mu.Unlock()
		b.log.Error().Err(err).Msg("Failed to create scanner reader")
		b.em.Error("Unable to start scanner", err.Error())
		b.em.Connection(scanner.Failed, "Failed to connect to scanner")
		return
	}
	b.reader = r
	b.mu.Unlock()
}

// Pause disposes the reader
func (b *Backend) Pause() {
	b.mu.Lock()
	b.gen++
	r := b.reader
	b.reader = nil
	b.opening = false
	b.state = scanner.Released
	b.details = detailsReleased
	b.mu.Unlock()

	if r != nil {
		b.dispose(r)
	}
}

func (b *Backend) dispose(r Reader) {
	if err := r.Dispose(); err != nil {
		b.log.Warn().Err(err).Msg("Error disposing scanner reader")
	}
}

func (b *Backend) connectionChanged(gen uint64, address string, native ConnectionState) {
	state, details, ok := translate(native)
	if !ok {
		b.log.Debug().Int("state", int(native)).Msg("Ignoring scanner connection state")
		return
	}

	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		return
	}
	b.state = state
	b.details = details
	b.mu.Unlock()

	b.log.Debug().Str("address", address).Int("native", int(native)).Msg("Scanner connection state")
	b.em.Connection(state, details)
}

func (b *Backend) barcode(gen uint64, data Data) {
	b.mu.Lock()
	stale := gen != b.gen
	b.mu.Unlock()
	if stale {
		return
	}
	b.em.Barcode(data.Barcode, data.Symbology.Name())
}

// listener tags callbacks with the reader generation they belong to so a
// disposed reader cannot report into a newer session.
type listener struct {
	b   *Backend
	gen uint64
}

func (l *listener) ConnectionChanged(address string, state ConnectionState) {
	l.b.connectionChanged(l.gen, address, state)
}

func (l *listener) BarcodeDataReceived(data Data) {
	l.b.barcode(l.gen, data)
}
