package koamtac

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fieldlink/internal/bluetooth"
	"fieldlink/internal/transport"
)

// ScannerClassMask matches the peripheral major device class
const ScannerClassMask = 0x500

// PeerFinder locates the bonded scanner
type PeerFinder interface {
	FindPeer(ctx context.Context, mask uint32, service uuid.UUID) (bluetooth.DeviceRecord, error)
}

// SPPConfig selects which bonded device is the scanner
type SPPConfig struct {
	ClassMask uint32
	Service   uuid.UUID
}

// NewSPPReaderFactory returns a factory for readers that talk to a scanner
// in serial port profile mode, sending one CR or LF terminated record per
// scan with an optional AIM identifier prefix.
func NewSPPReaderFactory(finder PeerFinder, dialer transport.Dialer, cfg SPPConfig, log zerolog.Logger) ReaderFactory {
	if cfg.ClassMask == 0 {
		cfg.ClassMask = ScannerClassMask
	}
	if cfg.Service == uuid.Nil {
		cfg.Service = bluetooth.SerialPortProfile
	}
	return func(l Listener) (Reader, error) {
		ctx, cancel := context.WithCancel(context.Background())
		r := &sppReader{cancel: cancel, done: make(chan struct{})}
		go r.run(ctx, finder, dialer, cfg, l, log)
		return r, nil
	}
}

type sppReader struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.Mutex
	sess *transport.Session
}

func (r *sppReader) run(ctx context.Context, finder PeerFinder, dialer transport.Dialer, cfg SPPConfig, l Listener, log zerolog.Logger) {
	defer close(r.done)

	l.ConnectionChanged("", StateConnecting)

	peer, err := finder.FindPeer(ctx, cfg.ClassMask, cfg.Service)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn().Err(err).Msg("Scanner not found")
			l.ConnectionChanged("", StateFailed)
		}
		return
	}

	sess, err := dialer.Open(ctx, peer, cfg.Service)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn().Err(err).Str("peer", peer.Address).Msg("Failed to open scanner session")
			l.ConnectionChanged(peer.Address, StateFailed)
		}
		return
	}
	if !r.attach(ctx, sess) {
		return
	}
	l.ConnectionChanged(peer.Address, StateConnected)

	sc := bufio.NewScanner(sess)
	sc.Split(scanRecords)
	for sc.Scan() {
		record := strings.TrimSpace(sc.Text())
		if record == "" {
			continue
		}
		l.BarcodeDataReceived(ParseAIM(record))
	}

	if ctx.Err() != nil {
		return
	}
	log.Warn().Err(sc.Err()).Str("peer", peer.Address).Msg("Scanner session ended")
	_ = sess.Close()
	l.ConnectionChanged(peer.Address, StateLost)
}

// attach stores sess, or closes it if the reader was disposed meanwhile
func (r *sppReader) attach(ctx context.Context, sess *transport.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ctx.Err() != nil {
		_ = sess.Close()
		return false
	}
	r.sess = sess
	return true
}

// Dispose stops the reader. It does not wait for the read loop to exit.
func (r *sppReader) Dispose() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancel()
	if r.sess == nil {
		return nil
	}
	return r.sess.Close()
}

// scanRecords splits on CR, LF or CRLF
func scanRecords(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
