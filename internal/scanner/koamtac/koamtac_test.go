package koamtac

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldlink/internal/bluetooth"
	"fieldlink/internal/scanner"
	"fieldlink/internal/transport"
)

type emitted struct {
	mu     sync.Mutex
	events []string
}

func (e *emitted) add(format string, args ...any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, fmt.Sprintf(format, args...))
}

func (e *emitted) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}

func (e *emitted) Connection(s scanner.State, d string) { e.add("connection %s %s", s, d) }
func (e *emitted) Error(m, d string)                    { e.add("error %s: %s", m, d) }
func (e *emitted) Button(l, p bool) bool                { e.add("button %t %t", l, p); return false }
func (e *emitted) Scanning(s bool, d string)            { e.add("scanning %t %s", s, d) }
func (e *emitted) Barcode(p, s string)                  { e.add("barcode %s %s", p, s) }

type fakeReader struct {
	disposed int
}

func (r *fakeReader) Dispose() error {
	r.disposed++
	return nil
}

type readerFactory struct {
	mu        sync.Mutex
	listeners []Listener
	readers   []*fakeReader
	err       error
	gate      chan struct{}
}

func (f *readerFactory) build(l Listener) (Reader, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, l)
	if f.err != nil {
		return nil, f.err
	}
	r := &fakeReader{}
	f.readers = append(f.readers, r)
	return r, nil
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		native  ConnectionState
		state   scanner.State
		details string
	}{
		{StateNone, scanner.Disconnected, "No connection to scanner"},
		{StateListen, scanner.SearchingOrConnecting, "Listening for scanner"},
		{StateConnecting, scanner.SearchingOrConnecting, "Connecting to scanner"},
		{StateConnected, scanner.Connected, "Connected"},
		{StateConnectedXP67, scanner.Connected, "Connected"},
		{StateLost, scanner.Lost, "Lost connection to scanner"},
		{StateFailed, scanner.Failed, "Failed to connect to scanner"},
	}
	for _, tt := range tests {
		state, details, ok := translate(tt.native)
		assert.True(t, ok, "state %d", tt.native)
		assert.Equal(t, tt.state, state, "state %d", tt.native)
		assert.Equal(t, tt.details, details, "state %d", tt.native)
	}

	for _, native := range []ConnectionState{StateInitializing, StateInitializingFailed, 42, -1} {
		_, _, ok := translate(native)
		assert.False(t, ok, "state %d", native)
	}
}

func TestBackendLifecycle(t *testing.T) {
	em := &emitted{}
	f := &readerFactory{}
	b := New(em, f.build, zerolog.Nop())

	assert.False(t, b.IsConnected())
	assert.Equal(t, "Scanner connector idle", b.ConnectionDetails())

	b.Resume()
	b.wg.Wait()
	b.Resume()
	b.wg.Wait()
	require.Len(t, f.readers, 1, "resume with a live reader is a no-op")

	l := f.listeners[0]
	l.ConnectionChanged("00:11:22:33:44:55", StateConnecting)
	l.ConnectionChanged("00:11:22:33:44:55", StateInitializing)
	l.ConnectionChanged("00:11:22:33:44:55", StateConnected)
	assert.True(t, b.IsConnected())
	assert.Equal(t, "Connected", b.ConnectionDetails())

	l.BarcodeDataReceived(Data{Barcode: "4006381333931", Symbology: SymbologyEAN13})

	b.Pause()
	assert.Equal(t, 1, f.readers[0].disposed)
	assert.False(t, b.IsConnected())
	assert.Equal(t, "Scanner connector released", b.ConnectionDetails())

	// late callbacks from the disposed reader are dropped
	l.ConnectionChanged("00:11:22:33:44:55", StateLost)
	l.BarcodeDataReceived(Data{Barcode: "late"})

	assert.Equal(t, []string{
		"connection connecting Connecting to scanner",
		"connection connected Connected",
		"barcode 4006381333931 EAN-13",
	}, em.all())

	b.Resume()
	b.wg.Wait()
	assert.Len(t, f.readers, 2)
}

func TestBackendReaderError(t *testing.T) {
	em := &emitted{}
	f := &readerFactory{err: errors.New("no radio")}
	b := New(em, f.build, zerolog.Nop())

	b.Resume()
	b.wg.Wait()

	assert.Equal(t, []string{
		"error Unable to start scanner: no radio",
		"connection failed Failed to connect to scanner",
	}, em.all())
	assert.Equal(t, "Failed to connect to scanner", b.ConnectionDetails())

	f.err = nil
	b.Resume()
	b.wg.Wait()
	assert.Len(t, f.readers, 1, "a failed open may be retried")
}

func TestBackendPauseWhileOpening(t *testing.T) {
	em := &emitted{}
	f := &readerFactory{gate: make(chan struct{})}
	b := New(em, f.build, zerolog.Nop())

	b.Resume()
	b.Pause()
	close(f.gate)
	b.wg.Wait()

	require.Len(t, f.readers, 1)
	assert.Equal(t, 1, f.readers[0].disposed, "reader finished after pause must be disposed")
	assert.Nil(t, b.reader)
}

func TestParseAIM(t *testing.T) {
	tests := []struct {
		record  string
		payload string
		sym     Symbology
	}{
		{"]E04006381333931", "4006381333931", SymbologyEAN13},
		{"]E0012345678905", "012345678905", SymbologyUPCA},
		{"]E496385074", "96385074", SymbologyEAN8},
		{"]E001234565", "01234565", SymbologyUPCE},
		{"]C0ABC-123", "ABC-123", SymbologyCode128},
		{"]C1(01)09521234543213", "(01)09521234543213", SymbologyGS1128},
		{"]Q1https://example.com", "https://example.com", SymbologyQRCode},
		{"]d2data", "data", SymbologyDataMatrix},
		{"]X0other", "other", SymbologyUnknown},
		{"PLAIN123", "PLAIN123", SymbologyUnknown},
		{"]A", "]A", SymbologyUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.record, func(t *testing.T) {
			got := ParseAIM(tt.record)
			assert.Equal(t, tt.payload, got.Barcode)
			assert.Equal(t, tt.sym, got.Symbology)
		})
	}
}

func TestSymbologyName(t *testing.T) {
	assert.Equal(t, "QR Code", SymbologyQRCode.Name())
	assert.Equal(t, "Unknown", Symbology(999).Name())
}

type pipeStream struct {
	r *io.PipeReader
}

func (p *pipeStream) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipeStream) Write(b []byte) (int, error) { return len(b), nil }
func (p *pipeStream) Available() (int, error)     { return 0, nil }

type stubFinder struct {
	peer bluetooth.DeviceRecord
	err  error
}

func (s stubFinder) FindPeer(context.Context, uint32, uuid.UUID) (bluetooth.DeviceRecord, error) {
	return s.peer, s.err
}

type pipeDialer struct {
	r *io.PipeReader
}

func (d pipeDialer) Open(_ context.Context, peer bluetooth.DeviceRecord, _ uuid.UUID) (*transport.Session, error) {
	s := transport.NewSession(peer.Address, &pipeStream{r: d.r})
	s.Hold("pipe", d.r.Close)
	return s, nil
}

type recordingListener struct {
	emitted
}

func (r *recordingListener) ConnectionChanged(addr string, s ConnectionState) {
	r.add("state %s %d", addr, s)
}

func (r *recordingListener) BarcodeDataReceived(d Data) {
	r.add("data %s %s", d.Barcode, d.Symbology)
}

func waitDone(t *testing.T, r Reader) {
	t.Helper()
	select {
	case <-r.(*sppReader).done:
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not finish")
	}
}

func TestSPPReaderStreamsRecords(t *testing.T) {
	pr, pw := io.Pipe()
	peer := bluetooth.DeviceRecord{Address: "00:19:01:AA:BB:CC"}
	factory := NewSPPReaderFactory(stubFinder{peer: peer}, pipeDialer{r: pr}, SPPConfig{}, zerolog.Nop())

	l := &recordingListener{}
	r, err := factory(l)
	require.NoError(t, err)

	_, err = pw.Write([]byte("]E04006381333931\r\n\r\nPLAIN"))
	require.NoError(t, err)
	_, err = pw.Write([]byte("\n"))
	require.NoError(t, err)
	require.NoError(t, pw.Close())

	waitDone(t, r)
	assert.Equal(t, []string{
		"state  2",
		"state 00:19:01:AA:BB:CC 3",
		"data 4006381333931 EAN-13",
		"data PLAIN Unknown",
		"state 00:19:01:AA:BB:CC 4",
	}, l.all())
}

func TestSPPReaderNoScanner(t *testing.T) {
	factory := NewSPPReaderFactory(stubFinder{err: bluetooth.ErrNotFound}, pipeDialer{}, SPPConfig{}, zerolog.Nop())

	l := &recordingListener{}
	r, err := factory(l)
	require.NoError(t, err)
	waitDone(t, r)

	assert.Equal(t, []string{"state  2", "state  5"}, l.all())
}

func TestSPPReaderDisposeIsSilent(t *testing.T) {
	pr, _ := io.Pipe()
	peer := bluetooth.DeviceRecord{Address: "00:19:01:AA:BB:CC"}
	factory := NewSPPReaderFactory(stubFinder{peer: peer}, pipeDialer{r: pr}, SPPConfig{}, zerolog.Nop())

	l := &recordingListener{}
	r, err := factory(l)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(l.all()) == 2 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, r.Dispose())
	waitDone(t, r)

	assert.Equal(t, []string{"state  2", "state 00:19:01:AA:BB:CC 3"}, l.all())
}
