package worker

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldlink/internal/bluetooth"
	"fieldlink/internal/printer"
	"fieldlink/internal/server"
	"fieldlink/internal/transport"
)

type recordingNotifier struct {
	delay     time.Duration
	responses chan server.Response
}

func newNotifier(delay time.Duration) *recordingNotifier {
	return &recordingNotifier{delay: delay, responses: make(chan server.Response, 16)}
}

func (n *recordingNotifier) NotifyClient(_ *websocket.Conn, response server.Response) error {
	time.Sleep(n.delay)
	n.responses <- response
	return nil
}

func (n *recordingNotifier) next(t *testing.T) server.Response {
	t.Helper()
	select {
	case r := <-n.responses:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no response")
	}
	return server.Response{}
}

type radio struct {
	mu        sync.Mutex
	enabled   bool
	findErr   error
	enableErr error
	enables   int
}

func (r *radio) FindPeer(context.Context, uint32, uuid.UUID) (bluetooth.DeviceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return bluetooth.DeviceRecord{}, r.findErr
	}
	if !r.enabled {
		return bluetooth.DeviceRecord{}, bluetooth.ErrAdapterDisabled
	}
	return bluetooth.DeviceRecord{Address: "AC:3F:A4:00:00:01", Class: 0x680}, nil
}

func (r *radio) EnableAdapter(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enables++
	if r.enableErr != nil {
		return r.enableErr
	}
	r.enabled = true
	return nil
}

type printerStream struct {
	mu      sync.Mutex
	written bytes.Buffer
	reply   []byte
}

func (s *printerStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written.Write(p)
}

func (s *printerStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := copy(p, s.reply)
	s.reply = s.reply[n:]
	return n, nil
}

func (s *printerStream) Available() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reply), nil
}

func (s *printerStream) output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written.String()
}

type streamDialer struct {
	stream *printerStream
}

func (d streamDialer) Open(_ context.Context, peer bluetooth.DeviceRecord, _ uuid.UUID) (*transport.Session, error) {
	return transport.NewSession(peer.Address, d.stream), nil
}

type harness struct {
	queue    chan *server.Job
	notifier *recordingNotifier
	radio    *radio
	stream   *printerStream
	worker   *Worker
}

func newHarness(t *testing.T, enabled bool) *harness {
	t.Helper()
	h := &harness{
		queue:    make(chan *server.Job, 8),
		notifier: newNotifier(0),
		radio:    &radio{enabled: enabled},
		stream:   &printerStream{},
	}
	cfg := printer.DefaultConfig()
	cfg.ChunkDelay = time.Millisecond
	cfg.PollInterval = time.Millisecond
	driver := printer.NewDriver(h.radio, streamDialer{stream: h.stream}, cfg, zerolog.Nop())

	h.worker = NewWorker(h.queue, h.notifier, driver, Config{JobTimeout: time.Second}, zerolog.Nop())
	h.worker.Start()
	t.Cleanup(h.worker.Stop)
	return h
}

func (h *harness) submit(id, kind string, doc []byte) {
	h.queue <- &server.Job{ID: id, Kind: kind, Document: doc, ClientConn: &websocket.Conn{}, ReceivedAt: time.Now()}
}

func TestPrintSuccess(t *testing.T) {
	h := newHarness(t, true)
	h.submit("j1", server.KindPrint, []byte("^XA^FDhello^FS^XZ"))

	resp := h.notifier.next(t)
	assert.Equal(t, "result", resp.Type)
	assert.Equal(t, "j1", resp.ID)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "none", resp.Code)
	assert.Nil(t, resp.Battery)
	assert.Equal(t, "^XA^FDhello^FS^XZ", h.stream.output())

	stats := h.worker.Stats()
	assert.True(t, stats.IsRunning)
	assert.Equal(t, int64(1), stats.JobsProcessed)
}

func TestPermissionRetry(t *testing.T) {
	h := newHarness(t, false)
	h.submit("j2", server.KindPrint, []byte("ticket"))

	resp := h.notifier.next(t)
	assert.Equal(t, "permission_required", resp.Status)
	assert.Equal(t, "permission_required", resp.Code)
	assert.Equal(t, printer.DefaultMessages[printer.MsgPermission], resp.Message)
	assert.Equal(t, 1, h.worker.Stats().Parked)
	assert.Empty(t, h.stream.output())

	h.submit("j2", server.KindEnableRadio, nil)
	resp = h.notifier.next(t)
	assert.Equal(t, "j2", resp.ID)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "ticket", h.stream.output())
	assert.Equal(t, 0, h.worker.Stats().Parked)
	assert.Equal(t, 1, h.radio.enables)
}

func TestEnableRadioWithoutParkedJob(t *testing.T) {
	h := newHarness(t, false)
	h.submit("r1", server.KindEnableRadio, nil)

	resp := h.notifier.next(t)
	assert.Equal(t, "success", resp.Status)

	h.radio.mu.Lock()
	h.radio.enableErr = errors.New("rfkill blocked")
	h.radio.mu.Unlock()

	h.submit("r2", server.KindEnableRadio, nil)
	resp = h.notifier.next(t)
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Message, "rfkill blocked")
}

func TestBattery(t *testing.T) {
	h := newHarness(t, true)
	h.stream.reply = []byte(`"57"`)
	h.submit("b1", server.KindBattery, nil)

	resp := h.notifier.next(t)
	assert.Equal(t, "success", resp.Status)
	require.NotNil(t, resp.Battery)
	assert.Equal(t, 57, *resp.Battery)
	assert.Equal(t, "! U1 getvar \"power.percent_full\"\r\n", h.stream.output())
}

func TestBatteryTimeout(t *testing.T) {
	h := newHarness(t, true)
	h.submit("b2", server.KindBattery, nil)

	resp := h.notifier.next(t)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "timeout", resp.Code)
	require.NotNil(t, resp.Battery)
	assert.Equal(t, printer.BatteryTimeout, *resp.Battery)
	assert.Equal(t, int64(1), h.worker.Stats().JobsFailed)
}

func TestNoPrinter(t *testing.T) {
	h := newHarness(t, true)
	h.radio.findErr = bluetooth.ErrNotFound
	h.submit("j3", server.KindPrint, []byte("x"))

	resp := h.notifier.next(t)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "no_device_found", resp.Code)
	assert.Equal(t, printer.DefaultMessages[printer.MsgNoPrinter], resp.Message)
}

type panickyPrinter struct{}

func (panickyPrinter) Print(context.Context, *printer.Job, []byte)   { panic("boom") }
func (panickyPrinter) ReadBattery(context.Context, *printer.Job) int { return 0 }
func (panickyPrinter) EnableRadio(context.Context, *printer.Job) error {
	return nil
}

func TestPanicRecovered(t *testing.T) {
	queue := make(chan *server.Job, 2)
	n := newNotifier(0)
	w := NewWorker(queue, n, panickyPrinter{}, Config{}, zerolog.Nop())
	w.Start()
	defer w.Stop()

	queue <- &server.Job{ID: "p1", Kind: server.KindPrint, ClientConn: &websocket.Conn{}}
	queue <- &server.Job{ID: "u1", Kind: "reboot", ClientConn: &websocket.Conn{}}

	resp := n.next(t)
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Message, "boom")

	resp = n.next(t)
	assert.Equal(t, "u1", resp.ID)
	assert.Contains(t, resp.Message, "unknown request kind")
	assert.Equal(t, int64(2), w.Stats().JobsFailed)
}

func TestSlowNotifierDoesNotBlock(t *testing.T) {
	const jobs = 5
	queue := make(chan *server.Job, jobs)
	n := newNotifier(200 * time.Millisecond)
	w := NewWorker(queue, n, panickyPrinter{}, Config{}, zerolog.Nop())
	w.Start()
	defer w.Stop()

	start := time.Now()
	for i := 0; i < jobs; i++ {
		queue <- &server.Job{ID: "e", Kind: server.KindEnableRadio, ClientConn: &websocket.Conn{}}
	}

	require.Eventually(t, func() bool {
		s := w.Stats()
		return s.JobsProcessed+s.JobsFailed == jobs
	}, 2*time.Second, 5*time.Millisecond)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
