// Package worker runs queued printer requests one at a time, so at most one
// printer session is ever open.
package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"fieldlink/internal/printer"
	"fieldlink/internal/server"
)

const pendingTTL = 10 * time.Minute

// Printer is the driver surface the worker needs
type Printer interface {
	Print(ctx context.Context, job *printer.Job, document []byte)
	ReadBattery(ctx context.Context, job *printer.Job) int
	EnableRadio(ctx context.Context, job *printer.Job) error
}

// ClientNotifier sends results back to clients
type ClientNotifier interface {
	NotifyClient(conn *websocket.Conn, response server.Response) error
}

// Config holds worker configuration
type Config struct {
	// JobTimeout bounds each driver call. Zero means no bound.
	JobTimeout time.Duration
	Messages   printer.Table
}

// pending is a request parked until the user enables the radio
type pending struct {
	kind     string
	document []byte
	job      *printer.Job
	parkedAt time.Time
}

// Worker consumes the request queue
type Worker struct {
	jobQueue <-chan *server.Job
	notifier ClientNotifier
	printer  Printer
	config   Config
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	notify sync.WaitGroup

	mu            sync.Mutex
	isRunning     bool
	jobsProcessed int64
	jobsFailed    int64
	lastJobTime   time.Time
	parked        map[string]*pending
}

// NewWorker creates a worker
func NewWorker(jobQueue <-chan *server.Job, notifier ClientNotifier, p Printer, config Config, log zerolog.Logger) *Worker {
	if config.Messages == nil {
		config.Messages = printer.DefaultMessages
	}
	return &Worker{
		jobQueue: jobQueue,
		notifier: notifier,
		printer:  p,
		config:   config,
		log:      log,
		parked:   make(map[string]*pending),
	}
}

// Start begins the worker goroutine
func (w *Worker) Start() {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = true
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(w.ctx)

	w.log.Info().Msg("Printer worker started")
}

// Stop interrupts the request in progress and waits for the worker to exit
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = false
	cancel := w.cancel
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
	w.notify.Wait()

	stats := w.Stats()
	w.log.Info().Int64("processed", stats.JobsProcessed).Int64("failed", stats.JobsFailed).Msg("Printer worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-w.jobQueue:
			if !ok {
				w.log.Info().Msg("Job queue closed, exiting")
				return
			}
			w.processJob(ctx, job)
		}
	}
}

func (w *Worker) processJob(ctx context.Context, job *server.Job) {
	start := time.Now()
	log := w.log.With().Str("job", job.ID).Str("kind", job.Kind).Logger()
	log.Debug().Msg("Processing job")

	response, failed := w.execute(ctx, job, log)

	w.mu.Lock()
	w.lastJobTime = time.Now()
	if failed {
		w.jobsFailed++
	} else {
		w.jobsProcessed++
	}
	w.mu.Unlock()

	log.Info().Str("status", response.Status).Str("code", response.Code).Dur("took", time.Since(start)).Msg("Job finished")

	// a slow client must not stall the queue
	if job.ClientConn != nil && w.notifier != nil {
		w.notify.Add(1)
		go func() {
			defer w.notify.Done()
			if err := w.notifier.NotifyClient(job.ClientConn, response); err != nil {
				log.Warn().Err(err).Msg("Failed to notify client")
			}
		}()
	}
}

// execute runs one request. failed is true when it ended in an error.
func (w *Worker) execute(ctx context.Context, job *server.Job, log zerolog.Logger) (response server.Response, failed bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("Panic while processing job")
			w.unpark(job.ID)
			response = w.errorResponse(job.ID, fmt.Sprintf("internal error: %v", r))
			failed = true
		}
	}()

	if w.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.config.JobTimeout)
		defer cancel()
	}

	switch job.Kind {
	case server.KindPrint, server.KindBattery:
		p := &pending{kind: job.Kind, document: job.Document, job: printer.NewJobWithID(job.ID)}
		return w.runPrinterJob(ctx, p)
	case server.KindEnableRadio:
		return w.enableRadio(ctx, job.ID, log)
	}
	return w.errorResponse(job.ID, "unknown request kind: "+job.Kind), true
}

func (w *Worker) runPrinterJob(ctx context.Context, p *pending) (server.Response, bool) {
	var battery *int
	if p.kind == server.KindBattery {
		percent := w.printer.ReadBattery(ctx, p.job)
		battery = &percent
	} else {
		w.printer.Print(ctx, p.job, p.document)
	}

	if p.job.PermissionRequired() {
		w.park(p)
		return server.Response{
			Type:    "result",
			ID:      p.job.ID,
			Status:  "permission_required",
			Code:    string(p.job.Code()),
			Message: p.job.PermissionMessage(w.config.Messages),
		}, false
	}

	w.unpark(p.job.ID)
	code := p.job.Code()
	response := server.Response{
		Type:    "result",
		ID:      p.job.ID,
		Status:  "success",
		Code:    string(code),
		Battery: battery,
	}
	if code != printer.OK {
		response.Status = "error"
		response.Message = p.job.ErrorMessage(w.config.Messages)
		return response, true
	}
	return response, false
}

// enableRadio switches the radio on and re-runs the request parked under id,
// if there is one.
func (w *Worker) enableRadio(ctx context.Context, id string, log zerolog.Logger) (server.Response, bool) {
	w.mu.Lock()
	p := w.parked[id]
	w.mu.Unlock()

	job := printer.NewJobWithID(id)
	if p != nil {
		job = p.job
	}

	if err := w.printer.EnableRadio(ctx, job); err != nil {
		return w.errorResponse(id, "Unable to turn Bluetooth on: "+err.Error()), true
	}
	if p == nil {
		return server.Response{Type: "result", ID: id, Status: "success", Code: string(printer.OK)}, false
	}

	log.Debug().Str("retry", p.kind).Msg("Radio enabled, retrying parked request")
	return w.runPrinterJob(ctx, p)
}

func (w *Worker) park(p *pending) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	for id, old := range w.parked {
		if now.Sub(old.parkedAt) > pendingTTL {
			delete(w.parked, id)
		}
	}
	p.parkedAt = now
	w.parked[p.job.ID] = p
}

func (w *Worker) unpark(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.parked, id)
}

func (w *Worker) errorResponse(id, message string) server.Response {
	return server.Response{
		Type:    "result",
		ID:      id,
		Status:  "error",
		Message: message,
	}
}

// Stats returns current worker statistics
func (w *Worker) Stats() Statistics {
	w.mu.Lock()
	defer w.mu.Unlock()

	return Statistics{
		IsRunning:     w.isRunning,
		JobsProcessed: w.jobsProcessed,
		JobsFailed:    w.jobsFailed,
		LastJobTime:   w.lastJobTime,
		Parked:        len(w.parked),
	}
}

// Statistics holds worker runtime statistics
type Statistics struct {
	IsRunning     bool      `json:"is_running"`
	JobsProcessed int64     `json:"jobs_processed"`
	JobsFailed    int64     `json:"jobs_failed"`
	LastJobTime   time.Time `json:"last_job_time,omitempty"`
	Parked        int       `json:"parked"`
}
