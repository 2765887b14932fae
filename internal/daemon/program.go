// Package daemon wires the printer worker, the scanner supervisor and the
// WebSocket server into a go-svc program.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/judwhite/go-svc"
	"github.com/rs/zerolog"

	"fieldlink/internal/bluetooth"
	"fieldlink/internal/config"
	"fieldlink/internal/logger"
	"fieldlink/internal/printer"
	"fieldlink/internal/scanner"
	"fieldlink/internal/scanner/backends"
	"fieldlink/internal/scanner/grabba"
	"fieldlink/internal/scanner/koamtac"
	"fieldlink/internal/server"
	"fieldlink/internal/transport"
	"fieldlink/internal/worker"
)

// GrabbaOpener opens the Grabba vendor SDK. Builds that link the SDK set it
// from an init function; without it the grabba family cannot be selected.
var GrabbaOpener grabba.Opener

// Program implements svc.Service
type Program struct {
	// ConfigPath is the optional JSON configuration file.
	ConfigPath string

	cfg       config.Config
	log       zerolog.Logger
	logCloser io.Closer

	wg          sync.WaitGroup
	httpServer  *http.Server
	wsServer    *server.Server
	printWorker *worker.Worker
	scanner     *scanner.Supervisor
}

// Init loads configuration and sets up logging
func (p *Program) Init(env svc.Environment) error {
	cfg, err := config.Load(p.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	p.cfg = cfg

	closer, err := logger.Init(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	p.logCloser = closer
	p.log = logger.WithComponent("daemon")

	p.log.Info().
		Str("environment", config.BuildEnvironment).
		Str("build", config.BuildDate+" "+config.BuildTime).
		Bool("service", env != nil && env.IsWindowsService()).
		Msg("Starting fieldlink")

	return nil
}

// Start builds every component and starts serving
func (p *Program) Start() error {
	source, err := p.newSource()
	if err != nil {
		return err
	}
	directory := bluetooth.NewDirectory(source)
	dialer := p.newDialer()

	driver := printer.NewDriver(directory, dialer, printer.Config{
		ClassMask:    p.cfg.Printer.ClassMask,
		ChunkSize:    p.cfg.Printer.ChunkSize,
		ChunkDelay:   p.cfg.Printer.ChunkDelay.Std(),
		PollInterval: p.cfg.Printer.PollInterval.Std(),
		PollAttempts: p.cfg.Printer.PollAttempts,
		ResponseSize: p.cfg.Printer.ResponseSize,
	}, logger.WithComponent("printer"))

	p.wsServer = server.NewServer(server.Config{
		QueueSize:        p.cfg.Server.QueueSize,
		AllowedOrigins:   p.cfg.Server.AllowedOrigins,
		MaxJobsPerMinute: p.cfg.Server.MaxJobsPerMinute,
		WriteTimeout:     p.cfg.Server.WriteTimeout.Std(),
	}, logger.WithComponent("server"))

	p.printWorker = worker.NewWorker(
		p.wsServer.JobQueue(),
		p.wsServer,
		driver,
		worker.Config{JobTimeout: p.cfg.Printer.JobTimeout.Std()},
		logger.WithComponent("worker"),
	)
	p.printWorker.Start()

	// printing keeps working when the scanner cannot be set up
	if err := p.startScanner(directory, dialer); err != nil {
		p.log.Error().Err(err).Str("family", p.cfg.Scanner.Family).Msg("Scanner unavailable")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", p.wsServer.HandleWebSocket)
	mux.HandleFunc("/health", p.handleHealth)

	p.httpServer = &http.Server{
		Addr:         p.cfg.Server.ListenAddr,
		Handler:      mux,
		ReadTimeout:  p.cfg.Server.ReadTimeout.Std(),
		WriteTimeout: p.cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  p.cfg.Server.IdleTimeout.Std(),
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		p.log.Info().Str("addr", p.cfg.Server.ListenAddr).Msg("Listening for WebSocket clients on /ws")
		if err := p.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	return nil
}

func (p *Program) newSource() (bluetooth.Source, error) {
	if p.cfg.Bluetooth.Source == "ctl" {
		return bluetooth.NewCtlSource(), nil
	}
	src, err := bluetooth.NewBlueZSource(p.cfg.Bluetooth.Adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to open bluetooth: %w", err)
	}
	return src, nil
}

func (p *Program) newDialer() transport.Dialer {
	if p.cfg.Transport.Kind == "serial" {
		bindings := transport.NewRFCOMMBindings(p.cfg.Transport.Bind, p.cfg.Transport.Channel)
		return transport.NewSerialDialer(p.cfg.Transport.BaudRate, p.cfg.Transport.Ports, bindings)
	}
	return transport.NewRFCOMMDialer(p.cfg.Transport.Channel)
}

func (p *Program) startScanner(directory *bluetooth.Directory, dialer transport.Dialer) error {
	log := logger.WithComponent("scanner")
	factory, err := backends.Select(p.cfg.Scanner.Family, backends.Deps{
		Finder:       directory,
		Dialer:       dialer,
		SPP:          koamtac.SPPConfig{ClassMask: p.cfg.Scanner.ClassMask},
		GrabbaOpener: GrabbaOpener,
		AppName:      p.cfg.Scanner.AppName,
		Log:          log,
	})
	if err != nil {
		return err
	}

	sup, err := scanner.NewSupervisor(factory, p.wsServer, scanner.Options{
		ReconnectDelay: p.cfg.Scanner.ReconnectDelay.Std(),
	}, log)
	if err != nil {
		return err
	}
	p.scanner = sup
	p.wsServer.SetScanner(sup)

	if p.cfg.Scanner.AutoResume {
		sup.Resume()
	}
	return nil
}

type health struct {
	Status  string                `json:"status"`
	Queue   queueHealth           `json:"queue"`
	Worker  worker.Statistics     `json:"worker"`
	Scanner *server.ScannerStatus `json:"scanner,omitempty"`
	Clients int                   `json:"clients"`
	Build   buildInfo             `json:"build"`
}

type queueHealth struct {
	Current  int `json:"current"`
	Capacity int `json:"capacity"`
}

type buildInfo struct {
	Env  string `json:"env"`
	Date string `json:"date"`
	Time string `json:"time"`
}

func (p *Program) handleHealth(w http.ResponseWriter, _ *http.Request) {
	current, capacity := p.wsServer.QueueStatus()
	h := health{
		Status:  "ok",
		Queue:   queueHealth{Current: current, Capacity: capacity},
		Worker:  p.printWorker.Stats(),
		Clients: p.wsServer.ClientCount(),
		Build:   buildInfo{Env: config.BuildEnvironment, Date: config.BuildDate, Time: config.BuildTime},
	}
	if p.scanner != nil {
		h.Scanner = &server.ScannerStatus{
			Available: true,
			Connected: p.scanner.IsConnected(),
			Details:   p.scanner.ConnectionDetails(),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h); err != nil {
		p.log.Warn().Err(err).Msg("Failed to write health response")
	}
}

// Stop releases the scanner, drains the worker and closes every client
func (p *Program) Stop() error {
	p.log.Info().Msg("Stopping fieldlink")

	if p.scanner != nil {
		p.scanner.Close()
	}

	if p.printWorker != nil {
		p.printWorker.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if p.httpServer != nil {
		if err := p.httpServer.Shutdown(ctx); err != nil {
			p.log.Warn().Err(err).Msg("Error during HTTP shutdown")
		}
	}

	if p.wsServer != nil {
		p.wsServer.Shutdown()
	}

	p.wg.Wait()
	p.log.Info().Msg("fieldlink stopped")

	if p.logCloser != nil {
		return p.logCloser.Close()
	}
	return nil
}
