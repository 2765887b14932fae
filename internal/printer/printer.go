// Package printer drives a Bluetooth receipt printer: it finds the bonded
// printer, streams documents to it in paced chunks and queries its battery.
package printer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fieldlink/internal/bluetooth"
	"fieldlink/internal/transport"
	"fieldlink/internal/zebra"
)

// Class bits a bonded device must carry to be treated as a printer
const PrinterClassMask = 0x680

// Config holds driver tuning. Zero fields take the defaults below.
type Config struct {
	ClassMask    uint32
	Service      uuid.UUID
	ChunkSize    int
	ChunkDelay   time.Duration
	PollInterval time.Duration
	PollAttempts int
	ResponseSize int
}

// DefaultConfig returns the values printers are known to need
func DefaultConfig() Config {
	return Config{
		ClassMask:    PrinterClassMask,
		Service:      bluetooth.SerialPortProfile,
		ChunkSize:    1000,
		ChunkDelay:   250 * time.Millisecond,
		PollInterval: 100 * time.Millisecond,
		PollAttempts: 10,
		ResponseSize: 100,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ClassMask == 0 {
		c.ClassMask = def.ClassMask
	}
	if c.Service == uuid.Nil {
		c.Service = def.Service
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = def.ChunkSize
	}
	if c.ChunkDelay <= 0 {
		c.ChunkDelay = def.ChunkDelay
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.PollAttempts <= 0 {
		c.PollAttempts = def.PollAttempts
	}
	if c.ResponseSize <= 0 {
		c.ResponseSize = def.ResponseSize
	}
	return c
}

// PeerFinder locates bonded peers and can switch the radio on
type PeerFinder interface {
	FindPeer(ctx context.Context, mask uint32, service uuid.UUID) (bluetooth.DeviceRecord, error)
	EnableAdapter(ctx context.Context) error
}

// Driver runs printer jobs. Calls block; run them off any latency sensitive
// goroutine.
type Driver struct {
	finder PeerFinder
	dialer transport.Dialer
	cfg    Config
	log    zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewDriver creates a printer driver
func NewDriver(finder PeerFinder, dialer transport.Dialer, cfg Config, log zerolog.Logger) *Driver {
	return &Driver{
		finder: finder,
		dialer: dialer,
		cfg:    cfg.withDefaults(),
		log:    log,
		sleep:  sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Chunks splits data into consecutive pieces of at most size bytes
func Chunks(data []byte, size int) [][]byte {
	if size <= 0 {
		size = len(data)
	}
	var out [][]byte
	for len(data) > 0 {
		n := min(len(data), size)
		out = append(out, data[:n])
		data = data[n:]
	}
	return out
}

// Print sends document to the printer. The outcome is recorded on job: it is
// complete afterwards unless the radio must first be enabled.
func (d *Driver) Print(ctx context.Context, job *Job, document []byte) {
	log := d.log.With().Str("job", job.ID).Str("op", "print").Logger()
	if job.Complete() {
		log.Warn().Msg("Attempted to reuse completed print job")
		return
	}

	peer, ok := d.findPrinter(ctx, job, log)
	if !ok {
		return
	}
	log = log.With().Str("peer", peer.Address).Logger()

	sess, err := d.dialer.Open(ctx, peer, d.cfg.Service)
	if err != nil {
		d.fail(job, log, err, "open", MsgPrintIOError, MsgPrintInterrupted)
		return
	}
	defer d.closeSession(sess, log)

	chunks := Chunks(document, d.cfg.ChunkSize)
	for i, chunk := range chunks {
		if err := sess.Write(chunk); err != nil {
			log.Error().Err(err).Int("chunk", i).Msg("Error writing to printer")
			job.finish(IOError, MsgPrintIOError)
			return
		}
		if err := d.sleep(ctx, d.cfg.ChunkDelay); err != nil {
			log.Error().Err(err).Int("chunk", i).Msg("Interrupted writing to printer")
			job.finish(Interrupted, MsgPrintInterrupted)
			return
		}
	}

	log.Info().Int("bytes", len(document)).Int("chunks", len(chunks)).Msg("Document printed")
	job.finish(OK, MsgNone)
}

// ReadBattery returns the printer charge percentage (1 to 100), or one of the Battery*
// status values. The classification is recorded on job.
func (d *Driver) ReadBattery(ctx context.Context, job *Job) int {
	log := d.log.With().Str("job", job.ID).Str("op", "battery").Logger()
	if job.Complete() {
		log.Warn().Msg("Attempted to reuse completed battery job")
		return BatteryNoPrinter
	}

	peer, ok := d.findPrinter(ctx, job, log)
	if !ok {
		return BatteryNoPrinter
	}
	log = log.With().Str("peer", peer.Address).Logger()

	sess, err := d.dialer.Open(ctx, peer, d.cfg.Service)
	if err != nil {
		return d.fail(job, log, err, "open", MsgBatteryIOError, MsgBatteryInterrupted)
	}
	defer d.closeSession(sess, log)

	if err := sess.Write(zebra.BatteryQuery()); err != nil {
		return d.fail(job, log, err, "write", MsgBatteryIOError, MsgBatteryInterrupted)
	}

	response := make([]byte, d.cfg.ResponseSize)
	for attempt := 0; attempt < d.cfg.PollAttempts; attempt++ {
		n, err := sess.Available()
		if err != nil {
			return d.fail(job, log, err, "available", MsgBatteryIOError, MsgBatteryInterrupted)
		}
		if n > 0 {
			read, err := sess.Read(response)
			if err != nil {
				return d.fail(job, log, err, "read", MsgBatteryIOError, MsgBatteryInterrupted)
			}
			percent, found, err := zebra.FindPercent(string(response[:read]))
			if err == nil && found && (percent < 1 || percent > 100) {
				err = fmt.Errorf("percentage %d out of range", percent)
			}
			if !found || err != nil {
				log.Error().Err(err).Str("response", string(response[:read])).Msg("Error parsing battery charge response from printer")
				job.finish(ParseError, MsgBatteryParseError)
				return BatteryParseError
			}
			log.Debug().Int("percent", percent).Msg("Battery charge read")
			job.finish(OK, MsgNone)
			return percent
		}

		if err := d.sleep(ctx, d.cfg.PollInterval); err != nil {
			log.Error().Err(err).Int("attempt", attempt).Msg("Battery charge read interrupted")
			job.finish(Interrupted, MsgBatteryInterrupted)
			return BatteryInterrupted
		}
	}

	log.Error().Int("attempts", d.cfg.PollAttempts).Msg("Timeout accessing printer battery charge")
	job.finish(Timeout, MsgBatteryTimeout)
	return BatteryTimeout
}

// EnableRadio asks the platform to turn Bluetooth on and, on success, returns
// job to pending so it can be retried.
func (d *Driver) EnableRadio(ctx context.Context, job *Job) error {
	if err := d.finder.EnableAdapter(ctx); err != nil {
		d.log.Error().Err(err).Str("job", job.ID).Msg("Failed to enable Bluetooth adapter")
		return err
	}
	job.ResetPermission()
	return nil
}

func (d *Driver) findPrinter(ctx context.Context, job *Job, log zerolog.Logger) (bluetooth.DeviceRecord, bool) {
	peer, err := d.finder.FindPeer(ctx, d.cfg.ClassMask, d.cfg.Service)
	switch {
	case err == nil:
		return peer, true
	case errors.Is(err, bluetooth.ErrNoAdapter):
		log.Warn().Msg("No Bluetooth adapter available")
		job.finish(NoAdapter, MsgNoBluetooth)
	case errors.Is(err, bluetooth.ErrAdapterDisabled):
		log.Debug().Msg("Request permission to turn Bluetooth on")
		job.requirePermission()
	case errors.Is(err, bluetooth.ErrNotFound):
		log.Warn().Err(err).Msg("No paired printer found")
		job.finish(NoDeviceFound, MsgNoPrinter)
	default:
		log.Error().Err(err).Msg("Error enumerating Bluetooth devices")
		job.finish(NoAdapter, MsgNoBluetooth)
	}
	return bluetooth.DeviceRecord{}, false
}

// fail classifies a transport fault. Cancellation wins over the I/O error it
// usually causes.
func (d *Driver) fail(job *Job, log zerolog.Logger, err error, op string, ioMsg, intMsg MessageID) int {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Error().Err(err).Str("stage", op).Msg("Printer access interrupted")
		job.finish(Interrupted, intMsg)
		return BatteryInterrupted
	}
	log.Error().Err(err).Str("stage", op).Msg("Error accessing printer")
	job.finish(IOError, ioMsg)
	return BatteryPrinterError
}

func (d *Driver) closeSession(sess *transport.Session, log zerolog.Logger) {
	if err := sess.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing printer session")
	}
}
