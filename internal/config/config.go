// Package config loads daemon settings from built-in defaults, an optional
// JSON file and FIELDLINK_* environment variables, in that order.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"fieldlink/internal/logger"
)

// Build variables, injected at compile time
var (
	BuildEnvironment = "local"
	BuildDate        = "unknown"
	BuildTime        = "unknown"
)

// Common errors
var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Duration is a time.Duration that unmarshals from "250ms" style strings or
// integer nanoseconds.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", value, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

type Bluetooth struct {
	// Source is "bluez" (system bus) or "ctl" (bluetoothctl).
	Source  string `json:"source"`
	Adapter string `json:"adapter"`
}

type Transport struct {
	// Kind is "rfcomm" or "serial".
	Kind     string            `json:"kind"`
	Channel  uint8             `json:"channel"`
	BaudRate int               `json:"baud_rate"`
	Ports    map[string]string `json:"ports"`
	// Bind runs `rfcomm bind` for serial peers that have no tty yet.
	Bind bool `json:"bind"`
}

type Printer struct {
	ClassMask    uint32   `json:"class_mask"`
	ChunkSize    int      `json:"chunk_size"`
	ChunkDelay   Duration `json:"chunk_delay"`
	PollInterval Duration `json:"poll_interval"`
	PollAttempts int      `json:"poll_attempts"`
	ResponseSize int      `json:"response_size"`
	// JobTimeout bounds a single print or battery request. Zero means none.
	JobTimeout Duration `json:"job_timeout"`
}

type Scanner struct {
	// Family is "koamtac" or "grabba".
	Family         string   `json:"family"`
	ReconnectDelay Duration `json:"reconnect_delay"`
	ClassMask      uint32   `json:"class_mask"`
	AppName        string   `json:"app_name"`
	AutoResume     bool     `json:"auto_resume"`
}

type Server struct {
	ListenAddr     string   `json:"listen_addr"`
	AllowedOrigins []string `json:"allowed_origins"`
	QueueSize      int      `json:"queue_size"`
	// MaxJobsPerMinute limits printer requests per client address. Zero
	// disables the limit.
	MaxJobsPerMinute int      `json:"max_jobs_per_minute"`
	ReadTimeout      Duration `json:"read_timeout"`
	WriteTimeout     Duration `json:"write_timeout"`
	IdleTimeout      Duration `json:"idle_timeout"`
}

// Config is the complete daemon configuration
type Config struct {
	Server    Server        `json:"server"`
	Bluetooth Bluetooth     `json:"bluetooth"`
	Transport Transport     `json:"transport"`
	Printer   Printer       `json:"printer"`
	Scanner   Scanner       `json:"scanner"`
	Log       logger.Config `json:"log"`
}

// Default returns the built-in settings for the current build environment
func Default() Config {
	cfg := Config{
		Server: Server{
			ListenAddr:       "localhost:8766",
			AllowedOrigins:   []string{"*"},
			QueueSize:        50,
			MaxJobsPerMinute: 60,
			ReadTimeout:      Duration(30 * time.Second),
			WriteTimeout:     Duration(30 * time.Second),
			IdleTimeout:      Duration(120 * time.Second),
		},
		Bluetooth: Bluetooth{Source: "bluez"},
		Transport: Transport{Kind: "rfcomm", Channel: 1, BaudRate: 115200},
		Printer: Printer{
			ClassMask:    0x680,
			ChunkSize:    1000,
			ChunkDelay:   Duration(250 * time.Millisecond),
			PollInterval: Duration(100 * time.Millisecond),
			PollAttempts: 10,
			ResponseSize: 100,
		},
		Scanner: Scanner{
			Family:         "koamtac",
			ReconnectDelay: Duration(5 * time.Second),
			ClassMask:      0x500,
			AppName:        "fieldlink",
			AutoResume:     true,
		},
		Log: logger.DefaultConfig(),
	}

	if BuildEnvironment == "remote" {
		cfg.Server.ListenAddr = "0.0.0.0:8766"
		cfg.Server.AllowedOrigins = []string{"http://localhost:*", "https://localhost:*", "file://*"}
		cfg.Server.ReadTimeout = Duration(15 * time.Second)
		cfg.Server.WriteTimeout = Duration(15 * time.Second)
		cfg.Server.IdleTimeout = Duration(60 * time.Second)
	}
	return cfg
}

// Load reads path over the defaults, applies the environment and validates.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("FIELDLINK_LISTEN_ADDR", &c.Server.ListenAddr)
	str("FIELDLINK_BLUETOOTH_SOURCE", &c.Bluetooth.Source)
	str("FIELDLINK_BLUETOOTH_ADAPTER", &c.Bluetooth.Adapter)
	str("FIELDLINK_TRANSPORT", &c.Transport.Kind)
	str("FIELDLINK_SCANNER_FAMILY", &c.Scanner.Family)

	if v, ok := lookup("FIELDLINK_ALLOWED_ORIGINS"); ok && v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v, ok := lookup("FIELDLINK_RFCOMM_CHANNEL"); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return fmt.Errorf("FIELDLINK_RFCOMM_CHANNEL: %w", err)
		}
		c.Transport.Channel = uint8(n)
	}
	if v, ok := lookup("FIELDLINK_RECONNECT_DELAY"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FIELDLINK_RECONNECT_DELAY: %w", err)
		}
		c.Scanner.ReconnectDelay = Duration(d)
	}
	if v, ok := lookup("FIELDLINK_SCANNER_AUTO_RESUME"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("FIELDLINK_SCANNER_AUTO_RESUME: %w", err)
		}
		c.Scanner.AutoResume = b
	}
	return nil
}

// Validate reports the first setting that cannot work
func (c Config) Validate() error {
	switch {
	case c.Server.ListenAddr == "":
		return fmt.Errorf("%w: server.listen_addr is required", ErrInvalidConfig)
	case c.Server.QueueSize <= 0:
		return fmt.Errorf("%w: server.queue_size must be positive", ErrInvalidConfig)
	case c.Bluetooth.Source != "bluez" && c.Bluetooth.Source != "ctl":
		return fmt.Errorf("%w: unknown bluetooth.source %q", ErrInvalidConfig, c.Bluetooth.Source)
	case c.Transport.Kind != "rfcomm" && c.Transport.Kind != "serial":
		return fmt.Errorf("%w: unknown transport.kind %q", ErrInvalidConfig, c.Transport.Kind)
	case c.Transport.Kind == "rfcomm" && (c.Transport.Channel < 1 || c.Transport.Channel > 30):
		return fmt.Errorf("%w: transport.channel must be 1-30", ErrInvalidConfig)
	case c.Printer.ChunkSize < 0 || c.Printer.PollAttempts < 0 || c.Printer.ResponseSize < 0:
		return fmt.Errorf("%w: printer sizes must not be negative", ErrInvalidConfig)
	case c.Scanner.ReconnectDelay < 0:
		return fmt.Errorf("%w: scanner.reconnect_delay must not be negative", ErrInvalidConfig)
	}
	return nil
}
