package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fieldlink.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost:8766", cfg.Server.ListenAddr)
	assert.Equal(t, "rfcomm", cfg.Transport.Kind)
	assert.Equal(t, uint8(1), cfg.Transport.Channel)
	assert.Equal(t, 1000, cfg.Printer.ChunkSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Printer.ChunkDelay.Std())
	assert.Equal(t, "koamtac", cfg.Scanner.Family)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"listen_addr": "0.0.0.0:9000"},
		"transport": {"kind": "serial", "ports": {"00:11:22:33:44:55": "/dev/rfcomm0"}},
		"printer": {"chunk_delay": "400ms", "poll_interval": 50000000},
		"scanner": {"family": "grabba"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.ListenAddr)
	assert.Equal(t, 50, cfg.Server.QueueSize, "unset fields keep defaults")
	assert.Equal(t, "serial", cfg.Transport.Kind)
	assert.Equal(t, "/dev/rfcomm0", cfg.Transport.Ports["00:11:22:33:44:55"])
	assert.Equal(t, 400*time.Millisecond, cfg.Printer.ChunkDelay.Std())
	assert.Equal(t, 50*time.Millisecond, cfg.Printer.PollInterval.Std())
	assert.Equal(t, "grabba", cfg.Scanner.Family)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `{"scanner": {"family": "grabba"}}`)
	t.Setenv("FIELDLINK_SCANNER_FAMILY", "koamtac")
	t.Setenv("FIELDLINK_RECONNECT_DELAY", "2s")
	t.Setenv("FIELDLINK_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("FIELDLINK_RFCOMM_CHANNEL", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "koamtac", cfg.Scanner.Family)
	assert.Equal(t, 2*time.Second, cfg.Scanner.ReconnectDelay.Std())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, uint8(3), cfg.Transport.Channel)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "bad json", body: `{`},
		{name: "bad duration", body: `{"printer": {"chunk_delay": "soon"}}`},
		{name: "bad duration type", body: `{"printer": {"chunk_delay": true}}`},
		{name: "unknown source", body: `{"bluetooth": {"source": "hci"}}`},
		{name: "unknown transport", body: `{"transport": {"kind": "usb"}}`},
		{name: "channel range", body: `{"transport": {"channel": 31}}`},
		{name: "empty queue", body: `{"server": {"queue_size": 0}}`},
		{name: "negative delay", body: `{"scanner": {"reconnect_delay": "-1s"}}`},
		{name: "bad env delay", body: `{}`, env: map[string]string{"FIELDLINK_RECONNECT_DELAY": "later"}},
		{name: "bad env bool", body: `{}`, env: map[string]string{"FIELDLINK_SCANNER_AUTO_RESUME": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestValidateWrapsSentinel(t *testing.T) {
	cfg := Default()
	cfg.Transport.Kind = "usb"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestDurationMarshal(t *testing.T) {
	b, err := json.Marshal(Duration(1500 * time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, `"1.5s"`, string(b))
}
