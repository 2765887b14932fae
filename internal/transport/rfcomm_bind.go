package transport

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	maxRFCOMMDevices = 10
	bindWait         = 5 * time.Second
	bindPoll         = 100 * time.Millisecond
)

// RFCOMMBindings finds ttys created by `rfcomm bind` or `rfcomm connect`,
// and can create a binding on the first free /dev/rfcommN.
type RFCOMMBindings struct {
	// Bind creates a binding on Channel when none exists for a peer.
	Bind    bool
	Channel uint8

	run      func(ctx context.Context, name string, args ...string) ([]byte, error)
	exists   func(path string) bool
	elevate  bool
	waitStep time.Duration
}

// NewRFCOMMBindings uses the rfcomm tool, through sudo -n when not root
func NewRFCOMMBindings(bind bool, channel uint8) *RFCOMMBindings {
	if channel == 0 {
		channel = 1
	}
	return &RFCOMMBindings{
		Bind:    bind,
		Channel: channel,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
		exists: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
		elevate:  os.Geteuid() != 0,
		waitStep: bindPoll,
	}
}

// PortFor returns the tty bound to address
func (b *RFCOMMBindings) PortFor(ctx context.Context, address string) (string, error) {
	out, err := b.run(ctx, "rfcomm", "-a")
	if err != nil && !b.Bind {
		return "", fmt.Errorf("list rfcomm bindings: %w", err)
	}
	if err == nil {
		if port, ok := parseBindings(string(out))[strings.ToUpper(address)]; ok {
			return port, nil
		}
	}
	if !b.Bind {
		return "", fmt.Errorf("%w %s", ErrNoPort, address)
	}
	return b.bind(ctx, address)
}

// freeDevice finds an unused rfcomm device number
func (b *RFCOMMBindings) freeDevice(ctx context.Context) (string, int, error) {
	for i := 0; i < maxRFCOMMDevices; i++ {
		devPath := fmt.Sprintf("/dev/rfcomm%d", i)
		out, _ := b.run(ctx, "rfcomm", "show", devPath)
		if len(out) == 0 || strings.Contains(string(out), "No such device") {
			return devPath, i, nil
		}
	}
	return "", -1, fmt.Errorf("no available RFCOMM device slots")
}

func (b *RFCOMMBindings) bind(ctx context.Context, address string) (string, error) {
	devPath, devNum, err := b.freeDevice(ctx)
	if err != nil {
		return "", err
	}

	name := "rfcomm"
	args := []string{"bind", strconv.Itoa(devNum), address, strconv.Itoa(int(b.Channel))}
	if b.elevate {
		name = "sudo"
		args = append([]string{"-n", "rfcomm"}, args...)
	}
	if _, err := b.run(ctx, name, args...); err != nil {
		return "", fmt.Errorf("rfcomm bind %s: %w", address, err)
	}

	ctx, cancel := context.WithTimeout(ctx, bindWait)
	defer cancel()
	for !b.exists(devPath) {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("timeout waiting for %s to appear: %w", devPath, ctx.Err())
		case <-time.After(b.waitStep):
		}
	}
	return devPath, nil
}

// parseBindings reads lines like
// "rfcomm0: 00:11:22:33:44:55 channel 1 clean".
func parseBindings(out string) map[string]string {
	ports := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		parts := strings.Fields(line)
		if len(parts) < 2 || !strings.HasPrefix(parts[0], "rfcomm") {
			continue
		}
		devName := strings.TrimSuffix(parts[0], ":")
		addr := strings.ToUpper(parts[1])
		if _, seen := ports[addr]; !seen {
			ports[addr] = filepath.Join("/dev", devName)
		}
	}
	return ports
}
