package bluetooth

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// CtlSource reads adapter and bond state by shelling out to bluetoothctl.
type CtlSource struct {
	run func(ctx context.Context, args ...string) ([]byte, error)
}

// NewCtlSource creates a bluetoothctl backed source
func NewCtlSource() *CtlSource {
	return &CtlSource{run: runBluetoothctl}
}

func runBluetoothctl(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "bluetoothctl", args...).Output()
	if err != nil {
		return out, fmt.Errorf("bluetoothctl %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

// Adapter reports whether a default controller exists and is powered
func (s *CtlSource) Adapter(ctx context.Context) (AdapterState, error) {
	out, err := s.run(ctx, "show")
	if strings.Contains(string(out), "No default controller available") {
		return AdapterState{}, nil
	}
	if err != nil {
		return AdapterState{}, err
	}
	return parseShow(string(out)), nil
}

// BondedDevices lists paired devices and fills in class and services for each
func (s *CtlSource) BondedDevices(ctx context.Context) ([]DeviceRecord, error) {
	out, err := s.run(ctx, "devices", "Paired")
	if err != nil {
		return nil, fmt.Errorf("failed to list paired devices: %w", err)
	}

	devices := parseDevices(string(out))
	for i := range devices {
		info, err := s.run(ctx, "info", devices[i].Address)
		if err != nil {
			return nil, fmt.Errorf("failed to read device %s: %w", devices[i].Address, err)
		}
		parseInfo(string(info), &devices[i])
	}
	return devices, nil
}

// EnableAdapter powers the default controller on
func (s *CtlSource) EnableAdapter(ctx context.Context) error {
	_, err := s.run(ctx, "power", "on")
	return err
}

func parseShow(out string) AdapterState {
	state := AdapterState{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Controller "):
			state.Present = true
		case strings.HasPrefix(line, "Powered:"):
			state.Enabled = strings.TrimSpace(strings.TrimPrefix(line, "Powered:")) == "yes"
		}
	}
	return state
}

func parseDevices(out string) []DeviceRecord {
	var devices []DeviceRecord
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Device ") {
			continue
		}
		// Format: "Device XX:XX:XX:XX:XX:XX DeviceName"
		parts := strings.SplitN(strings.TrimPrefix(line, "Device "), " ", 2)
		dev := DeviceRecord{Address: parts[0]}
		if len(parts) == 2 {
			dev.Name = parts[1]
		}
		devices = append(devices, dev)
	}
	return devices
}

var uuidInParens = regexp.MustCompile(`\(([0-9a-fA-F-]{36})\)`)

func parseInfo(out string, dev *DeviceRecord) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Class:"):
			v := strings.TrimSpace(strings.TrimPrefix(line, "Class:"))
			if class, err := strconv.ParseUint(v, 0, 32); err == nil {
				dev.Class = uint32(class)
			}
		case strings.HasPrefix(line, "UUID:"):
			m := uuidInParens.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if id, err := uuid.Parse(m[1]); err == nil {
				dev.Services = append(dev.Services, id)
			}
		case strings.HasPrefix(line, "Name:") && dev.Name == "":
			dev.Name = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
		}
	}
}
