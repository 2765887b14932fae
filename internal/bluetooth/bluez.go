package bluetooth

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
)

const (
	bluezService    = "org.bluez"
	adapterIface    = "org.bluez.Adapter1"
	deviceIface     = "org.bluez.Device1"
	getManagedCall  = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"
	adapterPowerKey = adapterIface + ".Powered"
)

type managedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// BlueZSource talks to bluetoothd over the system bus.
type BlueZSource struct {
	conn    *dbus.Conn
	adapter string // e.g. "hci0"; empty selects the first adapter
}

// NewBlueZSource connects to the system bus
func NewBlueZSource(adapter string) (*BlueZSource, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}
	return &BlueZSource{conn: conn, adapter: adapter}, nil
}

func (s *BlueZSource) managed(ctx context.Context) (managedObjects, error) {
	var objects managedObjects
	call := s.conn.Object(bluezService, "/").CallWithContext(ctx, getManagedCall, 0)
	if err := call.Store(&objects); err != nil {
		return nil, fmt.Errorf("bluez managed objects: %w", err)
	}
	return objects, nil
}

// Adapter reports the selected adapter's presence and power state
func (s *BlueZSource) Adapter(ctx context.Context) (AdapterState, error) {
	objects, err := s.managed(ctx)
	if err != nil {
		return AdapterState{}, err
	}
	_, props, ok := selectAdapter(objects, s.adapter)
	if !ok {
		return AdapterState{}, nil
	}
	powered, _ := props["Powered"].Value().(bool)
	return AdapterState{Present: true, Enabled: powered}, nil
}

// BondedDevices returns paired devices on the selected adapter, ordered by
// object path.
func (s *BlueZSource) BondedDevices(ctx context.Context) ([]DeviceRecord, error) {
	objects, err := s.managed(ctx)
	if err != nil {
		return nil, err
	}
	adapterPath, _, ok := selectAdapter(objects, s.adapter)
	if !ok {
		return nil, ErrNoAdapter
	}
	return pairedDevices(objects, adapterPath), nil
}

// EnableAdapter sets Powered on the selected adapter
func (s *BlueZSource) EnableAdapter(ctx context.Context) error {
	objects, err := s.managed(ctx)
	if err != nil {
		return err
	}
	path, _, ok := selectAdapter(objects, s.adapter)
	if !ok {
		return ErrNoAdapter
	}
	obj := s.conn.Object(bluezService, path)
	if err := obj.SetProperty(adapterPowerKey, dbus.MakeVariant(true)); err != nil {
		return fmt.Errorf("power on %s: %w", path, err)
	}
	return nil
}

func sortedPaths(objects managedObjects) []dbus.ObjectPath {
	paths := make([]dbus.ObjectPath, 0, len(objects))
	for p := range objects {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths
}

func selectAdapter(objects managedObjects, name string) (dbus.ObjectPath, map[string]dbus.Variant, bool) {
	for _, p := range sortedPaths(objects) {
		props, ok := objects[p][adapterIface]
		if !ok {
			continue
		}
		if name == "" || strings.HasSuffix(string(p), "/"+name) {
			return p, props, true
		}
	}
	return "", nil, false
}

func pairedDevices(objects managedObjects, adapter dbus.ObjectPath) []DeviceRecord {
	var devices []DeviceRecord
	for _, p := range sortedPaths(objects) {
		props, ok := objects[p][deviceIface]
		if !ok {
			continue
		}
		if owner, ok := props["Adapter"].Value().(dbus.ObjectPath); ok && owner != adapter {
			continue
		}
		if paired, _ := props["Paired"].Value().(bool); !paired {
			continue
		}
		devices = append(devices, deviceFromProps(props))
	}
	return devices
}

func deviceFromProps(props map[string]dbus.Variant) DeviceRecord {
	dev := DeviceRecord{}
	dev.Address, _ = props["Address"].Value().(string)
	dev.Name, _ = props["Name"].Value().(string)
	dev.Class, _ = props["Class"].Value().(uint32)
	uuids, _ := props["UUIDs"].Value().([]string)
	for _, u := range uuids {
		if id, err := uuid.Parse(u); err == nil {
			dev.Services = append(dev.Services, id)
		}
	}
	return dev
}
