package bluetooth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const printerMask = 0x680

var otherService = uuid.MustParse("0000110a-0000-1000-8000-00805f9b34fb")

func TestFindPeer(t *testing.T) {
	printer := DeviceRecord{Address: "00:11:22:33:44:55", Name: "ZQ320", Class: 0x040680, Services: []uuid.UUID{SerialPortProfile}}
	headset := DeviceRecord{Address: "00:11:22:33:44:66", Name: "Headset", Class: 0x240404, Services: []uuid.UUID{otherService}}
	noSPP := DeviceRecord{Address: "00:11:22:33:44:77", Name: "Imaging", Class: 0x000680, Services: []uuid.UUID{otherService}}
	second := DeviceRecord{Address: "00:11:22:33:44:88", Name: "ZQ520", Class: 0x0680, Services: []uuid.UUID{otherService, SerialPortProfile}}

	tests := []struct {
		name    string
		devices []DeviceRecord
		want    string
		wantErr error
	}{
		{"first match wins", []DeviceRecord{headset, printer, second}, printer.Address, nil},
		{"skips device without serial service", []DeviceRecord{noSPP, second}, second.Address, nil},
		{"empty bond list", nil, "", ErrNotFound},
		{"no class match", []DeviceRecord{headset}, "", ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			src := NewMockSource(ctrl)
			src.EXPECT().Adapter(gomock.Any()).Return(AdapterState{Present: true, Enabled: true}, nil)
			src.EXPECT().BondedDevices(gomock.Any()).Return(tt.devices, nil)

			got, err := NewDirectory(src).FindPeer(context.Background(), printerMask, SerialPortProfile)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Address)
		})
	}
}

func TestFindPeerAdapterChecksPrecedeEnumeration(t *testing.T) {
	tests := []struct {
		name    string
		state   AdapterState
		wantErr error
	}{
		{"absent", AdapterState{}, ErrNoAdapter},
		{"disabled", AdapterState{Present: true}, ErrAdapterDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			src := NewMockSource(ctrl)
			src.EXPECT().Adapter(gomock.Any()).Return(tt.state, nil)
			src.EXPECT().BondedDevices(gomock.Any()).Times(0)

			_, err := NewDirectory(src).FindPeer(context.Background(), printerMask, SerialPortProfile)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFindPeerRereadsBondList(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)
	printer := DeviceRecord{Address: "00:11:22:33:44:55", Class: 0x680, Services: []uuid.UUID{SerialPortProfile}}

	src.EXPECT().Adapter(gomock.Any()).Return(AdapterState{Present: true, Enabled: true}, nil).Times(2)
	gomock.InOrder(
		src.EXPECT().BondedDevices(gomock.Any()).Return(nil, nil),
		src.EXPECT().BondedDevices(gomock.Any()).Return([]DeviceRecord{printer}, nil),
	)

	dir := NewDirectory(src)
	_, err := dir.FindPeer(context.Background(), printerMask, SerialPortProfile)
	require.ErrorIs(t, err, ErrNotFound)

	got, err := dir.FindPeer(context.Background(), printerMask, SerialPortProfile)
	require.NoError(t, err)
	assert.Equal(t, printer.Address, got.Address)
}

func TestFindPeerSourceFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)
	boom := errors.New("bus gone")
	src.EXPECT().Adapter(gomock.Any()).Return(AdapterState{}, boom)

	_, err := NewDirectory(src).FindPeer(context.Background(), printerMask, SerialPortProfile)
	assert.ErrorIs(t, err, boom)
}

func TestMatchesRequiresEveryMaskBit(t *testing.T) {
	d := DeviceRecord{Class: 0x600, Services: []uuid.UUID{SerialPortProfile}}
	assert.False(t, d.Matches(0x680, SerialPortProfile))
	d.Class = 0x1f680
	assert.True(t, d.Matches(0x680, SerialPortProfile))
}

func TestParseAddress(t *testing.T) {
	got, err := ParseAddress("00:1a:7D:da:71:13")
	require.NoError(t, err)
	assert.Equal(t, [6]byte{0x00, 0x1a, 0x7d, 0xda, 0x71, 0x13}, got)

	for _, bad := range []string{"", "00:11:22:33:44", "00:11:22:33:44:GG", "0:11:22:33:44:55"} {
		_, err := ParseAddress(bad)
		assert.Error(t, err, bad)
	}
}
