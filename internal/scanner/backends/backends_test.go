package backends

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldlink/internal/scanner"
	"fieldlink/internal/scanner/grabba"
	"fieldlink/internal/scanner/koamtac"
)

type nopEmitter struct{}

func (nopEmitter) Connection(scanner.State, string) {}
func (nopEmitter) Error(string, string)             {}
func (nopEmitter) Button(bool, bool) bool           { return false }
func (nopEmitter) Scanning(bool, string)            {}
func (nopEmitter) Barcode(string, string)           {}

func TestSelectKoamtac(t *testing.T) {
	for _, family := range []string{"", "koamtac", " KOAMTAC "} {
		factory, err := Select(family, Deps{Log: zerolog.Nop()})
		require.NoError(t, err, family)

		b, err := factory(nopEmitter{})
		require.NoError(t, err)
		assert.IsType(t, &koamtac.Backend{}, b)
		assert.Equal(t, "Scanner connector idle", b.ConnectionDetails())
	}
}

func TestSelectGrabba(t *testing.T) {
	_, err := Select("grabba", Deps{})
	assert.ErrorIs(t, err, ErrNoGrabbaSDK)

	opener := func(string) (grabba.SDK, error) { return nil, grabba.ErrDriverNotInstalled }
	factory, err := Select("grabba", Deps{GrabbaOpener: opener, Log: zerolog.Nop()})
	require.NoError(t, err)

	b, err := factory(nopEmitter{})
	require.NoError(t, err)
	assert.IsType(t, &grabba.Backend{}, b)
	assert.Equal(t, "Grabba Driver Not Installed", b.ConnectionDetails())
}

func TestSelectUnknown(t *testing.T) {
	_, err := Select("zebra", Deps{})
	assert.ErrorIs(t, err, ErrUnknownFamily)
}
