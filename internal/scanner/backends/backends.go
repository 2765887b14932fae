// Package backends picks the scanner integration named in configuration.
package backends

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"fieldlink/internal/scanner"
	"fieldlink/internal/scanner/grabba"
	"fieldlink/internal/scanner/koamtac"
	"fieldlink/internal/transport"
)

// Scanner families
const (
	Koamtac = "koamtac"
	Grabba  = "grabba"
)

// Common errors
var (
	ErrUnknownFamily = errors.New("unknown scanner family")
	ErrNoGrabbaSDK   = errors.New("grabba sdk not available in this build")
)

// Deps carries what the backends are built from
type Deps struct {
	Finder       koamtac.PeerFinder
	Dialer       transport.Dialer
	SPP          koamtac.SPPConfig
	GrabbaOpener grabba.Opener
	AppName      string
	Log          zerolog.Logger
}

// Select returns the factory for family. An empty family selects koamtac.
func Select(family string, deps Deps) (scanner.Factory, error) {
	switch strings.ToLower(strings.TrimSpace(family)) {
	case "", Koamtac:
		readers := koamtac.NewSPPReaderFactory(deps.Finder, deps.Dialer, deps.SPP, deps.Log)
		return func(em scanner.Emitter) (scanner.Backend, error) {
			return koamtac.New(em, readers, deps.Log), nil
		}, nil

	case Grabba:
		if deps.GrabbaOpener == nil {
			return nil, ErrNoGrabbaSDK
		}
		return func(em scanner.Emitter) (scanner.Backend, error) {
			return grabba.New(em, deps.GrabbaOpener, deps.AppName, deps.Log)
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
}
