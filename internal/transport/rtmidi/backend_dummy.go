//go:build !linux || !cgo
// +build !linux !cgo

package rtmidi

import (
	"errors"

	"github.com/whistlekit/whistlekit/sdk/contracts"
)

var errUnavailable = errors.New("rtmidi backend is not built on this platform")

type dummyBackend struct{}

// New reports that the rtmidi backend is unavailable. The package still
// compiles everywhere so the factory's initializer map can reference it.
func New(options *contracts.TransportOptions) (contracts.Backend, error) {
	return nil, errUnavailable
}

func (dummyBackend) Ports() ([]contracts.PortInfo, error) { return nil, errUnavailable }

func (dummyBackend) Open(string, func(contracts.RawMessage)) error { return errUnavailable }

func (dummyBackend) Close(string) error { return errUnavailable }

func (dummyBackend) Shutdown() error { return nil }
