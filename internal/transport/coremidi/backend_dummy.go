//go:build !darwin
// +build !darwin

package coremidi

import (
	"errors"

	"github.com/whistlekit/whistlekit/sdk/contracts"
)

var errUnavailable = errors.New("CoreMIDI is not available on this platform")

type dummyBackend struct{}

// New reports that CoreMIDI is unavailable off macOS. The package still
// compiles everywhere so the factory's initializer map can reference it.
func New(options *contracts.TransportOptions) (contracts.Backend, error) {
	return nil, errUnavailable
}

func (dummyBackend) Ports() ([]contracts.PortInfo, error) { return nil, errUnavailable }

func (dummyBackend) Open(string, func(contracts.RawMessage)) error { return errUnavailable }

func (dummyBackend) Close(string) error { return errUnavailable }

func (dummyBackend) Shutdown() error { return nil }
