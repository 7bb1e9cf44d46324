//go:build !windows
// +build !windows

package winmm

import (
	"errors"

	"github.com/whistlekit/whistlekit/sdk/contracts"
)

var errUnavailable = errors.New("winmm is not available on this platform")

type dummyBackend struct{}

// New reports that winmm is unavailable off Windows. The package still
// compiles everywhere so the factory's initializer map can reference it.
func New(options *contracts.TransportOptions) (contracts.Backend, error) {
	return nil, errUnavailable
}

func (dummyBackend) Ports() ([]contracts.PortInfo, error) { return nil, errUnavailable }

func (dummyBackend) Open(string, func(contracts.RawMessage)) error { return errUnavailable }

func (dummyBackend) Close(string) error { return errUnavailable }

func (dummyBackend) Shutdown() error { return nil }
