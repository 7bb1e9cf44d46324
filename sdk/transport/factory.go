package transport

import (
	"runtime"

	"github.com/whistlekit/whistlekit/internal/transport/coremidi"
	"github.com/whistlekit/whistlekit/internal/transport/rtmidi"
	"github.com/whistlekit/whistlekit/internal/transport/winmm"
	"github.com/whistlekit/whistlekit/sdk/contracts"
)

// backendInitializers maps OS names to the corresponding platform backend
// initializer.
var backendInitializers = map[string]func(*contracts.TransportOptions) (contracts.Backend, error){
	"darwin":  coremidi.New,
	"windows": winmm.New,
	"linux":   rtmidi.New,
}

// New creates an input transport adapter for the current operating system.
// Platform resources are not touched until Initialize is called.
//
// opts ...contracts.Option: A variadic list of option functions to customize
// the transport configuration.
func New(opts ...contracts.Option) *Adapter {
	options := applyDefaultOptions(opts...)
	return newAdapter(backendInitializers[runtime.GOOS], &options)
}
