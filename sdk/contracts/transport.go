package contracts

// PortInfo identifies one MIDI input port as reported by a platform backend.
type PortInfo struct {
	ID           string // Stable within the backend session.
	Name         string
	Manufacturer string
}

// Backend is the platform-specific half of the input transport. The adapter
// in sdk/transport owns normalization, subscriptions and hot-plug watching;
// a backend only enumerates ports and moves raw bytes.
//
// Backends deliver messages on their own platform callback thread; the
// receive function must therefore be safe to call concurrently with Ports,
// Open and Close.
type Backend interface {
	// Ports returns a snapshot of the currently present input ports.
	Ports() ([]PortInfo, error)
	// Open starts delivery of raw messages from the given port. Opening an
	// already-open port is an error.
	Open(portID string, receive func(RawMessage)) error
	// Close stops delivery from the given port. Closing an unopened port is
	// an error.
	Close(portID string) error
	// Shutdown closes every open port and releases platform resources.
	Shutdown() error
}
