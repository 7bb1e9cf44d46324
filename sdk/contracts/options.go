package contracts

import "time"

// TransportOptions defines the configuration options for the input transport.
type TransportOptions struct {
	Logger         Logger        // Logger for transport events and listener faults.
	LogLevel       LogLevel      // Level applied to the logger on construction.
	ClientName     string        // Name registered with the platform MIDI service.
	RescanInterval time.Duration // Hot-plug watcher poll interval.
}

// Option is a function that modifies TransportOptions.
type Option func(*TransportOptions)

// WithLogger sets the logger for the transport.
func WithLogger(l Logger) Option {
	return func(opts *TransportOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the transport.
func WithLogLevel(level LogLevel) Option {
	return func(opts *TransportOptions) {
		opts.LogLevel = level
	}
}

// WithClientName sets the name the transport registers with the platform
// MIDI service.
func WithClientName(name string) Option {
	return func(opts *TransportOptions) {
		opts.ClientName = name
	}
}

// WithRescanInterval sets how often the hot-plug watcher polls the port set.
func WithRescanInterval(d time.Duration) Option {
	return func(opts *TransportOptions) {
		opts.RescanInterval = d
	}
}
