package playback

import (
	"github.com/whistlekit/whistlekit/internal/logger"
	"github.com/whistlekit/whistlekit/sdk/contracts"
)

// Options configures a Driver.
type Options struct {
	Logger contracts.Logger
	Synth  Synth
}

// Option mutates driver options.
type Option func(*Options)

// WithLogger sets the logger used by the driver.
func WithLogger(l contracts.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithSynth sets the synth that receives due notes. Without one the driver
// still advances and tracks position; it just plays nothing.
func WithSynth(s Synth) Option {
	return func(o *Options) {
		o.Synth = s
	}
}

func applyDefaultOptions(opts ...Option) Options {
	o := Options{
		Logger: logger.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
