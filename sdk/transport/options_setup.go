package transport

import (
	"time"

	"github.com/whistlekit/whistlekit/internal/logger"
	"github.com/whistlekit/whistlekit/sdk/contracts"
)

const defaultRescanInterval = time.Second

// applyDefaultOptions sets default values for TransportOptions if not
// explicitly provided.
func applyDefaultOptions(opts ...contracts.Option) contracts.TransportOptions {
	options := &contracts.TransportOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.ClientName == "" {
		options.ClientName = "whistlekit"
	}
	if options.RescanInterval <= 0 {
		options.RescanInterval = defaultRescanInterval
	}

	options.Logger.SetLevel(options.LogLevel)
	return *options
}
