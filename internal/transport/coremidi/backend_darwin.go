//go:build darwin
// +build darwin

package coremidi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/youpy/go-coremidi"

	"github.com/whistlekit/whistlekit/sdk/contracts"
)

// Error definitions for CoreMIDI backend failures.
var (
	ErrCreateClient    = errors.New("error creating CoreMIDI client")
	ErrCreateInputPort = errors.New("error creating input port")
	ErrPortNotFound    = errors.New("input port not found")
	ErrPortAlreadyOpen = errors.New("input port already open")
	ErrPortNotOpen     = errors.New("input port not open")
)

// connection abstracts the CoreMIDI port connection for disconnection.
type connection interface {
	Disconnect()
}

// Backend moves raw MIDI bytes on macOS via CoreMIDI. One shared input port
// receives packets from every connected source; packets are dispatched to
// the receive function registered for that source.
type Backend struct {
	logger contracts.Logger
	client coremidi.Client
	port   coremidi.InputPort

	mu   sync.Mutex
	open map[string]*openSource
}

type openSource struct {
	conn    connection
	receive func(contracts.RawMessage)
}

// New creates the CoreMIDI backend and its shared input port.
func New(options *contracts.TransportOptions) (contracts.Backend, error) {
	client, err := coremidi.NewClient(options.ClientName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateClient, err)
	}

	b := &Backend{
		logger: options.Logger,
		client: client,
		open:   make(map[string]*openSource),
	}

	b.port, err = coremidi.NewInputPort(client, "Input Port", b.handlePacket)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}

	options.Logger.Info("CoreMIDI backend created",
		options.Logger.Field().String("client", options.ClientName))
	return b, nil
}

// Ports returns the currently present CoreMIDI sources. Ports are identified
// by their source name.
func (b *Backend) Ports() ([]contracts.PortInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}

	ports := make([]contracts.PortInfo, len(sources))
	for i, source := range sources {
		entity := source.Entity()
		ports[i] = contracts.PortInfo{
			ID:           source.Name(),
			Name:         source.Name(),
			Manufacturer: entity.Manufacturer(),
		}
	}
	return ports, nil
}

// Open connects the shared input port to the named source.
func (b *Backend) Open(portID string, receive func(contracts.RawMessage)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.open[portID]; exists {
		return fmt.Errorf("%w: %s", ErrPortAlreadyOpen, portID)
	}

	sources, err := coremidi.AllSources()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI sources: %w", err)
	}

	for _, source := range sources {
		if source.Name() != portID {
			continue
		}
		conn, err := b.port.Connect(source)
		if err != nil {
			return fmt.Errorf("error connecting to %q: %w", portID, err)
		}
		b.open[portID] = &openSource{conn: conn, receive: receive}
		b.logger.Debug("CoreMIDI source connected",
			b.logger.Field().String("port", portID))
		return nil
	}
	return fmt.Errorf("%w: %s", ErrPortNotFound, portID)
}

// Close disconnects the named source.
func (b *Backend) Close(portID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	src, exists := b.open[portID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrPortNotOpen, portID)
	}
	src.conn.Disconnect()
	delete(b.open, portID)
	b.logger.Debug("CoreMIDI source disconnected",
		b.logger.Field().String("port", portID))
	return nil
}

// Shutdown disconnects every open source.
func (b *Backend) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, src := range b.open {
		src.conn.Disconnect()
		delete(b.open, id)
	}
	return nil
}

// handlePacket dispatches an incoming packet to the receive function
// registered for its source. Runs on the CoreMIDI callback thread.
func (b *Backend) handlePacket(source coremidi.Source, packet coremidi.Packet) {
	if len(packet.Data) < 3 {
		b.logger.Warn("incomplete MIDI packet dropped",
			b.logger.Field().Int("bytes", len(packet.Data)))
		return
	}

	b.mu.Lock()
	src, exists := b.open[source.Name()]
	b.mu.Unlock()
	if !exists {
		return
	}

	src.receive(contracts.RawMessage{
		Status:    packet.Data[0],
		Data1:     packet.Data[1],
		Data2:     packet.Data[2],
		Timestamp: time.Now(),
	})
}
