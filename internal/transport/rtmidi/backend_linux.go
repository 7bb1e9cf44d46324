//go:build linux && cgo
// +build linux,cgo

package rtmidi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/whistlekit/whistlekit/sdk/contracts"
)

// Error definitions for the rtmidi backend.
var (
	ErrDriverInit      = errors.New("error initializing rtmidi driver")
	ErrPortNotFound    = errors.New("MIDI input port not found")
	ErrPortAlreadyOpen = errors.New("MIDI input port already open")
	ErrPortNotOpen     = errors.New("MIDI input port not open")
)

// Backend moves raw MIDI bytes on Linux via the rtmidi driver (ALSA).
// Ports are identified by their port name.
type Backend struct {
	logger contracts.Logger
	driver *rtmididrv.Driver

	mu   sync.Mutex
	open map[string]*openPort
}

type openPort struct {
	in   drivers.In
	stop func()
}

// New creates the rtmidi backend.
func New(options *contracts.TransportOptions) (contracts.Backend, error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDriverInit, err)
	}

	options.Logger.Info("rtmidi backend created")
	return &Backend{
		logger: options.Logger,
		driver: driver,
		open:   make(map[string]*openPort),
	}, nil
}

// Ports enumerates the currently present input ports.
func (b *Backend) Ports() ([]contracts.PortInfo, error) {
	ins, err := b.driver.Ins()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI inputs: %w", err)
	}

	ports := make([]contracts.PortInfo, 0, len(ins))
	for _, in := range ins {
		ports = append(ports, contracts.PortInfo{
			ID:   in.String(),
			Name: in.String(),
		})
	}
	return ports, nil
}

// Open opens the named port and starts listening on it.
func (b *Backend) Open(portID string, receive func(contracts.RawMessage)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.open[portID]; exists {
		return fmt.Errorf("%w: %s", ErrPortAlreadyOpen, portID)
	}

	in, err := b.findIn(portID)
	if err != nil {
		return err
	}
	if err := in.Open(); err != nil {
		return fmt.Errorf("error opening %q: %w", portID, err)
	}

	stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		raw := []byte(msg)
		if len(raw) < 3 {
			return
		}
		receive(contracts.RawMessage{
			Status:    raw[0],
			Data1:     raw[1],
			Data2:     raw[2],
			Timestamp: time.Now(),
		})
	}, midi.HandleError(func(listenErr error) {
		// Likely a hot-unplug; the watcher notices the port vanishing on its
		// next rescan and closes it properly.
		b.logger.Warn("rtmidi listener error",
			b.logger.Field().String("port", portID),
			b.logger.Field().Error("cause", listenErr))
	}))
	if err != nil {
		_ = in.Close()
		return fmt.Errorf("error listening on %q: %w", portID, err)
	}

	b.open[portID] = &openPort{in: in, stop: stop}
	b.logger.Debug("rtmidi port opened", b.logger.Field().String("port", portID))
	return nil
}

// Close stops listening on the named port.
func (b *Backend) Close(portID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeLocked(portID)
}

// Shutdown closes every open port and the driver.
func (b *Backend) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id := range b.open {
		_ = b.closeLocked(id)
	}
	return b.driver.Close()
}

func (b *Backend) closeLocked(portID string) error {
	port, exists := b.open[portID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrPortNotOpen, portID)
	}
	port.stop()
	if err := port.in.Close(); err != nil {
		b.logger.Warn("error closing MIDI port",
			b.logger.Field().String("port", portID),
			b.logger.Field().Error("cause", err))
	}
	delete(b.open, portID)
	b.logger.Debug("rtmidi port closed", b.logger.Field().String("port", portID))
	return nil
}

func (b *Backend) findIn(portID string) (drivers.In, error) {
	ins, err := b.driver.Ins()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI inputs: %w", err)
	}
	for _, in := range ins {
		if in.String() == portID {
			return in, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPortNotFound, portID)
}
