// Package transport implements the live MIDI input adapter: device
// enumeration, automatic port opening, hot-plug handling, and delivery of
// normalized NoteOn/NoteOff events to subscribers.
package transport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/whistlekit/whistlekit/sdk/contracts"
)

// Error definitions for transport initialization.
var (
	// ErrUnsupported means the platform exposes no MIDI capability at all.
	ErrUnsupported = errors.New("MIDI is not supported on this platform")
	// ErrAccessDenied means the platform refused MIDI access.
	ErrAccessDenied = errors.New("MIDI access was denied")
)

type backendFactory func(*contracts.TransportOptions) (contracts.Backend, error)

// Adapter is the input transport. It owns the set of open MIDI input ports
// (the only shared mutable platform resource), normalizes raw messages into
// NoteEvents, and fans them out to subscribers. One adapter is constructed
// per application session and passed by reference to consumers.
type Adapter struct {
	logger  contracts.Logger
	options contracts.TransportOptions
	factory backendFactory

	mu          sync.Mutex
	backend     contracts.Backend
	initialized bool
	ports       map[string]*portState
	order       []string

	noteSubs   map[int]func(contracts.NoteEvent)
	deviceSubs map[int]func([]contracts.DeviceDescriptor)
	nextSubID  int

	stopWatcher chan struct{}
	watcherDone chan struct{}
}

type portState struct {
	info  contracts.PortInfo
	state contracts.DeviceState
}

func newAdapter(factory backendFactory, options *contracts.TransportOptions) *Adapter {
	return &Adapter{
		logger:     options.Logger,
		options:    *options,
		factory:    factory,
		ports:      make(map[string]*portState),
		noteSubs:   make(map[int]func(contracts.NoteEvent)),
		deviceSubs: make(map[int]func([]contracts.DeviceDescriptor)),
	}
}

// Initialize requests platform MIDI access, opens every currently present
// input port, and starts the hot-plug watcher. It returns ErrUnsupported
// when the platform has no MIDI capability and ErrAccessDenied when the
// platform refused access. Calling Initialize twice is a no-op.
func (a *Adapter) Initialize() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialized {
		return nil
	}
	if a.factory == nil {
		a.logger.Error(ErrUnsupported.Error())
		return ErrUnsupported
	}

	backend, err := a.factory(&a.options)
	if err != nil {
		a.logger.Error("platform refused MIDI access", a.logger.Field().Error("cause", err))
		return fmt.Errorf("%w: %v", ErrAccessDenied, err)
	}
	a.backend = backend
	a.initialized = true

	infos, err := backend.Ports()
	if err != nil {
		a.logger.Warn("initial port enumeration failed", a.logger.Field().Error("cause", err))
	}
	for _, info := range infos {
		a.addPortLocked(info, true)
	}

	a.stopWatcher = make(chan struct{})
	a.watcherDone = make(chan struct{})
	go a.watch(a.stopWatcher, a.watcherDone)

	a.logger.Info("MIDI transport initialized",
		a.logger.Field().Int("ports", len(a.order)))
	return nil
}

// Devices returns a snapshot of the known input ports in enumeration order.
func (a *Adapter) Devices() []contracts.DeviceDescriptor {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.devicesLocked()
}

// Connect opens the identified port. It reports false, without side effects,
// when the port is unknown or already connected.
func (a *Adapter) Connect(deviceID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	port, known := a.ports[deviceID]
	if !known {
		a.logger.Warn("connect requested for unknown device",
			a.logger.Field().String("device", deviceID))
		return false
	}
	if port.state == contracts.DeviceConnected {
		a.logger.Debug("device already connected",
			a.logger.Field().String("device", deviceID))
		return false
	}
	return a.openPortLocked(port)
}

// Disconnect closes the identified port. It reports false, without side
// effects, when the port is unknown or not connected.
func (a *Adapter) Disconnect(deviceID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	port, known := a.ports[deviceID]
	if !known {
		a.logger.Warn("disconnect requested for unknown device",
			a.logger.Field().String("device", deviceID))
		return false
	}
	if port.state != contracts.DeviceConnected {
		return false
	}
	if err := a.backend.Close(port.info.ID); err != nil {
		a.logger.Error("failed to close port",
			a.logger.Field().String("device", deviceID),
			a.logger.Field().Error("cause", err))
		port.state = contracts.DeviceError
		return false
	}
	port.state = contracts.DeviceDisconnected
	return true
}

// SubscribeNotes registers a callback invoked once per recognized note
// message. Messages other than NoteOn/NoteOff never reach subscribers. The
// returned function cancels the subscription.
func (a *Adapter) SubscribeNotes(fn func(contracts.NoteEvent)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextSubID
	a.nextSubID++
	a.noteSubs[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.noteSubs, id)
	}
}

// SubscribeDevices registers a callback invoked with the full device list
// whenever the port set changes (hot-plug or hot-unplug). The returned
// function cancels the subscription.
func (a *Adapter) SubscribeDevices(fn func([]contracts.DeviceDescriptor)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextSubID
	a.nextSubID++
	a.deviceSubs[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.deviceSubs, id)
	}
}

// Shutdown stops the hot-plug watcher and closes every open port.
func (a *Adapter) Shutdown() error {
	a.mu.Lock()
	if !a.initialized {
		a.mu.Unlock()
		return nil
	}
	a.initialized = false
	stop, done := a.stopWatcher, a.watcherDone
	backend := a.backend
	a.mu.Unlock()

	close(stop)
	<-done
	return backend.Shutdown()
}

// receive normalizes one raw message and fans it out. Runs on the backend's
// callback thread.
func (a *Adapter) receive(msg contracts.RawMessage) {
	event, ok := contracts.Normalize(msg)
	if !ok {
		return
	}

	a.mu.Lock()
	subs := make([]func(contracts.NoteEvent), 0, len(a.noteSubs))
	for _, fn := range a.noteSubs {
		subs = append(subs, fn)
	}
	a.mu.Unlock()

	for _, fn := range subs {
		a.deliverNote(fn, event)
	}
}

// deliverNote invokes one subscriber, recovering a panic so a misbehaving
// listener cannot block delivery to the others.
func (a *Adapter) deliverNote(fn func(contracts.NoteEvent), event contracts.NoteEvent) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("note listener panicked",
				a.logger.Field().String("panic", fmt.Sprint(r)))
		}
	}()
	fn(event)
}

func (a *Adapter) deliverDevices(fn func([]contracts.DeviceDescriptor), devices []contracts.DeviceDescriptor) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("device listener panicked",
				a.logger.Field().String("panic", fmt.Sprint(r)))
		}
	}()
	fn(devices)
}

// watch polls the backend's port set and applies hot-plug and hot-unplug
// changes, re-emitting the device list after each change.
func (a *Adapter) watch(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.options.RescanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			a.rescan()
		}
	}
}

func (a *Adapter) rescan() {
	a.mu.Lock()
	if !a.initialized {
		a.mu.Unlock()
		return
	}
	infos, err := a.backend.Ports()
	if err != nil {
		a.logger.Warn("port rescan failed", a.logger.Field().Error("cause", err))
		a.mu.Unlock()
		return
	}

	present := make(map[string]bool, len(infos))
	changed := false

	for _, info := range infos {
		present[info.ID] = true
		if _, known := a.ports[info.ID]; !known {
			a.logger.Info("MIDI device appeared", a.logger.Field().String("device", info.ID))
			a.addPortLocked(info, true)
			changed = true
		}
	}

	remaining := a.order[:0]
	for _, id := range a.order {
		if present[id] {
			remaining = append(remaining, id)
			continue
		}
		port := a.ports[id]
		a.logger.Warn("MIDI device disappeared", a.logger.Field().String("device", id))
		if port.state == contracts.DeviceConnected {
			if err := a.backend.Close(id); err != nil {
				a.logger.Debug("closing vanished port failed",
					a.logger.Field().String("device", id),
					a.logger.Field().Error("cause", err))
			}
		}
		delete(a.ports, id)
		changed = true
	}
	a.order = remaining

	var (
		devices []contracts.DeviceDescriptor
		subs    []func([]contracts.DeviceDescriptor)
	)
	if changed {
		devices = a.devicesLocked()
		subs = make([]func([]contracts.DeviceDescriptor), 0, len(a.deviceSubs))
		for _, fn := range a.deviceSubs {
			subs = append(subs, fn)
		}
	}
	a.mu.Unlock()

	for _, fn := range subs {
		a.deliverDevices(fn, devices)
	}
}

// addPortLocked records a newly discovered port and, when autoOpen is set,
// opens it immediately.
func (a *Adapter) addPortLocked(info contracts.PortInfo, autoOpen bool) {
	port := &portState{info: info, state: contracts.DeviceDisconnected}
	a.ports[info.ID] = port
	a.order = append(a.order, info.ID)
	if autoOpen {
		a.openPortLocked(port)
	}
}

func (a *Adapter) openPortLocked(port *portState) bool {
	if err := a.backend.Open(port.info.ID, a.receive); err != nil {
		a.logger.Error("failed to open port",
			a.logger.Field().String("device", port.info.ID),
			a.logger.Field().Error("cause", err))
		port.state = contracts.DeviceError
		return false
	}
	port.state = contracts.DeviceConnected
	return true
}

func (a *Adapter) devicesLocked() []contracts.DeviceDescriptor {
	devices := make([]contracts.DeviceDescriptor, 0, len(a.order))
	for _, id := range a.order {
		port := a.ports[id]
		devices = append(devices, contracts.DeviceDescriptor{
			ID:           port.info.ID,
			Name:         port.info.Name,
			Manufacturer: port.info.Manufacturer,
			State:        port.state,
		})
	}
	return devices
}
