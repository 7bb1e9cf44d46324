//go:build windows
// +build windows

package winmm

import (
	"errors"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/whistlekit/whistlekit/sdk/contracts"
)

// HMIDIIN is a winmm MIDI input device handle.
type HMIDIIN windows.Handle

// Callback flags for midiInOpen.
const (
	callbackFunction = 0x00030000
	midiIOStatus     = 0x00000020
)

// winmm input callback message types.
const (
	mimOpen      = 0x3C1
	mimClose     = 0x3C2
	mimData      = 0x3C3
	mimError     = 0x3C5
	mimLongError = 0x3C6
	mimMoreData  = 0x3CC
)

// midiInCaps mirrors the MIDIINCAPSW structure.
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

var (
	winmmDLL             = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs = winmmDLL.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps = winmmDLL.NewProc("midiInGetDevCapsW")
	procMidiInOpen       = winmmDLL.NewProc("midiInOpen")
	procMidiInStart      = winmmDLL.NewProc("midiInStart")
	procMidiInStop       = winmmDLL.NewProc("midiInStop")
	procMidiInClose      = winmmDLL.NewProc("midiInClose")
)

// Error definitions for the winmm backend.
var (
	ErrPortNotFound    = errors.New("MIDI input device not found")
	ErrPortAlreadyOpen = errors.New("MIDI input device already open")
	ErrPortNotOpen     = errors.New("MIDI input device not open")
)

// Backend moves raw MIDI bytes on Windows via the winmm multimedia API.
// Each open device gets its own handle; the shared callback dispatches by
// handle to the device's receive function.
type Backend struct {
	logger   contracts.Logger
	callback uintptr

	mu      sync.Mutex
	open    map[string]*openDevice  // port ID -> device
	handles map[HMIDIIN]*openDevice // winmm handle -> device
}

type openDevice struct {
	id      string
	handle  HMIDIIN
	receive func(contracts.RawMessage)
}

// backendRegistry lets the C callback find its Backend. winmm gives us one
// instance pointer per midiInOpen call; we pass the Backend pointer and keep
// it alive here so the callback can cast it safely.
var (
	registryMu sync.Mutex
	registry   = map[*Backend]struct{}{}
)

// New creates the winmm backend.
func New(options *contracts.TransportOptions) (contracts.Backend, error) {
	b := &Backend{
		logger:  options.Logger,
		open:    make(map[string]*openDevice),
		handles: make(map[HMIDIIN]*openDevice),
	}
	b.callback = windows.NewCallback(midiInCallback)

	registryMu.Lock()
	registry[b] = struct{}{}
	registryMu.Unlock()

	options.Logger.Info("winmm backend created")
	return b, nil
}

// Ports enumerates the winmm input devices. Ports are identified by their
// device name; duplicate names get an index suffix to stay addressable.
func (b *Backend) Ports() ([]contracts.PortInfo, error) {
	r0, _, _ := procMidiInGetNumDevs.Call()
	numDevices := uint32(r0)

	ports := make([]contracts.PortInfo, 0, numDevices)
	seen := make(map[string]int, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			b.logger.Warn("failed to query MIDI device capabilities",
				b.logger.Field().Int("device", int(i)))
			continue
		}
		name := windows.UTF16ToString(caps.szPname[:])
		id := name
		if n := seen[name]; n > 0 {
			id = fmt.Sprintf("%s #%d", name, n+1)
		}
		seen[name]++
		ports = append(ports, contracts.PortInfo{
			ID:           id,
			Name:         name,
			Manufacturer: fmt.Sprintf("MID %d PID %d", caps.wMid, caps.wPid),
		})
	}
	return ports, nil
}

// Open opens the named device and starts input on it.
func (b *Backend) Open(portID string, receive func(contracts.RawMessage)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.open[portID]; exists {
		return fmt.Errorf("%w: %s", ErrPortAlreadyOpen, portID)
	}

	index, err := b.deviceIndex(portID)
	if err != nil {
		return err
	}

	dev := &openDevice{id: portID, receive: receive}
	r1, _, callErr := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&dev.handle)),
		uintptr(index),
		b.callback,
		uintptr(unsafe.Pointer(b)),
		uintptr(callbackFunction|midiIOStatus),
	)
	if r1 != 0 {
		return fmt.Errorf("failed to open MIDI device %q: %v", portID, callErr)
	}

	if r1, _, callErr = procMidiInStart.Call(uintptr(dev.handle)); r1 != 0 {
		procMidiInClose.Call(uintptr(dev.handle))
		return fmt.Errorf("failed to start MIDI input on %q: %v", portID, callErr)
	}

	b.open[portID] = dev
	b.handles[dev.handle] = dev
	b.logger.Debug("winmm device opened", b.logger.Field().String("port", portID))
	return nil
}

// Close stops input on the named device and releases its handle.
func (b *Backend) Close(portID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeLocked(portID)
}

// Shutdown closes every open device.
func (b *Backend) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error
	for id := range b.open {
		if err := b.closeLocked(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	registryMu.Lock()
	delete(registry, b)
	registryMu.Unlock()
	return firstErr
}

func (b *Backend) closeLocked(portID string) error {
	dev, exists := b.open[portID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrPortNotOpen, portID)
	}

	if r1, _, callErr := procMidiInStop.Call(uintptr(dev.handle)); r1 != 0 {
		b.logger.Error("failed to stop MIDI input",
			b.logger.Field().String("port", portID),
			b.logger.Field().String("cause", fmt.Sprint(callErr)))
	}
	if r1, _, callErr := procMidiInClose.Call(uintptr(dev.handle)); r1 != 0 {
		return fmt.Errorf("failed to close MIDI device %q: %v", portID, callErr)
	}

	delete(b.handles, dev.handle)
	delete(b.open, portID)
	b.logger.Debug("winmm device closed", b.logger.Field().String("port", portID))
	return nil
}

// deviceIndex resolves a port ID back to its winmm device index.
func (b *Backend) deviceIndex(portID string) (uint32, error) {
	ports, err := b.Ports()
	if err != nil {
		return 0, err
	}
	for i, p := range ports {
		if p.ID == portID {
			return uint32(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrPortNotFound, portID)
}

// midiInCallback processes incoming winmm messages. Runs on the winmm
// callback thread.
func midiInCallback(hMidiIn uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	b := (*Backend)(unsafe.Pointer(dwInstance))

	registryMu.Lock()
	_, alive := registry[b]
	registryMu.Unlock()
	if !alive {
		return 0
	}

	switch wMsg {
	case mimData:
		b.mu.Lock()
		dev := b.handles[HMIDIIN(hMidiIn)]
		b.mu.Unlock()
		if dev == nil {
			return 0
		}
		dev.receive(contracts.RawMessage{
			Status:    byte(dwParam1 & 0xFF),
			Data1:     byte((dwParam1 >> 8) & 0xFF),
			Data2:     byte((dwParam1 >> 16) & 0xFF),
			Timestamp: time.Now(),
		})
	case mimError, mimLongError:
		b.logger.Error("winmm input error",
			b.logger.Field().Int("msg", int(wMsg)))
	case mimOpen, mimClose, mimMoreData:
		// Lifecycle notifications, nothing to deliver.
	}
	return 0
}
