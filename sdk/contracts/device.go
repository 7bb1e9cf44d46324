package contracts

// DeviceState reports the lifecycle state of a MIDI input port.
type DeviceState string

const (
	// DeviceConnected means the port is open and may deliver messages.
	DeviceConnected DeviceState = "connected"
	// DeviceDisconnected means the port is known but not open.
	DeviceDisconnected DeviceState = "disconnected"
	// DeviceError means the last open/close attempt on the port failed.
	DeviceError DeviceState = "error"
)

// DeviceDescriptor describes one MIDI input port. Descriptors are created on
// enumeration and updated on hot-plug events; they are never persisted.
type DeviceDescriptor struct {
	ID           string      // Stable identifier within the current backend session.
	Name         string      // Port name as reported by the platform.
	Manufacturer string      // Manufacturer, when the platform exposes one.
	State        DeviceState // Current lifecycle state.
}
