package contracts

import "time"

// NoteKind distinguishes the two normalized note event variants. Downstream
// components only ever see these two; raw status bytes stop at the transport
// and decoder boundaries.
type NoteKind int

const (
	// NoteOn means a pitch started sounding.
	NoteOn NoteKind = iota
	// NoteOff means a pitch stopped sounding.
	NoteOff
)

// Raw MIDI channel-message status nibbles recognized by the toolkit.
const (
	StatusNoteOff byte = 0x80
	StatusNoteOn  byte = 0x90
)

// NoteEvent is a normalized note message produced from a raw 3-byte MIDI
// channel message. A NoteOn with velocity 0 is reported as a NoteOff.
// Events are ephemeral and never stored.
type NoteEvent struct {
	Kind      NoteKind
	Note      int // MIDI note number, 0..127.
	Velocity  int // 0..127.
	Timestamp time.Time
}

// RawMessage is an unparsed 3-byte MIDI channel message captured by a
// platform backend, stamped at receive time.
type RawMessage struct {
	Status    byte
	Data1     byte
	Data2     byte
	Timestamp time.Time
}

// Normalize maps a raw channel message to a NoteEvent. Status high nibble
// 0x9 with velocity > 0 is NoteOn; 0x8, or 0x9 with velocity 0, is NoteOff.
// Every other message type (aftertouch, control change, pitch bend, sysex)
// returns ok == false and must be dropped by the caller.
func Normalize(msg RawMessage) (NoteEvent, bool) {
	ev := NoteEvent{
		Note:      int(msg.Data1 & 0x7F),
		Velocity:  int(msg.Data2 & 0x7F),
		Timestamp: msg.Timestamp,
	}
	switch msg.Status & 0xF0 {
	case StatusNoteOn:
		if ev.Velocity == 0 {
			ev.Kind = NoteOff
			return ev, true
		}
		ev.Kind = NoteOn
		return ev, true
	case StatusNoteOff:
		ev.Kind = NoteOff
		return ev, true
	}
	return NoteEvent{}, false
}
