package smf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// Meta-event types the decoder interprets. Everything else is retained as
// opaque bytes and ignored.
const (
	metaTrackName  = 0x03
	metaEndOfTrack = 0x2F
	metaSetTempo   = 0x51
)

// header mirrors the MThd chunk layout.
type header struct {
	ChunkType  [4]byte
	ChunkSize  uint32
	Format     uint16
	TrackCount uint16
	Division   uint16
}

// Decode parses a Standard MIDI File byte stream. It fails with a
// descriptive error when the stream is not a valid SMF container; a failed
// decode produces no partial result.
func Decode(data []byte) (*File, error) {
	r := bytes.NewReader(data)

	var h header
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, fmt.Errorf("failed reading SMF header: %w", err)
	}
	if string(h.ChunkType[:]) != "MThd" {
		return nil, fmt.Errorf("not a Standard MIDI File: leading chunk %q", string(h.ChunkType[:]))
	}
	if h.ChunkSize < 6 {
		return nil, fmt.Errorf("invalid MThd chunk size %d", h.ChunkSize)
	}
	// Tolerate an oversized header by skipping the extra bytes.
	if h.ChunkSize > 6 {
		if _, err := r.Seek(int64(h.ChunkSize-6), io.SeekCurrent); err != nil {
			return nil, fmt.Errorf("truncated MThd chunk: %w", err)
		}
	}
	if h.Division&0x8000 != 0 {
		return nil, fmt.Errorf("SMPTE time division (0x%04x) is not supported", h.Division)
	}
	if h.Division == 0 {
		return nil, fmt.Errorf("invalid time division 0")
	}

	f := &File{
		Format:       int(h.Format),
		TicksPerBeat: int(h.Division),
		tracks:       make([]track, h.TrackCount),
	}
	for i := range f.tracks {
		t, err := parseTrack(r)
		if err != nil {
			return nil, fmt.Errorf("failed parsing track %d: %w", i, err)
		}
		f.tracks[i] = *t
	}

	f.TempoMap = buildTempoMap(f.tracks)
	f.Tracks = make([]TrackInfo, len(f.tracks))
	for i := range f.tracks {
		f.Tracks[i] = summarizeTrack(i, &f.tracks[i])
	}
	return f, nil
}

// parseTrack reads one MTrk chunk, converting delta-times to absolute ticks.
func parseTrack(r *bytes.Reader) (*track, error) {
	var chunkType [4]byte
	if err := binary.Read(r, binary.BigEndian, &chunkType); err != nil {
		return nil, fmt.Errorf("failed reading chunk type: %w", err)
	}
	if string(chunkType[:]) != "MTrk" {
		return nil, fmt.Errorf("bad chunk type for track: %q", string(chunkType[:]))
	}
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("failed reading track length: %w", err)
	}

	// A track's data must fit within its stated length.
	lr := &io.LimitedReader{R: r, N: int64(length)}
	t := &track{events: make([]event, 0, length/3)}

	tick := 0
	runningStatus := byte(0)
	for i := 0; ; i++ {
		delta, err := readVarInt(lr)
		if err != nil {
			if err == io.EOF {
				break // Track consumed exactly; done.
			}
			return nil, fmt.Errorf("failed reading delta-time for event %d: %w", i, err)
		}
		tick += int(delta)
		if tick > t.endTick {
			t.endTick = tick
		}

		ev, err := readEvent(lr, tick, &runningStatus)
		if err != nil {
			return nil, fmt.Errorf("failed reading event %d: %w", i, err)
		}
		if ev != nil {
			t.events = append(t.events, *ev)
		}
	}
	return t, nil
}

// readEvent reads one event body. It returns nil for events the decoder
// skips entirely (sysex payloads).
func readEvent(r io.Reader, tick int, runningStatus *byte) (*event, error) {
	first, err := readByte(r)
	if err != nil {
		return nil, err
	}

	switch {
	case first == 0xFF:
		return readMetaEvent(r, tick)

	case first == 0xF0 || first == 0xF7:
		// System-exclusive: skip the payload, deliver nothing.
		length, err := readVarInt(r)
		if err != nil {
			return nil, fmt.Errorf("bad sysex length: %w", err)
		}
		if err := skipBytes(r, int(length)); err != nil {
			return nil, fmt.Errorf("truncated sysex event: %w", err)
		}
		return nil, nil

	case first >= 0x80:
		*runningStatus = first
		return readChannelEvent(r, tick, first, -1)

	default:
		// Data byte under running status.
		if *runningStatus == 0 {
			return nil, fmt.Errorf("data byte 0x%02x with no running status", first)
		}
		return readChannelEvent(r, tick, *runningStatus, int(first))
	}
}

func readMetaEvent(r io.Reader, tick int) (*event, error) {
	metaType, err := readByte(r)
	if err != nil {
		return nil, fmt.Errorf("bad meta event type: %w", err)
	}
	length, err := readVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("bad meta event length: %w", err)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("truncated meta event 0x%02x: %w", metaType, err)
	}
	return &event{tick: tick, status: 0xFF, metaType: metaType, metaData: data}, nil
}

// readChannelEvent reads the data bytes of a channel message. firstData is
// the already-consumed data byte under running status, or -1.
func readChannelEvent(r io.Reader, tick int, status byte, firstData int) (*event, error) {
	ev := &event{tick: tick, status: status}

	if firstData >= 0 {
		ev.data1 = byte(firstData)
	} else {
		b, err := readByte(r)
		if err != nil {
			return nil, fmt.Errorf("truncated channel event 0x%02x: %w", status, err)
		}
		ev.data1 = b
	}

	// Program change and channel pressure carry a single data byte.
	if kind := status & 0xF0; kind != 0xC0 && kind != 0xD0 {
		b, err := readByte(r)
		if err != nil {
			return nil, fmt.Errorf("truncated channel event 0x%02x: %w", status, err)
		}
		ev.data2 = b
	}
	return ev, nil
}

// buildTempoMap scans every track for tempo meta-events, converting
// microseconds-per-beat to BPM. Entries are ordered by tick; a file without
// tempo events gets the single default entry.
func buildTempoMap(tracks []track) []TempoChange {
	var changes []TempoChange
	for _, t := range tracks {
		for _, ev := range t.events {
			if ev.status != 0xFF || ev.metaType != metaSetTempo || len(ev.metaData) != 3 {
				continue
			}
			usPerBeat := int(ev.metaData[0])<<16 | int(ev.metaData[1])<<8 | int(ev.metaData[2])
			if usPerBeat == 0 {
				continue
			}
			bpm := int(float64(60_000_000)/float64(usPerBeat) + 0.5)
			changes = append(changes, TempoChange{Tick: ev.tick, BPM: bpm})
		}
	}
	if len(changes) == 0 {
		return []TempoChange{{Tick: 0, BPM: DefaultBPM}}
	}
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].Tick < changes[j].Tick })
	return changes
}

// summarizeTrack derives the read-only TrackInfo for one track.
func summarizeTrack(index int, t *track) TrackInfo {
	info := TrackInfo{TrackIndex: index}

	channels := make(map[int]bool)
	programs := make(map[int]bool)
	firstProgram := -1
	noteRange := NoteRange{Min: -1, Max: -1}

	for _, ev := range t.events {
		if ev.status == 0xFF {
			if ev.metaType == metaTrackName && info.TrackName == "" {
				info.TrackName = string(ev.metaData)
			}
			continue
		}
		channels[int(ev.status&0x0F)] = true

		switch ev.status & 0xF0 {
		case 0xC0:
			program := int(ev.data1)
			programs[program] = true
			if firstProgram < 0 {
				firstProgram = program
			}
		case 0x90:
			if ev.data2 == 0 {
				continue // Velocity-0 NoteOn is a NoteOff.
			}
			info.NoteCount++
			note := int(ev.data1)
			if noteRange.Min < 0 || note < noteRange.Min {
				noteRange.Min = note
			}
			if note > noteRange.Max {
				noteRange.Max = note
			}
		}
	}

	info.Channels = sortedKeys(channels)
	info.Programs = sortedKeys(programs)
	if noteRange.Min >= 0 {
		info.NoteRange = noteRange
	}
	if firstProgram >= 0 && firstProgram < len(gmProgramNames) {
		info.InstrumentName = gmProgramNames[firstProgram]
	}
	return info
}

func sortedKeys(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// readVarInt reads a MIDI variable-length quantity (up to four bytes, seven
// payload bits each).
func readVarInt(r io.Reader) (uint32, error) {
	var value uint32
	for i := 0; i < 4; i++ {
		b, err := readByte(r)
		if err != nil {
			if i > 0 && err == io.EOF {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
		value = value<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return value, nil
		}
	}
	return 0, fmt.Errorf("variable-length quantity exceeds four bytes")
}

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := r.Read(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func skipBytes(r io.Reader, n int) error {
	_, err := io.CopyN(io.Discard, r, int64(n))
	return err
}
