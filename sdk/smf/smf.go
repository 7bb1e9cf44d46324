// Package smf decodes Standard MIDI Files into tracks, a tempo map, and
// per-track note summaries, and extracts single tracks as timed note
// sequences for practice and playback.
package smf

import (
	"errors"

	"github.com/whistlekit/whistlekit/sdk/contracts"
)

// ErrTrackIndexOutOfRange is returned when a track index is requested beyond
// the parsed track count. The parsed file remains usable.
var ErrTrackIndexOutOfRange = errors.New("track index out of range")

// Default tempo applied when a file carries no tempo meta-event.
const DefaultBPM = 120

// A NoteOn left without a matching NoteOff by end-of-track keeps this
// duration instead of being dropped, so every sounded note appears in the
// output.
const fallbackDurationBeats = 0.5

// TempoChange is one entry of a file's tempo map.
type TempoChange struct {
	Tick int // Absolute tick of the tempo meta-event.
	BPM  int // round(60_000_000 / microsecondsPerBeat).
}

// NoteRange is the inclusive min/max note observed in a track.
type NoteRange struct {
	Min int
	Max int
}

// TrackInfo is a derived, read-only summary of one track, used to let the
// user pick which track to practice.
type TrackInfo struct {
	TrackIndex     int    `json:"trackIndex"`
	TrackName      string `json:"trackName,omitempty"`
	Channels       []int  `json:"channels"` // Sorted ascending.
	Programs       []int  `json:"programs"` // Program-change values, sorted ascending.
	NoteCount      int    `json:"noteCount"`
	NoteRange      NoteRange `json:"noteRange"`
	InstrumentName string `json:"instrumentName,omitempty"` // GM name of the first program change.
}

// Extraction is the result of extracting one track: the plain note list, the
// file's leading tempo, and the beat-positioned notes. Notes[i] and
// TimedNotes[i] describe the same note.
type Extraction struct {
	Notes      []int
	TempoBPM   int
	TimedNotes []contracts.TimedNote
}

// File is a decoded Standard MIDI File.
type File struct {
	Format       int // 0, 1 or 2 per the MThd chunk.
	TicksPerBeat int
	Tracks       []TrackInfo
	TempoMap     []TempoChange // Never empty; defaults to {0, DefaultBPM}.

	tracks []track
}

// track holds the event stream of one MTrk chunk with absolute tick times.
type track struct {
	events  []event
	endTick int // Highest cumulative delta-time in the track.
}

// event is one channel or meta event at an absolute tick.
type event struct {
	tick     int
	status   byte // Channel status byte, or 0xFF for meta events.
	data1    byte
	data2    byte
	metaType byte
	metaData []byte
}

// TrackCount returns the number of tracks in the file.
func (f *File) TrackCount() int {
	return len(f.tracks)
}

// FirstTempoBPM returns the BPM of the first tempo map entry.
func (f *File) FirstTempoBPM() int {
	return f.TempoMap[0].BPM
}

// DurationSeconds estimates the file's playing time from the longest track
// and the leading tempo.
func (f *File) DurationSeconds() float64 {
	totalTicks := 0
	for _, t := range f.tracks {
		if t.endTick > totalTicks {
			totalTicks = t.endTick
		}
	}
	beats := float64(totalTicks) / float64(f.TicksPerBeat)
	return beats * 60.0 / float64(f.FirstTempoBPM())
}
