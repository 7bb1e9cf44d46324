package smf

import (
	"fmt"
	"sort"

	"github.com/whistlekit/whistlekit/sdk/contracts"
)

// Extract re-walks one track and converts it to a beat-positioned note
// sequence. Each NoteOn is paired with a NoteOff of the same note number;
// when NoteOns for one pitch overlap, the most recent unmatched NoteOn wins
// the pairing and the earlier one keeps the fallback duration. This does not
// handle overlapping same-pitch notes robustly; see the package tests for
// the exact behavior.
func (f *File) Extract(trackIndex int) (*Extraction, error) {
	if trackIndex < 0 || trackIndex >= len(f.tracks) {
		return nil, fmt.Errorf("%w: track %d of %d", ErrTrackIndexOutOfRange, trackIndex, len(f.tracks))
	}

	tpb := float64(f.TicksPerBeat)
	t := &f.tracks[trackIndex]

	timed := make([]contracts.TimedNote, 0, len(t.events)/2)
	// Note number -> index in timed of the last unmatched NoteOn.
	open := make(map[int]int)

	for _, ev := range t.events {
		if ev.status == 0xFF {
			continue
		}
		note := int(ev.data1)
		switch kind := ev.status & 0xF0; {
		case kind == 0x90 && ev.data2 > 0:
			timed = append(timed, contracts.TimedNote{
				Note:      note,
				StartBeat: float64(ev.tick) / tpb,
			})
			open[note] = len(timed) - 1

		case kind == 0x80 || kind == 0x90: // NoteOff, or velocity-0 NoteOn.
			i, ok := open[note]
			if !ok {
				continue
			}
			d := float64(ev.tick)/tpb - timed[i].StartBeat
			if d <= 0 {
				d = fallbackDurationBeats
			}
			timed[i].DurationBeats = d
			delete(open, note)
		}
	}

	// Unterminated NoteOns keep a fixed fallback duration rather than being
	// dropped.
	for _, i := range open {
		timed[i].DurationBeats = fallbackDurationBeats
	}

	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].StartBeat < timed[j].StartBeat
	})

	notes := make([]int, len(timed))
	for i, n := range timed {
		notes[i] = n.Note
	}
	return &Extraction{
		Notes:      notes,
		TempoBPM:   f.FirstTempoBPM(),
		TimedNotes: timed,
	}, nil
}

// ExtractTrack decodes the byte stream and extracts the given track in one
// call.
func ExtractTrack(data []byte, trackIndex int) (*Extraction, error) {
	f, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return f.Extract(trackIndex)
}
