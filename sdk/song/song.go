// Package song models practice songs: manually entered note sequences and
// sequences imported from Standard MIDI Files. A song always carries both
// the plain note list that the practice matcher consumes and the
// beat-positioned notes that the playback driver consumes, kept in step.
package song

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/whistlekit/whistlekit/sdk/contracts"
	"github.com/whistlekit/whistlekit/sdk/smf"
)

var (
	ErrEmptySequence = errors.New("song has no notes")
	ErrEmptyTitle    = errors.New("song title is empty")
	ErrNotImported   = errors.New("song has no source file")
)

// Kind distinguishes how a song's notes were produced.
type Kind string

const (
	KindManual   Kind = "manual"
	KindImported Kind = "imported"
)

// manualDurationBeats is the uniform length given to manually entered notes,
// which carry no timing of their own.
const manualDurationBeats = 1.0

// FileSource retains the original bytes of an imported file so the track
// choice can be changed later without re-uploading.
type FileSource struct {
	Data          []byte
	SelectedTrack int
	Tracks        []smf.TrackInfo
}

// Song is one practice piece.
type Song struct {
	ID       uuid.UUID
	Title    string
	Kind     Kind
	TempoBPM int

	// Notes and TimedNotes describe the same sequence: Notes[i] is
	// TimedNotes[i].Note.
	Notes      []int
	TimedNotes []contracts.TimedNote

	// File is set only for imported songs.
	File *FileSource
}

// NewManual builds a song from a hand-entered note sequence. Each note gets
// one beat, played back to back.
func NewManual(title string, notes []int, tempoBPM int) (*Song, error) {
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if len(notes) == 0 {
		return nil, ErrEmptySequence
	}
	if tempoBPM <= 0 {
		tempoBPM = smf.DefaultBPM
	}

	timed := make([]contracts.TimedNote, len(notes))
	for i, n := range notes {
		timed[i] = contracts.TimedNote{
			Note:          n,
			StartBeat:     float64(i) * manualDurationBeats,
			DurationBeats: manualDurationBeats,
		}
	}
	return &Song{
		ID:         uuid.New(),
		Title:      title,
		Kind:       KindManual,
		TempoBPM:   tempoBPM,
		Notes:      append([]int(nil), notes...),
		TimedNotes: timed,
	}, nil
}

// Import decodes a Standard MIDI File and builds a song from one of its
// tracks. The file bytes are retained so the track can be re-selected.
func Import(title string, data []byte, trackIndex int) (*Song, error) {
	if title == "" {
		return nil, ErrEmptyTitle
	}
	f, err := smf.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("import %q: %w", title, err)
	}
	ex, err := f.Extract(trackIndex)
	if err != nil {
		return nil, fmt.Errorf("import %q: %w", title, err)
	}

	s := &Song{
		ID:       uuid.New(),
		Title:    title,
		Kind:     KindImported,
		TempoBPM: ex.TempoBPM,
		File: &FileSource{
			Data:          append([]byte(nil), data...),
			SelectedTrack: trackIndex,
			Tracks:        f.Tracks,
		},
	}
	s.setExtraction(ex)
	return s, nil
}

// SelectTrack re-extracts the song's notes from a different track of the
// retained file. On error the song is unchanged.
func (s *Song) SelectTrack(trackIndex int) error {
	if s.File == nil {
		return ErrNotImported
	}
	ex, err := smf.ExtractTrack(s.File.Data, trackIndex)
	if err != nil {
		return err
	}
	s.File.SelectedTrack = trackIndex
	s.TempoBPM = ex.TempoBPM
	s.setExtraction(ex)
	return nil
}

// Rename changes the title. The empty title is rejected so stored songs
// always remain addressable by name.
func (s *Song) Rename(title string) error {
	if title == "" {
		return ErrEmptyTitle
	}
	s.Title = title
	return nil
}

func (s *Song) setExtraction(ex *smf.Extraction) {
	s.Notes = ex.Notes
	s.TimedNotes = ex.TimedNotes
}
