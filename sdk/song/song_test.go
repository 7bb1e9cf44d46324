package song

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/whistlekit/whistlekit/sdk/smf"
)

// buildTwoTrackFile produces a format-1 file: track 0 plays 62 then 64,
// track 1 plays 74. 480 ticks per beat, 100 BPM.
func buildTwoTrackFile() []byte {
	track0 := bytes.Join([][]byte{
		{0x00, 0xFF, 0x51, 0x03, 0x09, 0x27, 0xC0}, // 600000 us/beat = 100 BPM
		{0x00, 0x90, 62, 64},
		{0x83, 0x60, 0x80, 62, 0}, // delta 480
		{0x00, 0x90, 64, 64},
		{0x83, 0x60, 0x80, 64, 0},
		{0x00, 0xFF, 0x2F, 0x00},
	}, nil)
	track1 := bytes.Join([][]byte{
		{0x00, 0x90, 74, 64},
		{0x83, 0x60, 0x80, 74, 0},
		{0x00, 0xFF, 0x2F, 0x00},
	}, nil)

	var out bytes.Buffer
	out.WriteString("MThd")
	binary.Write(&out, binary.BigEndian, uint32(6))
	binary.Write(&out, binary.BigEndian, uint16(1)) // format
	binary.Write(&out, binary.BigEndian, uint16(2)) // track count
	binary.Write(&out, binary.BigEndian, uint16(480))
	for _, tr := range [][]byte{track0, track1} {
		out.WriteString("MTrk")
		binary.Write(&out, binary.BigEndian, uint32(len(tr)))
		out.Write(tr)
	}
	return out.Bytes()
}

func TestNewManualSong(t *testing.T) {
	s, err := NewManual("Scale", []int{62, 64, 65}, 90)
	if err != nil {
		t.Fatalf("new manual failed: %v", err)
	}
	if s.Kind != KindManual || s.TempoBPM != 90 || s.File != nil {
		t.Fatalf("unexpected song shape: %+v", s)
	}
	if s.ID == uuid.Nil {
		t.Fatal("expected a generated id")
	}
	if len(s.TimedNotes) != 3 {
		t.Fatalf("expected 3 timed notes, got %d", len(s.TimedNotes))
	}
	for i, tn := range s.TimedNotes {
		if tn.Note != s.Notes[i] {
			t.Fatalf("note %d: timed %d != plain %d", i, tn.Note, s.Notes[i])
		}
		if tn.StartBeat != float64(i) || tn.DurationBeats != 1 {
			t.Fatalf("note %d: expected one beat at %d, got %+v", i, i, tn)
		}
	}
}

func TestNewManualDefaultsTempo(t *testing.T) {
	s, err := NewManual("Scale", []int{62}, 0)
	if err != nil {
		t.Fatalf("new manual failed: %v", err)
	}
	if s.TempoBPM != 120 {
		t.Fatalf("expected default tempo 120, got %d", s.TempoBPM)
	}
}

func TestNewManualRejectsInvalid(t *testing.T) {
	if _, err := NewManual("", []int{62}, 120); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected empty title error, got %v", err)
	}
	if _, err := NewManual("Scale", nil, 120); !errors.Is(err, ErrEmptySequence) {
		t.Fatalf("expected empty sequence error, got %v", err)
	}
}

func TestImportSong(t *testing.T) {
	data := buildTwoTrackFile()
	s, err := Import("Tune", data, 0)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if s.Kind != KindImported || s.File == nil {
		t.Fatal("expected an imported song with a retained file")
	}
	if s.TempoBPM != 100 {
		t.Fatalf("expected 100 BPM from the file, got %d", s.TempoBPM)
	}
	if want := []int{62, 64}; len(s.Notes) != 2 || s.Notes[0] != want[0] || s.Notes[1] != want[1] {
		t.Fatalf("expected notes %v, got %v", want, s.Notes)
	}
	if !bytes.Equal(s.File.Data, data) {
		t.Fatal("imported file bytes must be retained unchanged")
	}
	if len(s.File.Tracks) != 2 || s.File.SelectedTrack != 0 {
		t.Fatalf("expected 2 track summaries with track 0 selected, got %+v", s.File)
	}
}

func TestImportRejectsBadTrack(t *testing.T) {
	if _, err := Import("Tune", buildTwoTrackFile(), 5); !errors.Is(err, smf.ErrTrackIndexOutOfRange) {
		t.Fatalf("expected track range error, got %v", err)
	}
	if _, err := Import("Tune", []byte("not a midi file"), 0); err == nil {
		t.Fatal("expected decode error for garbage input")
	}
}

func TestSelectTrackReExtracts(t *testing.T) {
	s, err := Import("Tune", buildTwoTrackFile(), 0)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if err := s.SelectTrack(1); err != nil {
		t.Fatalf("select track failed: %v", err)
	}
	if s.File.SelectedTrack != 1 {
		t.Fatalf("expected selected track 1, got %d", s.File.SelectedTrack)
	}
	if len(s.Notes) != 1 || s.Notes[0] != 74 {
		t.Fatalf("expected re-extracted notes [74], got %v", s.Notes)
	}

	// A bad index leaves the song untouched.
	if err := s.SelectTrack(9); !errors.Is(err, smf.ErrTrackIndexOutOfRange) {
		t.Fatalf("expected track range error, got %v", err)
	}
	if s.File.SelectedTrack != 1 || s.Notes[0] != 74 {
		t.Fatal("failed selection must not modify the song")
	}
}

func TestSelectTrackOnManualSong(t *testing.T) {
	s, err := NewManual("Scale", []int{62}, 120)
	if err != nil {
		t.Fatalf("new manual failed: %v", err)
	}
	if err := s.SelectTrack(0); !errors.Is(err, ErrNotImported) {
		t.Fatalf("expected not-imported error, got %v", err)
	}
}

func TestRename(t *testing.T) {
	s, err := NewManual("Scale", []int{62}, 120)
	if err != nil {
		t.Fatalf("new manual failed: %v", err)
	}
	if err := s.Rename(""); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected empty title error, got %v", err)
	}
	if err := s.Rename("D Major Scale"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if s.Title != "D Major Scale" {
		t.Fatalf("expected renamed title, got %q", s.Title)
	}
}
