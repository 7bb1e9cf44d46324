package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/whistlekit/whistlekit/sdk/song"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.sqlite3"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func manualSong(t *testing.T, title string) *song.Song {
	t.Helper()
	sg, err := song.NewManual(title, []int{62, 64, 66}, 100)
	if err != nil {
		t.Fatalf("new manual: %v", err)
	}
	return sg
}

// singleTrackFile builds a minimal one-track SMF playing note 62.
func singleTrackFile() []byte {
	track := bytes.Join([][]byte{
		{0x00, 0x90, 62, 64},
		{0x83, 0x60, 0x80, 62, 0},
		{0x00, 0xFF, 0x2F, 0x00},
	}, nil)
	var out bytes.Buffer
	out.WriteString("MThd")
	binary.Write(&out, binary.BigEndian, uint32(6))
	binary.Write(&out, binary.BigEndian, uint16(0))
	binary.Write(&out, binary.BigEndian, uint16(1))
	binary.Write(&out, binary.BigEndian, uint16(480))
	out.WriteString("MTrk")
	binary.Write(&out, binary.BigEndian, uint32(len(track)))
	out.Write(track)
	return out.Bytes()
}

func TestSaveAndGetManualSong(t *testing.T) {
	s := openTestStore(t)
	sg := manualSong(t, "Scale")

	if err := s.Save(sg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Get(sg.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.ID != sg.ID || got.Title != sg.Title || got.Kind != song.KindManual || got.TempoBPM != 100 {
		t.Fatalf("song fields changed across the store: %+v", got)
	}
	if len(got.Notes) != 3 || got.Notes[1] != 64 {
		t.Fatalf("notes changed across the store: %v", got.Notes)
	}
	for i, tn := range got.TimedNotes {
		if tn != sg.TimedNotes[i] {
			t.Fatalf("timed note %d changed: %+v != %+v", i, tn, sg.TimedNotes[i])
		}
		if tn.Note != got.Notes[i] {
			t.Fatalf("note %d: timed %d != plain %d", i, tn.Note, got.Notes[i])
		}
	}
	if got.File != nil {
		t.Fatal("manual song must have no file source")
	}
}

func TestImportedSongRoundTripsFileBytes(t *testing.T) {
	s := openTestStore(t)
	data := singleTrackFile()
	sg, err := song.Import("Tune", data, 0)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if err := s.Save(sg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Get(sg.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.File == nil {
		t.Fatal("expected a retained file source")
	}
	if !bytes.Equal(got.File.Data, data) {
		t.Fatal("file bytes must round-trip unchanged")
	}
	if got.File.SelectedTrack != 0 || len(got.File.Tracks) != 1 {
		t.Fatalf("file metadata changed: %+v", got.File)
	}

	// The loaded song still supports track re-selection.
	if err := got.SelectTrack(0); err != nil {
		t.Fatalf("select track on loaded song: %v", err)
	}
}

func TestSaveUpdatesExisting(t *testing.T) {
	s := openTestStore(t)
	sg := manualSong(t, "Scale")
	if err := s.Save(sg); err != nil {
		t.Fatalf("save: %v", err)
	}

	sg.TempoBPM = 80
	if err := s.Save(sg); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := s.Get(sg.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TempoBPM != 80 {
		t.Fatalf("expected updated tempo 80, got %d", got.TempoBPM)
	}
	all, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one stored song, got %d", len(all))
	}
}

func TestListOrdersByTitle(t *testing.T) {
	s := openTestStore(t)
	for _, title := range []string{"Waltz", "Air", "March"} {
		if err := s.Save(manualSong(t, title)); err != nil {
			t.Fatalf("save %q: %v", title, err)
		}
	}

	all, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"Air", "March", "Waltz"}
	if len(all) != len(want) {
		t.Fatalf("expected %d songs, got %d", len(want), len(all))
	}
	for i, sg := range all {
		if sg.Title != want[i] {
			t.Fatalf("position %d: expected %q, got %q", i, want[i], sg.Title)
		}
	}
}

func TestDeleteSong(t *testing.T) {
	s := openTestStore(t)
	sg := manualSong(t, "Scale")
	if err := s.Save(sg); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := s.Delete(sg.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(sg.ID); !errors.Is(err, ErrSongNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := s.Delete(sg.ID); !errors.Is(err, ErrSongNotFound) {
		t.Fatalf("expected not found for second delete, got %v", err)
	}
}

func TestRenameSong(t *testing.T) {
	s := openTestStore(t)
	sg := manualSong(t, "Scale")
	if err := s.Save(sg); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := s.Rename(sg.ID, "D Major"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, err := s.Get(sg.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "D Major" {
		t.Fatalf("expected renamed title, got %q", got.Title)
	}

	if err := s.Rename(sg.ID, ""); !errors.Is(err, song.ErrEmptyTitle) {
		t.Fatalf("expected empty title error, got %v", err)
	}
	if err := s.Rename(uuid.New(), "Ghost"); !errors.Is(err, ErrSongNotFound) {
		t.Fatalf("expected not found for unknown id, got %v", err)
	}
}

func TestGetUnknownSong(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get(uuid.New()); !errors.Is(err, ErrSongNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
