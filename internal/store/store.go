// Package store persists practice songs to a local SQLite database. Note
// sequences and track summaries are stored as JSON columns; imported file
// bytes are stored base64-encoded so a loaded song round-trips byte for
// byte.
package store

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/whistlekit/whistlekit/sdk/contracts"
	"github.com/whistlekit/whistlekit/sdk/smf"
	"github.com/whistlekit/whistlekit/sdk/song"
)

const DefaultDBFile = "whistlekit.sqlite3"

var ErrSongNotFound = errors.New("song not found")

// songRecord is the persisted shape of a song.
type songRecord struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	Title         string `gorm:"uniqueIndex:idx_song_title"`
	Kind          string
	TempoBPM      int
	NotesJSON     string // []contracts.TimedNote
	FileData      string // base64 of the imported file, empty for manual songs
	SelectedTrack int
	TracksJSON    string // []smf.TrackInfo
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (songRecord) TableName() string { return "songs" }

// Store is a SQLite-backed song library.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the database at the given path and migrates the
// schema.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	if err := db.AutoMigrate(&songRecord{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save inserts or updates a song by id.
func (s *Store) Save(sg *song.Song) error {
	rec, err := encodeSong(sg)
	if err != nil {
		return err
	}
	if err := s.db.Save(rec).Error; err != nil {
		return fmt.Errorf("saving song %q: %w", sg.Title, err)
	}
	return nil
}

// Get loads one song by id.
func (s *Store) Get(id uuid.UUID) (*song.Song, error) {
	var rec songRecord
	err := s.db.First(&rec, "id = ?", id.String()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSongNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading song %s: %w", id, err)
	}
	return decodeSong(&rec)
}

// List returns all songs ordered by title.
func (s *Store) List() ([]*song.Song, error) {
	var recs []songRecord
	if err := s.db.Order("title").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing songs: %w", err)
	}
	out := make([]*song.Song, 0, len(recs))
	for i := range recs {
		sg, err := decodeSong(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, sg)
	}
	return out, nil
}

// Delete removes a song. Deleting an unknown id reports ErrSongNotFound.
func (s *Store) Delete(id uuid.UUID) error {
	res := s.db.Delete(&songRecord{}, "id = ?", id.String())
	if res.Error != nil {
		return fmt.Errorf("deleting song %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrSongNotFound, id)
	}
	return nil
}

// Rename updates a stored song's title in place.
func (s *Store) Rename(id uuid.UUID, title string) error {
	if title == "" {
		return song.ErrEmptyTitle
	}
	res := s.db.Model(&songRecord{}).Where("id = ?", id.String()).Update("title", title)
	if res.Error != nil {
		return fmt.Errorf("renaming song %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrSongNotFound, id)
	}
	return nil
}

func encodeSong(sg *song.Song) (*songRecord, error) {
	notes, err := json.Marshal(sg.TimedNotes)
	if err != nil {
		return nil, fmt.Errorf("encoding notes: %w", err)
	}
	rec := &songRecord{
		ID:        sg.ID.String(),
		Title:     sg.Title,
		Kind:      string(sg.Kind),
		TempoBPM:  sg.TempoBPM,
		NotesJSON: string(notes),
	}
	if sg.File != nil {
		tracks, err := json.Marshal(sg.File.Tracks)
		if err != nil {
			return nil, fmt.Errorf("encoding track summaries: %w", err)
		}
		rec.FileData = base64.StdEncoding.EncodeToString(sg.File.Data)
		rec.SelectedTrack = sg.File.SelectedTrack
		rec.TracksJSON = string(tracks)
	}
	return rec, nil
}

func decodeSong(rec *songRecord) (*song.Song, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("song %q has invalid id %q: %w", rec.Title, rec.ID, err)
	}
	var timed []contracts.TimedNote
	if err := json.Unmarshal([]byte(rec.NotesJSON), &timed); err != nil {
		return nil, fmt.Errorf("decoding notes of %q: %w", rec.Title, err)
	}
	notes := make([]int, len(timed))
	for i, tn := range timed {
		notes[i] = tn.Note
	}

	sg := &song.Song{
		ID:         id,
		Title:      rec.Title,
		Kind:       song.Kind(rec.Kind),
		TempoBPM:   rec.TempoBPM,
		Notes:      notes,
		TimedNotes: timed,
	}
	if rec.FileData != "" {
		data, err := base64.StdEncoding.DecodeString(rec.FileData)
		if err != nil {
			return nil, fmt.Errorf("decoding file of %q: %w", rec.Title, err)
		}
		var tracks []smf.TrackInfo
		if rec.TracksJSON != "" {
			if err := json.Unmarshal([]byte(rec.TracksJSON), &tracks); err != nil {
				return nil, fmt.Errorf("decoding track summaries of %q: %w", rec.Title, err)
			}
		}
		sg.File = &song.FileSource{
			Data:          data,
			SelectedTrack: rec.SelectedTrack,
			Tracks:        tracks,
		}
	}
	return sg, nil
}
