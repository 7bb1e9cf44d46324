package contracts

// TimedNote is one note of a song with its position and length in beats.
// Sequences of TimedNote are ordered by StartBeat ascending; ties keep the
// order in which the notes were discovered.
type TimedNote struct {
	Note          int     // MIDI note number, 0..127.
	StartBeat     float64 // >= 0.
	DurationBeats float64 // > 0.
}
