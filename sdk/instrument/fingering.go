package instrument

// Holes is the number of finger holes on a tin whistle.
const Holes = 6

// Fingering is one hole pattern, top hole first; true means covered.
type Fingering [Holes]bool

// tinWhistleFingerings is the chart for a soprano D whistle. Entries are
// explicit per note because real whistle charts are irregular: accidentals
// are cross-fingered, not derived, and some (half-holed Eb/F) have no
// reliable pattern and are deliberately absent.
var tinWhistleFingerings = map[int]Fingering{
	62: {true, true, true, true, true, true},    // D4
	64: {true, true, true, true, true, false},   // E4
	66: {true, true, true, true, false, false},  // F#4
	67: {true, true, true, false, false, false}, // G4
	68: {true, true, false, true, true, true},   // G#4, cross-fingered
	69: {true, true, false, false, false, false},   // A4
	70: {true, false, true, false, false, false},   // Bb4, cross-fingered
	71: {true, false, false, false, false, false},  // B4
	72: {false, true, true, false, false, false},   // C5, cross-fingered
	73: {false, false, false, false, false, false}, // C#5
	74: {false, true, true, true, true, true},   // D5, second octave
	76: {true, true, true, true, true, false},   // E5
	78: {true, true, true, true, false, false},  // F#5
	79: {true, true, true, false, false, false}, // G5
	81: {true, true, false, false, false, false},   // A5
	82: {true, false, true, false, false, false},   // Bb5, cross-fingered
	83: {true, false, false, false, false, false},  // B5
	84: {false, true, true, false, false, false},   // C6, cross-fingered
	85: {false, false, false, false, false, false}, // C#6
	86: {true, true, true, true, true, true},    // D6
}

// String renders the pattern top hole first: ● covered, ○ open.
func (f Fingering) String() string {
	out := make([]rune, Holes)
	for i, covered := range f {
		if covered {
			out[i] = '●'
		} else {
			out[i] = '○'
		}
	}
	return string(out)
}

// FingeringFor looks up the hole pattern for a MIDI note. ok is false for
// notes outside the chart; callers render that as "outside supported range"
// rather than guessing a fingering.
func FingeringFor(note int) (Fingering, bool) {
	f, ok := tinWhistleFingerings[note]
	return f, ok
}
