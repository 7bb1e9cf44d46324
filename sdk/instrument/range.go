// Package instrument maps instrument selections to playable MIDI note
// ranges and resolves notes to tin-whistle fingering patterns.
package instrument

// Tag selects an instrument from the closed set the practice UI offers.
type Tag string

const (
	TagTinWhistle   Tag = "tin-whistle"
	TagFlute        Tag = "flute"
	TagViolin       Tag = "violin"
	TagGuitar       Tag = "guitar"
	TagSaxophone    Tag = "saxophone"
	TagFullKeyboard Tag = "full-keyboard"
	TagCustom       Tag = "custom"
)

// Range is an inclusive MIDI note range. Invariant: 0 <= Min <= Max <= 127.
type Range struct {
	Min int
	Max int
}

// Contains reports whether note is within the range, bounds included.
func (r Range) Contains(note int) bool {
	return note >= r.Min && note <= r.Max
}

// standardRanges holds the fixed table for the non-custom tags.
var standardRanges = map[Tag]Range{
	TagTinWhistle:   {Min: 62, Max: 86},  // D4..D6, soprano D whistle
	TagFlute:        {Min: 60, Max: 96},  // C4..C7
	TagViolin:       {Min: 55, Max: 103}, // G3..G7
	TagGuitar:       {Min: 40, Max: 88},  // E2..E6
	TagSaxophone:    {Min: 49, Max: 81},  // Db3..A5, alto
	TagFullKeyboard: {Min: 21, Max: 108}, // A0..C8
}

// StandardTags lists the non-custom tags in display order.
func StandardTags() []Tag {
	return []Tag{
		TagTinWhistle, TagFlute, TagViolin,
		TagGuitar, TagSaxophone, TagFullKeyboard,
	}
}

// RangeFor resolves an instrument tag to its note range. The custom tag
// returns the caller-supplied bounds; every tag resolves, with unrecognized
// tags treated as the full keyboard. The custom bounds are owned by the
// caller's state, not by this package.
func RangeFor(tag Tag, custom Range) Range {
	if tag == TagCustom {
		return custom
	}
	if r, ok := standardRanges[tag]; ok {
		return r
	}
	return standardRanges[TagFullKeyboard]
}
