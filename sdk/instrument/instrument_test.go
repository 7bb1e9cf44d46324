package instrument

import "testing"

func TestStandardRangeBoundsAreMembers(t *testing.T) {
	for _, tag := range StandardTags() {
		r := RangeFor(tag, Range{})
		if r.Min > r.Max {
			t.Errorf("%s: min %d > max %d", tag, r.Min, r.Max)
		}
		if !r.Contains(r.Min) || !r.Contains(r.Max) {
			t.Errorf("%s: bounds must be inclusive members", tag)
		}
		if r.Min > 0 && r.Contains(r.Min-1) {
			t.Errorf("%s: note below min accepted", tag)
		}
		if r.Max < 127 && r.Contains(r.Max+1) {
			t.Errorf("%s: note above max accepted", tag)
		}
	}
}

func TestCustomRangeUsesCallerBounds(t *testing.T) {
	r := RangeFor(TagCustom, Range{Min: 50, Max: 70})
	if r != (Range{Min: 50, Max: 70}) {
		t.Fatalf("custom range %+v, want {50 70}", r)
	}
	if r.Contains(49) || !r.Contains(50) || !r.Contains(70) || r.Contains(71) {
		t.Fatal("custom bounds check incorrect")
	}
}

func TestEveryTagResolves(t *testing.T) {
	r := RangeFor(Tag("no-such-instrument"), Range{})
	if r != standardRanges[TagFullKeyboard] {
		t.Fatalf("unknown tag resolved to %+v, want full keyboard", r)
	}
}

func TestFingeringLookup(t *testing.T) {
	f, ok := FingeringFor(62)
	if !ok {
		t.Fatal("low D must have a fingering")
	}
	if f != (Fingering{true, true, true, true, true, true}) {
		t.Errorf("low D fingering %v, want all holes covered", f)
	}

	f, ok = FingeringFor(73)
	if !ok {
		t.Fatal("C#5 must have a fingering")
	}
	if f != (Fingering{}) {
		t.Errorf("C#5 fingering %v, want all holes open", f)
	}
}

func TestFingeringOutsideChart(t *testing.T) {
	for _, note := range []int{0, 61, 63, 87, 127} {
		if _, ok := FingeringFor(note); ok {
			t.Errorf("note %d should have no fingering", note)
		}
	}
}

func TestSecondOctaveD(t *testing.T) {
	f, ok := FingeringFor(74)
	if !ok {
		t.Fatal("D5 must have a fingering")
	}
	if f[0] {
		t.Error("second-octave D keeps the top hole open")
	}
}
