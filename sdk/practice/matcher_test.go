package practice

import (
	"sync"
	"testing"
	"time"
)

func newTestMatcher(t *testing.T, extra ...Option) *Matcher {
	t.Helper()
	opts := append([]Option{
		WithDebounceWindow(50 * time.Millisecond),
		WithFeedbackDelay(40 * time.Millisecond),
		WithRecoveryDelay(60 * time.Millisecond),
		WithCompletionLinger(50 * time.Millisecond),
	}, extra...)
	return New(opts...)
}

func at(ms int) time.Time {
	return time.Unix(0, 0).Add(time.Duration(ms) * time.Millisecond)
}

func TestStartAwaitsFirstNote(t *testing.T) {
	m := newTestMatcher(t)
	m.Start("scale", []int{62, 64, 65})

	s := m.Snapshot()
	if !s.Active {
		t.Fatal("expected active session after start")
	}
	if s.CurrentIndex != 0 || s.Target != 62 {
		t.Fatalf("expected index 0 target 62, got index %d target %d", s.CurrentIndex, s.Target)
	}
	if s.Result != ResultNone || s.LastPlayed != NoNote {
		t.Fatalf("expected clean feedback, got result %v last %d", s.Result, s.LastPlayed)
	}
}

func TestStartEmptySequenceIgnored(t *testing.T) {
	m := newTestMatcher(t)
	m.Start("empty", nil)

	if s := m.Snapshot(); s.Active {
		t.Fatal("empty sequence must not start a session")
	}
}

func TestCorrectNoteAdvances(t *testing.T) {
	m := newTestMatcher(t)
	m.Start("scale", []int{62, 64, 65})

	m.HandleNoteOn(62, at(0))

	s := m.Snapshot()
	if s.CurrentIndex != 1 || s.Target != 64 {
		t.Fatalf("expected index 1 target 64, got index %d target %d", s.CurrentIndex, s.Target)
	}
	if s.Result != ResultCorrect || s.LastPlayed != 62 {
		t.Fatalf("expected correct feedback for 62, got result %v last %d", s.Result, s.LastPlayed)
	}
}

func TestWrongNoteHoldsIndex(t *testing.T) {
	m := newTestMatcher(t)
	m.Start("scale", []int{62, 64, 65})
	m.HandleNoteOn(62, at(0))

	m.HandleNoteOn(67, at(100))

	s := m.Snapshot()
	if s.CurrentIndex != 1 || s.Target != 64 {
		t.Fatalf("wrong note must not advance, got index %d target %d", s.CurrentIndex, s.Target)
	}
	if s.Result != ResultIncorrect || s.Expected != 64 || s.Played != 67 {
		t.Fatalf("expected incorrect feedback expected=64 played=67, got %v %d %d",
			s.Result, s.Expected, s.Played)
	}
}

func TestRetriggerWithinWindowIgnored(t *testing.T) {
	m := newTestMatcher(t)
	m.Start("scale", []int{62, 62, 64})

	m.HandleNoteOn(62, at(0))
	m.HandleNoteOn(62, at(30)) // inside the 50ms window

	if s := m.Snapshot(); s.CurrentIndex != 1 {
		t.Fatalf("retrigger inside window must count once, got index %d", s.CurrentIndex)
	}

	m.HandleNoteOn(62, at(90)) // outside the window

	if s := m.Snapshot(); s.CurrentIndex != 2 {
		t.Fatalf("note outside window must count, got index %d", s.CurrentIndex)
	}
}

func TestRejectedRetriggerDoesNotExtendWindow(t *testing.T) {
	m := newTestMatcher(t)
	m.Start("scale", []int{62, 62})

	m.HandleNoteOn(62, at(0))
	m.HandleNoteOn(62, at(40))
	m.HandleNoteOn(62, at(70)) // 70ms after the accepted event

	if s := m.Snapshot(); !s.Complete {
		t.Fatal("window must be measured from the accepted event")
	}
}

func TestAutoRecoveryAdvances(t *testing.T) {
	m := newTestMatcher(t)
	m.Start("scale", []int{62, 64, 65})
	m.HandleNoteOn(62, at(0))
	m.HandleNoteOn(67, at(100))

	time.Sleep(120 * time.Millisecond)

	s := m.Snapshot()
	if s.CurrentIndex != 2 || s.Target != 65 {
		t.Fatalf("expected recovery to advance past 64, got index %d target %d", s.CurrentIndex, s.Target)
	}
	if s.Result != ResultCorrect || s.LastPlayed != 64 {
		t.Fatalf("recovery must present the target as played, got result %v last %d", s.Result, s.LastPlayed)
	}
	if s.Recovered != 1 {
		t.Fatalf("expected 1 recovered advance, got %d", s.Recovered)
	}
}

func TestCorrectNoteCancelsRecovery(t *testing.T) {
	m := newTestMatcher(t)
	m.Start("scale", []int{62, 64, 65})
	m.HandleNoteOn(67, at(0))
	m.HandleNoteOn(62, at(100))

	time.Sleep(120 * time.Millisecond)

	s := m.Snapshot()
	if s.CurrentIndex != 1 {
		t.Fatalf("stale recovery must not fire after a correct note, got index %d", s.CurrentIndex)
	}
	if s.Recovered != 0 {
		t.Fatalf("expected no recovered advances, got %d", s.Recovered)
	}
}

func TestCompletionAfterLastNote(t *testing.T) {
	var mu sync.Mutex
	var completed []string
	m := newTestMatcher(t, WithOnComplete(func(name string) {
		mu.Lock()
		completed = append(completed, name)
		mu.Unlock()
	}))
	m.Start("scale", []int{62, 64})
	m.HandleNoteOn(62, at(0))

	if s := m.Snapshot(); s.Complete {
		t.Fatal("must not complete before the last note")
	}

	m.HandleNoteOn(64, at(100))

	s := m.Snapshot()
	if !s.Complete || s.Target != NoNote {
		t.Fatalf("expected complete with no target, got complete=%v target=%d", s.Complete, s.Target)
	}
	mu.Lock()
	got := append([]string(nil), completed...)
	mu.Unlock()
	if len(got) != 1 || got[0] != "scale" {
		t.Fatalf("expected one completion callback for scale, got %v", got)
	}

	time.Sleep(80 * time.Millisecond)
	if s := m.Snapshot(); s.Active {
		t.Fatal("expected return to idle after completion linger")
	}
}

func TestWrongNotesIgnoredAfterComplete(t *testing.T) {
	m := newTestMatcher(t, WithCompletionLinger(time.Hour))
	m.Start("scale", []int{62})
	m.HandleNoteOn(62, at(0))

	m.HandleNoteOn(67, at(100))

	s := m.Snapshot()
	if !s.Complete || s.Result != ResultCorrect {
		t.Fatalf("input after completion must be ignored, got complete=%v result=%v", s.Complete, s.Result)
	}
}

func TestCorrectFeedbackClears(t *testing.T) {
	m := newTestMatcher(t)
	m.Start("scale", []int{62, 64})
	m.HandleNoteOn(62, at(0))

	time.Sleep(80 * time.Millisecond)

	s := m.Snapshot()
	if s.Result != ResultNone {
		t.Fatalf("correct feedback must clear while awaiting, got %v", s.Result)
	}
	if s.CurrentIndex != 1 {
		t.Fatalf("clearing feedback must not move the index, got %d", s.CurrentIndex)
	}
}

func TestResetReturnsToStart(t *testing.T) {
	m := newTestMatcher(t)
	m.Start("scale", []int{62, 64, 65})
	m.HandleNoteOn(62, at(0))
	m.HandleNoteOn(67, at(100))

	m.Reset()

	s := m.Snapshot()
	if !s.Active || s.CurrentIndex != 0 || s.Target != 62 {
		t.Fatalf("expected restart at index 0, got active=%v index=%d target=%d",
			s.Active, s.CurrentIndex, s.Target)
	}
	if s.Result != ResultNone || s.Recovered != 0 {
		t.Fatalf("reset must clear feedback, got result %v recovered %d", s.Result, s.Recovered)
	}

	// The recovery armed before the reset must not fire into the new run.
	time.Sleep(120 * time.Millisecond)
	if s := m.Snapshot(); s.CurrentIndex != 0 {
		t.Fatalf("stale recovery fired after reset, index %d", s.CurrentIndex)
	}
}

func TestStopCancelsSession(t *testing.T) {
	m := newTestMatcher(t)
	m.Start("scale", []int{62, 64})
	m.HandleNoteOn(67, at(0))

	m.Stop()

	if s := m.Snapshot(); s.Active {
		t.Fatal("expected idle after stop")
	}

	time.Sleep(120 * time.Millisecond)
	if s := m.Snapshot(); s.Active || s.CurrentIndex != 0 {
		t.Fatal("stale recovery fired after stop")
	}

	m.HandleNoteOn(62, at(200))
	if s := m.Snapshot(); s.Active {
		t.Fatal("notes while idle must be ignored")
	}
}

func TestSkipAdvancesWithoutInput(t *testing.T) {
	m := newTestMatcher(t)
	m.Start("scale", []int{62, 64})

	m.Skip()

	s := m.Snapshot()
	if s.CurrentIndex != 1 || s.Target != 64 {
		t.Fatalf("expected skip to index 1, got index %d target %d", s.CurrentIndex, s.Target)
	}
	if s.Recovered != 0 {
		t.Fatalf("skip is not a recovery, got recovered %d", s.Recovered)
	}

	m.Skip()
	if s := m.Snapshot(); !s.Complete {
		t.Fatal("skipping the last note must complete the sequence")
	}
}

func TestOnChangeReceivesSnapshots(t *testing.T) {
	var mu sync.Mutex
	var indexes []int
	m := newTestMatcher(t, WithOnChange(func(s Snapshot) {
		mu.Lock()
		indexes = append(indexes, s.CurrentIndex)
		mu.Unlock()
	}))
	m.Start("scale", []int{62, 64, 65})
	m.HandleNoteOn(62, at(0))
	m.HandleNoteOn(64, at(100))

	mu.Lock()
	got := append([]int(nil), indexes...)
	mu.Unlock()
	want := []int{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("expected %d change notifications, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("change %d: expected index %d, got %d", i, want[i], got[i])
		}
	}
}
