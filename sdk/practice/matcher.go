// Package practice implements the sequential practice matcher: the state
// machine that tracks position within a target note sequence, judges each
// played note, auto-recovers from wrong notes after a timeout, and signals
// completion.
package practice

import (
	"sync"
	"time"

	"github.com/whistlekit/whistlekit/sdk/contracts"
)

// Result is the transient judgement of the most recent qualifying note.
type Result int

const (
	ResultNone Result = iota
	ResultCorrect
	ResultIncorrect
)

type phase int

const (
	phaseIdle phase = iota
	phaseAwaiting
	phaseComplete
)

// NoNote marks the absence of a note value in a Snapshot.
const NoNote = -1

// Snapshot is the renderer-facing view of the matcher state. All slices are
// copies; a snapshot never changes after it is taken.
type Snapshot struct {
	Active       bool  // A sequence is loaded (Awaiting or Complete).
	Name         string
	Sequence     []int
	CurrentIndex int
	Target       int // Note currently awaited, or NoNote.
	LastPlayed   int // Most recent qualifying note, or NoNote.
	Result       Result
	Expected     int // Valid when Result is ResultIncorrect.
	Played       int // Valid when Result is ResultIncorrect.
	Complete     bool
	Recovered    int // Number of synthetic auto-recovery advances so far.
}

// Matcher is the sequential practice state machine. All methods are safe for
// concurrent use; each note is processed to completion before the next.
//
// After a wrong note the matcher schedules a synthetic correct-note advance,
// so a learner who cannot produce the right pitch is still carried forward.
// Snapshots count those synthetic advances separately (Recovered) because
// the match results alone cannot distinguish "eventually got it right" from
// "was carried forward".
type Matcher struct {
	opts Options

	mu         sync.Mutex
	gen        int // Bumped on start/reset/stop; invalidates pending timers.
	phase      phase
	name       string
	sequence   []int
	index      int
	lastPlayed int
	result     Result
	expected   int
	played     int
	recovered  int
	lastOnAt   map[int]time.Time

	feedbackTimer   *time.Timer
	recoveryTimer   *time.Timer
	completionTimer *time.Timer
}

// New creates an idle matcher.
func New(opts ...Option) *Matcher {
	return &Matcher{
		opts:       applyDefaultOptions(opts...),
		lastPlayed: NoNote,
		lastOnAt:   make(map[int]time.Time),
	}
}

// Start loads a sequence and begins awaiting its first note. An empty
// sequence is ignored; the matcher never enters an invalid state.
func (m *Matcher) Start(name string, sequence []int) {
	m.mu.Lock()
	if len(sequence) == 0 {
		m.opts.Logger.Warn("practice start ignored: empty sequence")
		m.mu.Unlock()
		return
	}

	m.invalidateLocked()
	m.phase = phaseAwaiting
	m.name = name
	m.sequence = append([]int(nil), sequence...)
	m.index = 0
	m.clearFeedbackLocked()
	m.recovered = 0
	m.opts.Logger.Info("practice started",
		m.opts.Logger.Field().String("sequence", name),
		m.opts.Logger.Field().Int("notes", len(sequence)))

	fire := m.changeLocked()
	m.mu.Unlock()
	fire()
}

// HandleNoteOn is the central transition, fed with live (or simulated)
// NoteOn events. Events outside an active session are benign no-ops, and a
// same-pitch retrigger inside the debounce window is ignored.
func (m *Matcher) HandleNoteOn(note int, at time.Time) {
	m.mu.Lock()
	if m.phase != phaseAwaiting {
		m.mu.Unlock()
		return
	}
	if at.IsZero() {
		at = time.Now()
	}
	if last, seen := m.lastOnAt[note]; seen && at.Sub(last) < m.opts.DebounceWindow {
		m.opts.Logger.Debug("retrigger ignored", m.opts.Logger.Field().Int("note", note))
		m.mu.Unlock()
		return
	}
	m.lastOnAt[note] = at

	var fire []func()
	target := m.sequence[m.index]
	if note == target {
		m.stopTimerLocked(&m.recoveryTimer)
		fire = m.advanceLocked(false)
	} else {
		m.lastPlayed = note
		m.result = ResultIncorrect
		m.expected = target
		m.played = note
		m.stopTimerLocked(&m.feedbackTimer)
		m.armRecoveryLocked()
		m.opts.Logger.Debug("wrong note",
			m.opts.Logger.Field().Int("expected", target),
			m.opts.Logger.Field().Int("played", note))
		fire = []func(){m.changeLocked()}
	}
	m.mu.Unlock()
	for _, f := range fire {
		f()
	}
}

// Reset returns to awaiting the first note of the current sequence,
// clearing all feedback and pending timers.
func (m *Matcher) Reset() {
	m.mu.Lock()
	if len(m.sequence) == 0 {
		m.mu.Unlock()
		return
	}
	m.invalidateLocked()
	m.phase = phaseAwaiting
	m.index = 0
	m.clearFeedbackLocked()
	m.recovered = 0
	fire := m.changeLocked()
	m.mu.Unlock()
	fire()
}

// Stop discards the sequence and any pending timers and returns to Idle.
func (m *Matcher) Stop() {
	m.mu.Lock()
	m.invalidateLocked()
	m.toIdleLocked()
	fire := m.changeLocked()
	m.mu.Unlock()
	fire()
}

// Skip forces an advance without requiring a correct note. Completion is
// handled exactly as on the success path. Intended for instructor override,
// not as a primary learner action.
func (m *Matcher) Skip() {
	m.mu.Lock()
	if m.phase != phaseAwaiting {
		m.mu.Unlock()
		return
	}
	m.stopTimerLocked(&m.recoveryTimer)
	fire := m.advanceLocked(false)
	m.mu.Unlock()
	for _, f := range fire {
		f()
	}
}

// Snapshot returns a copy of the current state for rendering.
func (m *Matcher) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// advanceLocked performs the success transition for the current target:
// record Correct, then either move to the next index or complete.
func (m *Matcher) advanceLocked(synthetic bool) []func() {
	target := m.sequence[m.index]
	m.lastPlayed = target
	m.result = ResultCorrect
	m.expected = 0
	m.played = 0
	if synthetic {
		m.recovered++
	}

	var fire []func()
	if m.index == len(m.sequence)-1 {
		m.phase = phaseComplete
		m.armCompletionLocked()
		m.opts.Logger.Info("sequence complete",
			m.opts.Logger.Field().String("sequence", m.name))
		if m.opts.OnComplete != nil {
			name := m.name
			onComplete := m.opts.OnComplete
			fire = append(fire, func() { onComplete(name) })
		}
	} else {
		m.index++
		m.armFeedbackClearLocked()
	}
	return append(fire, m.changeLocked())
}

// armRecoveryLocked schedules the synthetic correct-note advance that fires
// when no further input arrives after a wrong note.
func (m *Matcher) armRecoveryLocked() {
	m.stopTimerLocked(&m.recoveryTimer)
	gen := m.gen
	m.recoveryTimer = time.AfterFunc(m.opts.RecoveryDelay, func() {
		m.mu.Lock()
		if m.gen != gen || m.phase != phaseAwaiting || m.result != ResultIncorrect {
			m.mu.Unlock()
			return
		}
		m.opts.Logger.Debug("auto-recovery advance",
			m.opts.Logger.Field().Int("note", m.sequence[m.index]))
		fire := m.advanceLocked(true)
		m.mu.Unlock()
		for _, f := range fire {
			f()
		}
	})
}

// armFeedbackClearLocked schedules the short-lived Correct feedback to
// clear while awaiting the next note.
func (m *Matcher) armFeedbackClearLocked() {
	m.stopTimerLocked(&m.feedbackTimer)
	gen := m.gen
	m.feedbackTimer = time.AfterFunc(m.opts.FeedbackDelay, func() {
		m.mu.Lock()
		if m.gen != gen || m.result != ResultCorrect {
			m.mu.Unlock()
			return
		}
		m.result = ResultNone
		fire := m.changeLocked()
		m.mu.Unlock()
		fire()
	})
}

// armCompletionLocked schedules the return to Idle after completion.
func (m *Matcher) armCompletionLocked() {
	m.stopTimerLocked(&m.completionTimer)
	gen := m.gen
	m.completionTimer = time.AfterFunc(m.opts.CompletionLinger, func() {
		m.mu.Lock()
		if m.gen != gen || m.phase != phaseComplete {
			m.mu.Unlock()
			return
		}
		m.invalidateLocked()
		m.toIdleLocked()
		fire := m.changeLocked()
		m.mu.Unlock()
		fire()
	})
}

// invalidateLocked cancels every pending timer and invalidates any already
// in flight, so a stale callback cannot corrupt a restarted session.
func (m *Matcher) invalidateLocked() {
	m.gen++
	m.stopTimerLocked(&m.feedbackTimer)
	m.stopTimerLocked(&m.recoveryTimer)
	m.stopTimerLocked(&m.completionTimer)
}

func (m *Matcher) stopTimerLocked(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (m *Matcher) toIdleLocked() {
	m.phase = phaseIdle
	m.name = ""
	m.sequence = nil
	m.index = 0
	m.clearFeedbackLocked()
	m.recovered = 0
}

func (m *Matcher) clearFeedbackLocked() {
	m.result = ResultNone
	m.expected = 0
	m.played = 0
	m.lastPlayed = NoNote
	m.lastOnAt = make(map[int]time.Time)
}

func (m *Matcher) snapshotLocked() Snapshot {
	s := Snapshot{
		Active:       m.phase != phaseIdle,
		Name:         m.name,
		Sequence:     append([]int(nil), m.sequence...),
		CurrentIndex: m.index,
		Target:       NoNote,
		LastPlayed:   m.lastPlayed,
		Result:       m.result,
		Expected:     m.expected,
		Played:       m.played,
		Complete:     m.phase == phaseComplete,
		Recovered:    m.recovered,
	}
	if m.phase == phaseAwaiting {
		s.Target = m.sequence[m.index]
	}
	return s
}

// changeLocked captures a snapshot and returns the deferred OnChange call,
// so the callback runs outside the lock.
func (m *Matcher) changeLocked() func() {
	if m.opts.OnChange == nil {
		return func() {}
	}
	onChange := m.opts.OnChange
	snapshot := m.snapshotLocked()
	return func() { onChange(snapshot) }
}

// HandleNoteEvent adapts the matcher to the transport's subscriber shape,
// feeding only NoteOn events through.
func (m *Matcher) HandleNoteEvent(ev contracts.NoteEvent) {
	if ev.Kind != contracts.NoteOn {
		return
	}
	m.HandleNoteOn(ev.Note, ev.Timestamp)
}
