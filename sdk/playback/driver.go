// Package playback drives a timeline cursor over a timed note sequence for
// song preview. The driver is tick-based and holds no goroutines of its own;
// the caller advances it from whatever loop it already runs (a UI frame
// callback, a ticker) and the driver fires notes as their start times come
// due.
package playback

import (
	"sort"
	"sync"
	"time"

	"github.com/whistlekit/whistlekit/sdk/contracts"
)

// Synth receives notes as they come due. Calls happen on the goroutine that
// ticks the driver; implementations should not block.
type Synth interface {
	PlayNote(note int, duration time.Duration) error
}

// Silencer is implemented by synths that can cut ringing tones. The driver
// silences on stop and seek so relocated playback never overlaps stale
// sound.
type Silencer interface {
	Silence()
}

// State is the driver's transport state.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

// DefaultBPM is used when a sequence carries no usable tempo.
const DefaultBPM = 120

// startEpsilon absorbs float rounding when testing whether a note is due.
const startEpsilon = 1e-6

// Driver plays a timed note sequence against wall-clock deltas supplied by
// the caller. Safe for concurrent use.
type Driver struct {
	opts Options

	mu        sync.Mutex
	notes     []contracts.TimedNote
	bpm       int
	state     State
	position  float64 // seconds from the start of the sequence
	triggered []bool
}

// NewDriver creates a driver over the given sequence. Notes are copied and
// ordered by start beat; a non-positive tempo falls back to DefaultBPM.
func NewDriver(notes []contracts.TimedNote, bpm int, opts ...Option) *Driver {
	d := &Driver{opts: applyDefaultOptions(opts...)}
	d.load(notes, bpm)
	return d
}

// Load replaces the sequence and resets the cursor to the start.
func (d *Driver) Load(notes []contracts.TimedNote, bpm int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.load(notes, bpm)
}

func (d *Driver) load(notes []contracts.TimedNote, bpm int) {
	if bpm <= 0 {
		bpm = DefaultBPM
	}
	d.notes = append([]contracts.TimedNote(nil), notes...)
	sort.SliceStable(d.notes, func(i, j int) bool {
		return d.notes[i].StartBeat < d.notes[j].StartBeat
	})
	d.bpm = bpm
	d.state = StateStopped
	d.position = 0
	d.triggered = make([]bool, len(d.notes))
}

// Play starts or resumes playback. Playing an empty sequence is a no-op.
// Starting from the stopped state at the end of the timeline rewinds first.
func (d *Driver) Play() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.notes) == 0 || d.state == StatePlaying {
		return
	}
	if d.state == StateStopped && d.position >= d.durationLocked() {
		d.seekLocked(0)
	}
	d.state = StatePlaying
	d.opts.Logger.Debug("playback started",
		d.opts.Logger.Field().Float64("position", d.position))
}

// Pause halts the cursor in place.
func (d *Driver) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StatePlaying {
		d.state = StatePaused
	}
}

// Stop halts playback and rewinds to the start.
func (d *Driver) Stop() {
	d.mu.Lock()
	d.state = StateStopped
	d.seekLocked(0)
	synth := d.opts.Synth
	d.mu.Unlock()
	silence(synth)
}

// Seek moves the cursor, clamped to the timeline. Notes that start before
// the new position will not fire; notes at or after it fire as they come
// due again.
func (d *Driver) Seek(seconds float64) {
	d.mu.Lock()
	d.seekLocked(seconds)
	synth := d.opts.Synth
	d.mu.Unlock()
	silence(synth)
}

func silence(s Synth) {
	if sil, ok := s.(Silencer); ok {
		sil.Silence()
	}
}

func (d *Driver) seekLocked(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	if end := d.durationLocked(); seconds > end {
		seconds = end
	}
	d.position = seconds
	spb := d.secondsPerBeatLocked()
	for i, n := range d.notes {
		d.triggered[i] = n.StartBeat*spb < seconds-startEpsilon
	}
}

// Tick advances the cursor by the given wall-clock delta and fires every
// note whose start time has come due. The driver stops itself once the
// cursor passes the end of the last note.
func (d *Driver) Tick(delta time.Duration) {
	d.mu.Lock()
	if d.state != StatePlaying || delta <= 0 {
		d.mu.Unlock()
		return
	}
	d.position += delta.Seconds()

	spb := d.secondsPerBeatLocked()
	type due struct {
		note     int
		duration time.Duration
	}
	var fire []due
	for i, n := range d.notes {
		if d.triggered[i] {
			continue
		}
		if n.StartBeat*spb <= d.position+startEpsilon {
			d.triggered[i] = true
			fire = append(fire, due{
				note:     n.Note,
				duration: time.Duration(n.DurationBeats * spb * float64(time.Second)),
			})
		}
	}

	finished := d.position >= d.durationLocked()
	if finished {
		d.position = d.durationLocked()
		d.state = StateStopped
		d.opts.Logger.Debug("playback finished")
	}
	synth := d.opts.Synth
	log := d.opts.Logger
	d.mu.Unlock()

	if synth == nil {
		return
	}
	for _, f := range fire {
		if err := synth.PlayNote(f.note, f.duration); err != nil {
			log.Warn("preview note failed",
				log.Field().Int("note", f.note).Error("error", err))
		}
	}
}

// Preview plays a single note immediately, outside the timeline. Used for
// auditioning a pitch while editing.
func (d *Driver) Preview(note int) error {
	d.mu.Lock()
	synth := d.opts.Synth
	duration := time.Duration(0.5 * d.secondsPerBeatLocked() * float64(time.Second))
	d.mu.Unlock()
	if synth == nil {
		return nil
	}
	return synth.PlayNote(note, duration)
}

// Position returns the cursor in seconds from the start.
func (d *Driver) Position() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.position
}

// State returns the current transport state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Duration returns the timeline length in seconds, the end of the
// longest-sounding note.
func (d *Driver) Duration() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.durationLocked()
}

func (d *Driver) durationLocked() float64 {
	spb := d.secondsPerBeatLocked()
	var end float64
	for _, n := range d.notes {
		if e := (n.StartBeat + n.DurationBeats) * spb; e > end {
			end = e
		}
	}
	return end
}

func (d *Driver) secondsPerBeatLocked() float64 {
	return 60.0 / float64(d.bpm)
}
