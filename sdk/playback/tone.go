package playback

import (
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const (
	toneSampleRate = 44100
	toneAmplitude  = 0.35
)

var (
	toneContextOnce sync.Once
	toneContext     *oto.Context
	toneContextErr  error
)

// sharedToneContext initializes the process-wide audio context on first use.
// The audio backend allows only one context per process.
func sharedToneContext() (*oto.Context, error) {
	toneContextOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   toneSampleRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			toneContextErr = fmt.Errorf("audio context: %w", err)
			return
		}
		<-ready
		toneContext = ctx
	})
	return toneContext, toneContextErr
}

// TonePlayer renders preview notes as decaying sine tones through the
// system audio output. It implements Synth and Silencer.
type TonePlayer struct {
	ctx *oto.Context

	mu     sync.Mutex
	nextID int
	active map[int]*oto.Player
}

// NewTonePlayer opens the shared audio context.
func NewTonePlayer() (*TonePlayer, error) {
	ctx, err := sharedToneContext()
	if err != nil {
		return nil, err
	}
	return &TonePlayer{ctx: ctx, active: make(map[int]*oto.Player)}, nil
}

// PlayNote starts a tone for the given pitch and lets it ring for the given
// duration. Tones overlap freely; each plays through its own stream.
func (t *TonePlayer) PlayNote(note int, duration time.Duration) error {
	if duration <= 0 {
		duration = 250 * time.Millisecond
	}
	freq := 440.0 * math.Pow(2, (float64(note)-69.0)/12.0)
	p := t.ctx.NewPlayer(newToneReader(freq, duration))

	t.mu.Lock()
	t.nextID++
	id := t.nextID
	t.active[id] = p
	t.mu.Unlock()

	p.Play()
	go func() {
		time.Sleep(duration + 100*time.Millisecond)
		t.mu.Lock()
		if _, ok := t.active[id]; ok {
			delete(t.active, id)
			_ = p.Close()
		}
		t.mu.Unlock()
	}()
	return nil
}

// Silence cuts every ringing tone immediately.
func (t *TonePlayer) Silence() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, p := range t.active {
		_ = p.Close()
		delete(t.active, id)
	}
}

// toneReader streams a mono 16-bit sine wave with a linear decay envelope,
// ending with io.EOF once the tone has fully sounded.
type toneReader struct {
	freq   float64
	total  int // samples in the whole tone
	offset int
}

func newToneReader(freq float64, duration time.Duration) *toneReader {
	return &toneReader{
		freq:  freq,
		total: int(float64(toneSampleRate) * duration.Seconds()),
	}
}

func (r *toneReader) Read(p []byte) (int, error) {
	if r.offset >= r.total {
		return 0, io.EOF
	}
	samples := len(p) / 2
	if remain := r.total - r.offset; samples > remain {
		samples = remain
	}
	for i := 0; i < samples; i++ {
		pos := r.offset + i
		envelope := 1 - float64(pos)/float64(r.total)
		v := toneAmplitude * envelope * math.Sin(2*math.Pi*r.freq*float64(pos)/float64(toneSampleRate))
		s := int16(v * math.MaxInt16)
		p[i*2] = byte(s)
		p[i*2+1] = byte(s >> 8)
	}
	r.offset += samples
	return samples * 2, nil
}
