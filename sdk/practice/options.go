package practice

import (
	"time"

	"github.com/whistlekit/whistlekit/internal/logger"
	"github.com/whistlekit/whistlekit/sdk/contracts"
)

// Defaults tuned for a learner playing along at a relaxed pace.
const (
	defaultDebounceWindow   = 500 * time.Millisecond
	defaultFeedbackDelay    = 600 * time.Millisecond
	defaultRecoveryDelay    = 2 * time.Second
	defaultCompletionLinger = 3 * time.Second
)

// Options configures a Matcher.
type Options struct {
	// DebounceWindow suppresses a repeated NoteOn for the same pitch within
	// this interval of the previously accepted one, so a single physical
	// breath or attack never registers twice.
	DebounceWindow time.Duration
	// FeedbackDelay is how long a Correct result stays visible before it is
	// cleared while awaiting the next note.
	FeedbackDelay time.Duration
	// RecoveryDelay is how long after an Incorrect result the matcher waits
	// before synthesizing the correct-note advance, keeping practice
	// unblockable.
	RecoveryDelay time.Duration
	// CompletionLinger is how long the Complete state is held before the
	// matcher returns to Idle.
	CompletionLinger time.Duration

	Logger contracts.Logger

	// OnComplete fires once when the final note of a sequence is matched,
	// with the sequence name as display context.
	OnComplete func(name string)
	// OnChange fires after every observable state change with a fresh
	// snapshot, for renderers.
	OnChange func(Snapshot)
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithDebounceWindow sets the same-pitch retrigger suppression window.
func WithDebounceWindow(d time.Duration) Option {
	return func(o *Options) { o.DebounceWindow = d }
}

// WithFeedbackDelay sets how long correct feedback stays visible.
func WithFeedbackDelay(d time.Duration) Option {
	return func(o *Options) { o.FeedbackDelay = d }
}

// WithRecoveryDelay sets the wrong-note auto-recovery timeout.
func WithRecoveryDelay(d time.Duration) Option {
	return func(o *Options) { o.RecoveryDelay = d }
}

// WithCompletionLinger sets how long Complete is held before Idle.
func WithCompletionLinger(d time.Duration) Option {
	return func(o *Options) { o.CompletionLinger = d }
}

// WithLogger sets the matcher's logger.
func WithLogger(l contracts.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithOnComplete registers the completion callback.
func WithOnComplete(fn func(name string)) Option {
	return func(o *Options) { o.OnComplete = fn }
}

// WithOnChange registers the state-change callback.
func WithOnChange(fn func(Snapshot)) Option {
	return func(o *Options) { o.OnChange = fn }
}

func applyDefaultOptions(opts ...Option) Options {
	options := Options{
		DebounceWindow:   defaultDebounceWindow,
		FeedbackDelay:    defaultFeedbackDelay,
		RecoveryDelay:    defaultRecoveryDelay,
		CompletionLinger: defaultCompletionLinger,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = logger.NewNop()
	}
	return options
}
