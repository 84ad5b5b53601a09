package kiosk

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/offline"
)

type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateError      State = "error"
)

const ValidationNotice = "Please provide ratings before submitting."

var ErrFormClosed = errors.New("form already submitted")

// Queue is the part of the offline queue the form drives.
type Queue interface {
	Available(ctx context.Context) bool
	Enqueue(ctx context.Context, rec model.Submission) error
	Flush(ctx context.Context) (offline.FlushReport, error)
}

// Outcome is what the form shows after a submit attempt. Queued is set when
// success was reported before the server acknowledged the record.
type Outcome struct {
	State  State
	Queued bool
	Notice string
	Err    error
}

// Form is one rendering of the delegate form. Success and error are terminal;
// start a new Form for the next delegate.
type Form struct {
	queue     Queue
	submitter offline.Submitter
	log       zerolog.Logger

	mu    sync.Mutex
	state State
	busy  bool

	background *sync.WaitGroup
}

func NewForm(queue Queue, submitter offline.Submitter, log zerolog.Logger) *Form {
	return newForm(queue, submitter, &sync.WaitGroup{}, log)
}

// newForm builds a form whose background flushes are counted on background.
func newForm(queue Queue, submitter offline.Submitter, background *sync.WaitGroup, log zerolog.Logger) *Form {
	return &Form{
		queue:      queue,
		submitter:  submitter,
		log:        log.With().Str("component", "form").Logger(),
		state:      StateIdle,
		background: background,
	}
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Form) Submit(ctx context.Context, rec model.Submission) Outcome {
	f.mu.Lock()
	if f.state != StateIdle || f.busy {
		state := f.state
		f.mu.Unlock()
		return Outcome{State: state, Err: ErrFormClosed}
	}
	f.busy = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.busy = false
		f.mu.Unlock()
	}()

	if err := rec.Validate(); err != nil {
		f.log.Debug().Err(err).Msg("Submission blocked by validation")
		return Outcome{State: StateIdle, Notice: ValidationNotice, Err: err}
	}

	if f.queue.Available(ctx) {
		err := f.queue.Enqueue(ctx, rec)
		if err == nil {
			f.setState(StateSuccess)
			f.flushInBackground(ctx)
			return Outcome{State: StateSuccess, Queued: true}
		}
		f.log.Warn().Err(err).Int64("id", rec.ID).Msg("Could not queue submission, sending directly")
	}

	f.setState(StateSubmitting)
	if err := f.submitter.Submit(ctx, rec); err != nil {
		f.log.Error().Err(err).Int64("id", rec.ID).Msg("Direct submission failed")
		f.setState(StateError)
		return Outcome{State: StateError, Err: err}
	}

	f.setState(StateSuccess)
	return Outcome{State: StateSuccess}
}

// Wait blocks until background flushes started by Submit have finished. A
// form from Session.NewForm shares the count with the session's other forms.
func (f *Form) Wait() {
	f.background.Wait()
}

func (f *Form) flushInBackground(ctx context.Context) {
	bgCtx := context.WithoutCancel(ctx)

	f.background.Add(1)
	go func() {
		defer f.background.Done()

		report, err := f.queue.Flush(bgCtx)
		if err != nil {
			f.log.Warn().Err(err).Msg("Background flush failed")
			return
		}
		f.log.Debug().
			Int("acknowledged", report.Acknowledged).
			Int("remaining", report.Remaining).
			Bool("skipped", report.Skipped).
			Msg("Background flush finished")
	}()
}

func (f *Form) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}
