package kiosk

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/offline"
)

// Session ties the queue to its two retry triggers: Mount at process start
// and the watcher's reconnect callback.
type Session struct {
	queue     Queue
	submitter offline.Submitter
	watcher   *Watcher
	root      zerolog.Logger
	log       zerolog.Logger

	background sync.WaitGroup
}

func NewSession(queue Queue, submitter offline.Submitter, prober Prober, probeInterval time.Duration, log zerolog.Logger) *Session {
	s := &Session{
		queue:     queue,
		submitter: submitter,
		root:      log,
		log:       log.With().Str("component", "session").Logger(),
	}
	s.watcher = NewWatcher(prober, probeInterval, func(ctx context.Context) { s.flush(ctx, "reconnect") }, log)
	return s
}

func (s *Session) Mount(ctx context.Context) (offline.FlushReport, error) {
	return s.flush(ctx, "mount")
}

// Watch runs the connectivity watcher until ctx is done.
func (s *Session) Watch(ctx context.Context) error {
	return s.watcher.Start(ctx)
}

func (s *Session) Watcher() *Watcher {
	return s.watcher
}

// NewForm starts a form whose background flushes the session waits for.
func (s *Session) NewForm() *Form {
	return newForm(s.queue, s.submitter, &s.background, s.root)
}

// Wait blocks until every background flush started by the session's forms has
// finished or timeout passes. It reports whether they all finished.
func (s *Session) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.background.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (s *Session) flush(ctx context.Context, trigger string) (offline.FlushReport, error) {
	report, err := s.queue.Flush(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("trigger", trigger).Msg("Flush failed")
		return report, err
	}
	s.log.Info().
		Str("trigger", trigger).
		Int("acknowledged", report.Acknowledged).
		Int("remaining", report.Remaining).
		Bool("skipped", report.Skipped).
		Msg("Pending queue flushed")
	return report, nil
}
