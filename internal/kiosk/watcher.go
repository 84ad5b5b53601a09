package kiosk

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Prober interface {
	Probe(ctx context.Context) error
}

// Watcher polls the API and calls onOnline once for every offline to online
// transition. It starts out assuming the kiosk is online.
type Watcher struct {
	prober   Prober
	interval time.Duration
	onOnline func(ctx context.Context)
	ticker   *time.Ticker
	log      zerolog.Logger

	mu     sync.Mutex
	online bool
}

func NewWatcher(prober Prober, interval time.Duration, onOnline func(ctx context.Context), log zerolog.Logger) *Watcher {
	return &Watcher{
		prober:   prober,
		interval: interval,
		onOnline: onOnline,
		log:      log.With().Str("component", "watcher").Logger(),
		online:   true,
	}
}

func (w *Watcher) Start(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting connectivity watcher")

	w.ticker = time.NewTicker(w.interval)
	defer w.ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Connectivity watcher stopped")
			return ctx.Err()
		case <-w.ticker.C:
			w.Check(ctx)
		}
	}
}

// Check probes once and reports whether the API is reachable.
func (w *Watcher) Check(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, w.interval)
	err := w.prober.Probe(probeCtx)
	cancel()

	online := err == nil

	w.mu.Lock()
	wasOnline := w.online
	w.online = online
	w.mu.Unlock()

	switch {
	case online && !wasOnline:
		w.log.Info().Msg("Connectivity restored")
		if w.onOnline != nil {
			w.onOnline(ctx)
		}
	case !online && wasOnline:
		w.log.Warn().Err(err).Msg("Connectivity lost")
	}

	return online
}

func (w *Watcher) Online() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.online
}
