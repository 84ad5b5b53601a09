package kiosk

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
)

type scriptedProber struct {
	mu      sync.Mutex
	results []error
}

func (p *scriptedProber) Probe(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.results) == 0 {
		return nil
	}
	err := p.results[0]
	p.results = p.results[1:]
	return err
}

func TestWatcher_CallsOncePerReconnect(t *testing.T) {
	down := errors.New("offline")
	prober := &scriptedProber{results: []error{nil, down, down, nil, nil, down, nil}}

	var reconnects int
	w := NewWatcher(prober, time.Second, func(ctx context.Context) { reconnects++ }, zerolog.Nop())

	want := []bool{true, false, false, true, true, false, true}
	for i, expected := range want {
		if got := w.Check(context.Background()); got != expected {
			t.Errorf("check %d: online = %v, want %v", i, got, expected)
		}
	}

	if reconnects != 2 {
		t.Errorf("expected 2 reconnect callbacks, got %d", reconnects)
	}
}

func TestWatcher_StartStopsOnCancel(t *testing.T) {
	w := NewWatcher(&scriptedProber{}, 10*time.Millisecond, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- w.Start(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
	if !w.Online() {
		t.Error("expected watcher to report online")
	}
}

func TestSession_ReconnectFlushesQueue(t *testing.T) {
	store := &slotStore{queue: []model.Submission{scenario}}
	sub := &recordingSubmitter{}
	_, mgr := setupForm(t, store, sub)

	prober := &scriptedProber{results: []error{errors.New("offline"), nil}}
	session := NewSession(mgr, sub, prober, time.Second, zerolog.Nop())

	session.Watcher().Check(context.Background())
	if sub.calls() != 0 {
		t.Fatalf("expected no flush while offline, got %d calls", sub.calls())
	}

	session.Watcher().Check(context.Background())
	if sub.calls() != 1 || store.len() != 0 {
		t.Errorf("expected reconnect flush to drain the queue, got %d calls, %d queued", sub.calls(), store.len())
	}
}

func TestPrompter_Collect(t *testing.T) {
	in := strings.NewReader("5\n4\nseven\n5\n3\n\nLovely campus\n")
	var out strings.Builder
	p := NewPrompter(in, &out)

	rec, err := p.Collect()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if rec.Conference != 5 || rec.Stay != 4 || rec.Food != 5 || rec.Campus != 3 || rec.Activities != 0 {
		t.Errorf("unexpected ratings: %+v", rec)
	}
	if rec.Comments != "Lovely campus" {
		t.Errorf("unexpected comments %q", rec.Comments)
	}
	if rec.ID == 0 {
		t.Error("expected an id to be assigned")
	}
	if !strings.Contains(out.String(), "Please enter a number") {
		t.Error("expected a re-prompt for invalid input")
	}

	if _, err := p.Collect(); err == nil {
		t.Error("expected EOF once input is exhausted")
	}
}

func TestPrompter_Show(t *testing.T) {
	var out strings.Builder
	p := NewPrompter(strings.NewReader(""), &out)

	p.Show(Outcome{State: StateIdle, Notice: ValidationNotice})
	p.Show(Outcome{State: StateSuccess, Queued: true})

	if !strings.Contains(out.String(), ValidationNotice) || !strings.Contains(out.String(), "Thank You") {
		t.Errorf("unexpected output %q", out.String())
	}
}
