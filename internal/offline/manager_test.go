package offline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
	apperrors "github.com/subir-ghosh-au26/Manthan-2025/pkg/errors"
)

type memStore struct {
	mu       sync.Mutex
	queue    []model.Submission
	writes   int
	readErr  error
	writeErr error
}

func (s *memStore) Read(ctx context.Context) ([]model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	out := make([]model.Submission, len(s.queue))
	copy(out, s.queue)
	return out, nil
}

func (s *memStore) Write(ctx context.Context, queue []model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.writes++
	s.queue = append([]model.Submission(nil), queue...)
	return nil
}

func (s *memStore) ids() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, len(s.queue))
	for i, rec := range s.queue {
		ids[i] = rec.ID
	}
	return ids
}

type fakeSubmitter struct {
	mu      sync.Mutex
	fail    map[int64]bool
	failAll bool
	sent    []model.Submission

	// When set, Submit signals started and waits on release.
	started chan struct{}
	release chan struct{}
}

func (f *fakeSubmitter) Submit(ctx context.Context, rec model.Submission) error {
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, rec)
	if f.failAll || f.fail[rec.ID] {
		return errors.New("network down")
	}
	return nil
}

func (f *fakeSubmitter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func rec(id int64) model.Submission {
	return model.Submission{ID: id, Food: 5, Stay: 4, Conference: 5, Campus: 3}
}

func newTestManager(store Store, sub Submitter) *Manager {
	return NewManager(store, sub, zerolog.Nop())
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestManager_EnqueueThenFlushEmptiesQueue(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	sub := &fakeSubmitter{}
	m := newTestManager(store, sub)

	r := model.Submission{ID: 7, Food: 5, Stay: 4, Conference: 5, Campus: 3, Activities: 0, Comments: ""}
	if err := m.Enqueue(ctx, r); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if got := m.Status(7); got != StatusQueued {
		t.Errorf("expected queued status, got %q", got)
	}

	report, err := m.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if report.Acknowledged != 1 || report.Remaining != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
	if len(store.ids()) != 0 {
		t.Errorf("expected empty queue, got %v", store.ids())
	}
	if sub.calls() != 1 || sub.sent[0] != r {
		t.Errorf("expected exactly one write with original values, got %+v", sub.sent)
	}
	if got := m.Status(7); got != StatusAcknowledged {
		t.Errorf("expected acknowledged status, got %q", got)
	}
}

func TestManager_FailedRecordStaysUntilLaterSuccess(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	sub := &fakeSubmitter{failAll: true}
	m := newTestManager(store, sub)

	if err := m.Enqueue(ctx, rec(1)); err != nil {
		t.Fatal(err)
	}

	report, err := m.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if report.Failed != 1 || report.Remaining != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
	if !equalIDs(store.ids(), []int64{1}) {
		t.Fatalf("expected record to stay queued, got %v", store.ids())
	}

	// Next mount, still offline.
	if _, err := m.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	if !equalIDs(store.ids(), []int64{1}) {
		t.Fatalf("expected exactly one queued record, got %v", store.ids())
	}

	sub.mu.Lock()
	sub.failAll = false
	sub.mu.Unlock()

	if _, err := m.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	if len(store.ids()) != 0 {
		t.Errorf("expected queue drained, got %v", store.ids())
	}
}

func TestManager_PartialFailurePreservesOrder(t *testing.T) {
	ctx := context.Background()
	store := &memStore{queue: []model.Submission{rec(1), rec(2), rec(3), rec(4), rec(5)}}
	sub := &fakeSubmitter{fail: map[int64]bool{2: true, 4: true, 5: true}}
	m := newTestManager(store, sub)

	report, err := m.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if report.Attempted != 5 {
		t.Errorf("expected every record attempted, got %d", report.Attempted)
	}
	if want := []int64{2, 4, 5}; !equalIDs(store.ids(), want) {
		t.Errorf("expected %v, got %v", want, store.ids())
	}
}

func TestManager_FlushEmptyQueueIsNoOp(t *testing.T) {
	store := &memStore{}
	sub := &fakeSubmitter{}
	m := newTestManager(store, sub)

	report, err := m.Flush(context.Background())
	if err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if report != (FlushReport{}) {
		t.Errorf("expected empty report, got %+v", report)
	}
	if sub.calls() != 0 {
		t.Errorf("expected no network calls, got %d", sub.calls())
	}
	if store.writes != 0 {
		t.Errorf("expected no store writes, got %d", store.writes)
	}
}

func TestManager_AllFailedDoesNotRewriteSlot(t *testing.T) {
	store := &memStore{queue: []model.Submission{rec(1)}}
	m := newTestManager(store, &fakeSubmitter{failAll: true})

	if _, err := m.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.writes != 0 {
		t.Errorf("expected no writes when nothing was acknowledged, got %d", store.writes)
	}
}

func TestManager_EnqueueDuringFlushIsSentByRunningFlush(t *testing.T) {
	ctx := context.Background()
	store := &memStore{queue: []model.Submission{rec(1)}}
	sub := &fakeSubmitter{started: make(chan struct{}, 4), release: make(chan struct{})}
	m := newTestManager(store, sub)

	done := make(chan FlushReport)
	go func() {
		report, _ := m.Flush(ctx)
		done <- report
	}()

	<-sub.started
	if err := m.Enqueue(ctx, rec(2)); err != nil {
		t.Fatalf("Enqueue during flush failed: %v", err)
	}
	// The enqueuer's own flush is turned away while the first one runs.
	if report, err := m.Flush(ctx); err != nil || !report.Skipped {
		t.Fatalf("expected skipped flush, got %+v, %v", report, err)
	}
	close(sub.release)

	var report FlushReport
	select {
	case report = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("flush did not finish")
	}

	if len(store.ids()) != 0 {
		t.Errorf("expected queue drained, got %v", store.ids())
	}
	if report.Acknowledged != 2 || report.Remaining != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
	if m.Status(2) != StatusAcknowledged {
		t.Errorf("expected record 2 acknowledged, got %q", m.Status(2))
	}
}

func TestManager_OverlappingFlushIsSkipped(t *testing.T) {
	ctx := context.Background()
	store := &memStore{queue: []model.Submission{rec(1)}}
	sub := &fakeSubmitter{started: make(chan struct{}), release: make(chan struct{})}
	m := newTestManager(store, sub)

	done := make(chan struct{})
	go func() {
		m.Flush(ctx)
		close(done)
	}()
	<-sub.started

	report, err := m.Flush(ctx)
	if err != nil {
		t.Fatalf("overlapping Flush returned error: %v", err)
	}
	if !report.Skipped {
		t.Errorf("expected overlapping flush to be skipped, got %+v", report)
	}

	close(sub.release)
	<-done

	if sub.calls() != 1 {
		t.Errorf("expected a single send, got %d", sub.calls())
	}
}

func TestManager_StorageUnavailable(t *testing.T) {
	ctx := context.Background()
	store := &memStore{readErr: apperrors.ErrStorageUnavailable}
	sub := &fakeSubmitter{}
	m := newTestManager(store, sub)

	if m.Available(ctx) {
		t.Error("expected storage to be unavailable")
	}
	if err := m.Enqueue(ctx, rec(1)); !errors.Is(err, apperrors.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
	if _, err := m.Flush(ctx); !errors.Is(err, apperrors.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable from Flush, got %v", err)
	}
	if sub.calls() != 0 {
		t.Errorf("expected no network calls, got %d", sub.calls())
	}
}

func TestManager_EnqueueWriteFailure(t *testing.T) {
	store := &memStore{writeErr: errors.New("quota exceeded")}
	m := newTestManager(store, &fakeSubmitter{})

	if err := m.Enqueue(context.Background(), rec(1)); err == nil {
		t.Fatal("expected write failure to be reported")
	}
	if got := m.Status(1); got != StatusUnknown {
		t.Errorf("expected no status for unpersisted record, got %q", got)
	}
}

func TestManager_Clear(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	m := newTestManager(store, &fakeSubmitter{})

	for _, id := range []int64{1, 2} {
		if err := m.Enqueue(ctx, rec(id)); err != nil {
			t.Fatal(err)
		}
	}

	dropped, err := m.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if dropped != 2 {
		t.Errorf("expected 2 dropped, got %d", dropped)
	}

	pending, err := m.Pending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("expected empty queue, got %d", len(pending))
	}
	if m.Status(1) != StatusUnknown {
		t.Error("expected status forgotten after clear")
	}
}
