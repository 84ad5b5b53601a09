package offline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
)

// Submitter performs one remote write of a submission.
type Submitter interface {
	Submit(ctx context.Context, rec model.Submission) error
}

type RecordStatus string

const (
	StatusUnknown      RecordStatus = ""
	StatusQueued       RecordStatus = "queued"
	StatusAcknowledged RecordStatus = "acknowledged"
)

type FlushReport struct {
	Attempted    int  `json:"attempted"`
	Acknowledged int  `json:"acknowledged"`
	Failed       int  `json:"failed"`
	Remaining    int  `json:"remaining"`
	Skipped      bool `json:"skipped"`
}

// Manager owns the pending queue. All slot read-modify-write cycles go
// through mu; network attempts happen outside it.
type Manager struct {
	store     Store
	submitter Submitter
	log       zerolog.Logger

	mu       sync.Mutex
	flushing atomic.Bool
	rerun    atomic.Bool

	statusMu sync.RWMutex
	status   map[int64]RecordStatus
}

func NewManager(store Store, submitter Submitter, log zerolog.Logger) *Manager {
	return &Manager{
		store:     store,
		submitter: submitter,
		log:       log.With().Str("component", "offline-queue").Logger(),
		status:    make(map[int64]RecordStatus),
	}
}

// Available reports whether the durable slot can be read right now.
func (m *Manager) Available(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.store.Read(ctx)
	if err != nil {
		m.log.Debug().Err(err).Msg("Durable storage unavailable")
		return false
	}
	return true
}

func (m *Manager) Enqueue(ctx context.Context, rec model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue, err := m.store.Read(ctx)
	if err != nil {
		return err
	}

	queue = append(queue, rec)
	if err := m.store.Write(ctx, queue); err != nil {
		return fmt.Errorf("failed to persist pending queue: %w", err)
	}

	m.setStatus(rec.ID, StatusQueued)
	m.log.Info().Int64("id", rec.ID).Int("pending", len(queue)).Msg("Submission queued")
	return nil
}

// Flush attempts every queued record once, in order, and removes the ones the
// server acknowledged. A Flush that starts while another is running returns
// immediately with Skipped set and makes the running one take another pass,
// so records enqueued mid-flush are still sent.
func (m *Manager) Flush(ctx context.Context) (FlushReport, error) {
	if !m.flushing.CompareAndSwap(false, true) {
		m.rerun.Store(true)
		m.log.Debug().Msg("Flush already in progress, scheduling another pass")
		return FlushReport{Skipped: true}, nil
	}

	var total FlushReport
	for {
		m.rerun.Store(false)

		report, err := m.flushOnce(ctx)
		total.Attempted += report.Attempted
		total.Acknowledged += report.Acknowledged
		total.Failed += report.Failed
		total.Remaining = report.Remaining
		if err != nil || ctx.Err() != nil {
			m.flushing.Store(false)
			return total, err
		}
		if m.rerun.Load() {
			continue
		}

		m.flushing.Store(false)
		// A caller may have been turned away between the check above and the
		// release; pick its pass up unless someone else already has.
		if !m.rerun.Load() || !m.flushing.CompareAndSwap(false, true) {
			return total, nil
		}
	}
}

func (m *Manager) flushOnce(ctx context.Context) (FlushReport, error) {
	var report FlushReport

	m.mu.Lock()
	queue, err := m.store.Read(ctx)
	m.mu.Unlock()
	if err != nil {
		return report, err
	}
	if len(queue) == 0 {
		return report, nil
	}

	acked := make(map[int64]struct{}, len(queue))
	for _, rec := range queue {
		if ctx.Err() != nil {
			break
		}

		report.Attempted++
		if err := m.submitter.Submit(ctx, rec); err != nil {
			report.Failed++
			m.log.Warn().Err(err).Int64("id", rec.ID).Msg("Submission still pending")
			continue
		}

		acked[rec.ID] = struct{}{}
		report.Acknowledged++
		m.setStatus(rec.ID, StatusAcknowledged)
	}

	if len(acked) == 0 {
		report.Remaining = len(queue)
		return report, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-read so records enqueued during the network phase are kept.
	current, err := m.store.Read(ctx)
	if err != nil {
		return report, err
	}

	remaining := make([]model.Submission, 0, len(current))
	for _, rec := range current {
		if _, ok := acked[rec.ID]; ok {
			continue
		}
		remaining = append(remaining, rec)
	}

	if err := m.store.Write(ctx, remaining); err != nil {
		return report, fmt.Errorf("failed to persist pending queue: %w", err)
	}
	report.Remaining = len(remaining)

	m.log.Info().
		Int("acknowledged", report.Acknowledged).
		Int("failed", report.Failed).
		Int("remaining", report.Remaining).
		Msg("Flush completed")

	return report, nil
}

func (m *Manager) Pending(ctx context.Context) ([]model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.store.Read(ctx)
}

// Clear drops every pending record without sending it.
func (m *Manager) Clear(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue, err := m.store.Read(ctx)
	if err != nil {
		return 0, err
	}
	if err := m.store.Write(ctx, []model.Submission{}); err != nil {
		return 0, fmt.Errorf("failed to clear pending queue: %w", err)
	}

	m.statusMu.Lock()
	for _, rec := range queue {
		delete(m.status, rec.ID)
	}
	m.statusMu.Unlock()

	m.log.Warn().Int("dropped", len(queue)).Msg("Pending queue cleared")
	return len(queue), nil
}

func (m *Manager) Status(id int64) RecordStatus {
	m.statusMu.RLock()
	defer m.statusMu.RUnlock()
	return m.status[id]
}

func (m *Manager) setStatus(id int64, status RecordStatus) {
	m.statusMu.Lock()
	m.status[id] = status
	m.statusMu.Unlock()
}
