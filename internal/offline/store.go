package offline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
	apperrors "github.com/subir-ghosh-au26/Manthan-2025/pkg/errors"
)

// DefaultKey is the slot the pending queue is stored under.
const DefaultKey = "pendingFeedback"

// Store is a single durable slot holding the ordered pending queue.
//
// Read returns an error wrapping apperrors.ErrStorageUnavailable when the
// backing store cannot be reached or the slot holds something that is not a
// queue. A reachable store with nothing under the key is an empty queue.
type Store interface {
	Read(ctx context.Context) ([]model.Submission, error)
	Write(ctx context.Context, queue []model.Submission) error
}

// Unavailable is a Store for kiosks without durable storage. Every read
// reports the storage as unavailable so callers take the synchronous path.
type Unavailable struct {
	Reason error
}

func (u Unavailable) Read(ctx context.Context) ([]model.Submission, error) {
	return nil, u.err()
}

func (u Unavailable) Write(ctx context.Context, queue []model.Submission) error {
	return u.err()
}

func (u Unavailable) err() error {
	if u.Reason == nil {
		return apperrors.ErrStorageUnavailable
	}
	return fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, u.Reason)
}

func decodeQueue(raw []byte) ([]model.Submission, error) {
	if len(raw) == 0 {
		return []model.Submission{}, nil
	}

	var queue []model.Submission
	if err := json.Unmarshal(raw, &queue); err != nil {
		return nil, fmt.Errorf("%w: corrupted queue slot: %v", apperrors.ErrStorageUnavailable, err)
	}
	if queue == nil {
		queue = []model.Submission{}
	}
	return queue, nil
}

func encodeQueue(queue []model.Submission) ([]byte, error) {
	if queue == nil {
		queue = []model.Submission{}
	}
	return json.Marshal(queue)
}
