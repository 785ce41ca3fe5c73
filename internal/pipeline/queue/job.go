package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"classcribe/internal/pkg/errs"

	"github.com/google/uuid"
)

// Job is one unit of pipeline work. OrderingKey pins all jobs sharing the
// key to the same worker, which gives per-key FIFO within a queue.
type Job struct {
	ID          uuid.UUID
	Kind        string
	OrderingKey string
	Payload     []byte
	EnqueuedAt  time.Time
}

func NewJob(kind, orderingKey string, payload any) (Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Job{}, errs.Wrap(err, "failed to encode job payload")
	}
	return Job{
		ID:          uuid.New(),
		Kind:        kind,
		OrderingKey: orderingKey,
		Payload:     raw,
		EnqueuedAt:  time.Now(),
	}, nil
}

func (j Job) Decode(v any) error {
	return errs.Wrap(json.Unmarshal(j.Payload, v), "failed to decode job payload")
}

// Handler processes one job. Returning an error triggers in-place retry with
// backoff unless the error is marked permanent.
type Handler func(ctx context.Context, job Job) error

// permanentError wraps failures that retrying cannot fix (validation,
// deleted rows, provider 4xx).
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
