package commands

import (
	"context"
	"time"

	"classcribe/internal/domain/notification"

	"github.com/google/uuid"
)

// Ports keep the command layer free of pipeline and transport imports; the
// bootstrap wires concrete implementations in.

// PipelineEnqueuer submits the first job of a processing run. Enqueueing is
// rejected (not blocked) when the target queue is saturated.
type PipelineEnqueuer interface {
	EnqueueTranscription(ctx context.Context, lessonID, runID uuid.UUID) error
}

// EventPublisher fans pipeline facts out to connected SSE subscribers.
// Publishing is fire-and-forget; a failed publish never fails the command.
type EventPublisher interface {
	PublishLessonEvent(ctx context.Context, userID, lessonID uuid.UUID, kind string, payload map[string]any)
	PublishUserEvent(ctx context.Context, userID uuid.UUID, kind string, payload map[string]any)
}

// NotificationDispatcher delivers a notification on every channel the user
// has enabled (in-app row, email). Best effort, called after commit.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, userID uuid.UUID, kind notification.Type, title, message string, data map[string]any)
}

// MediaStore abstracts the object storage bucket holding lesson recordings.
type MediaStore interface {
	SignedUploadURL(ctx context.Context, objectName, contentType string) (string, error)
	ObjectURL(objectName string) string
}

// PaymentEvent is the verified, parsed form of a provider webhook delivery.
type PaymentEvent struct {
	ID         string
	UserID     uuid.UUID
	Credits    int32
	PaymentRef string
	OccurredAt time.Time
}

// WebhookVerifier authenticates a raw webhook body against its signature
// header and decodes the event. Verification failures map to
// errs.ErrInvalidSignature, decode failures to errs.ErrMalformedEvent.
type WebhookVerifier interface {
	VerifyAndParse(body []byte, signature string) (*PaymentEvent, error)
}
