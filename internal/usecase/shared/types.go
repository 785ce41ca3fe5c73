package shared

import (
	"time"

	"classcribe/internal/domain/credit"
	"classcribe/internal/domain/lesson"

	"github.com/google/uuid"
)

// Minimal snapshots for command-side reads; the query layer has its own
// richer views.

type LessonSnapshot struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	InstitutionID *uuid.UUID
	Title         string
	Subject       string
	GradeLevel    string
	Status        lesson.Status
	MediaURL      string
	MediaType     lesson.MediaType
	RunID         *uuid.UUID
	HasTranscript bool
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type LedgerEntrySnapshot struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Amount         int32
	BalanceAfter   int32
	Reason         credit.Reason
	IdempotencyKey *string
	PaymentRef     *string
	LessonID       *uuid.UUID
	CreatedAt      time.Time
}
