package shared

import (
	"context"
	"time"

	"classcribe/internal/domain/credit"
	"classcribe/internal/domain/lesson"
	"classcribe/internal/domain/notification"
	"classcribe/internal/domain/user"
	"classcribe/internal/infra/db"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithDB: Single query operations using implicit transactions
	WithDB(ctx context.Context, fn func(ctx context.Context, db db.DBTX) error) error
	// CommandReads: Direct access to command reads for validation outside transactions
	CommandReads() CommandReads
}

type Tx interface {
	Lessons() LessonRepository
	Ledger() LedgerRepository
	Notifications() NotificationRepository
	Users() UserRepository
	Reads() CommandReads
	DB() db.DBTX
}

type CommandReads interface {
	LessonByID(ctx context.Context, id uuid.UUID) (*LessonSnapshot, error)
	BalanceByUser(ctx context.Context, userID uuid.UUID) (int32, error)
	LedgerEntryByKey(ctx context.Context, idempotencyKey string) (*LedgerEntrySnapshot, error)
	PreferenceFor(ctx context.Context, userID uuid.UUID, kind notification.Type) (notification.Preference, error)
}

type LessonRepository interface {
	Create(ctx context.Context, l *lesson.Lesson) (uuid.UUID, error)
	// UpdateStatus performs the persisted state-machine step guarded by the
	// expected current status; a stale precondition yields KindPrecondition.
	UpdateStatus(ctx context.Context, lessonID uuid.UUID, from, to lesson.Status) error
	BeginRun(ctx context.Context, lessonID, runID uuid.UUID) error
	AttachMedia(ctx context.Context, lessonID uuid.UUID, mediaURL string) error
	SaveTranscript(ctx context.Context, lessonID uuid.UUID, t lesson.Transcript) error
	SaveAnalysis(ctx context.Context, lessonID uuid.UUID, a lesson.Analysis) error
	SetFailureReason(ctx context.Context, lessonID uuid.UUID, reason string) error
	ResetForReprocess(ctx context.Context, lessonID uuid.UUID, from lesson.Status) error
	Delete(ctx context.Context, lessonID, userID uuid.UUID) error
}

type LedgerRepository interface {
	// Debit atomically decrements the cached balance iff it stays
	// non-negative, then appends the ledger row. Insufficient balance yields
	// KindPrecondition without touching anything.
	Debit(ctx context.Context, userID uuid.UUID, amount int32, reason credit.Reason, lessonID *uuid.UUID) (int32, error)
	// Credit increments the cached balance and appends the ledger row. A
	// duplicate idempotency key violates the unique constraint and aborts
	// the surrounding transaction with KindDuplicateKey.
	Credit(ctx context.Context, userID uuid.UUID, amount int32, reason credit.Reason, idempotencyKey, paymentRef *string, lessonID *uuid.UUID) (int32, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *notification.Notification) (uuid.UUID, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID, at time.Time) error
	MarkEmailSent(ctx context.Context, id uuid.UUID, at time.Time) error
}

type UserRepository interface {
	Create(ctx context.Context, u *user.User) (uuid.UUID, error)
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
}
