package queries

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type LessonView struct {
	ID                   uuid.UUID       `json:"id"`
	UserID               uuid.UUID       `json:"userId"`
	InstitutionID        *uuid.UUID      `json:"institutionId,omitempty"`
	Title                string          `json:"title"`
	Subject              string          `json:"subject"`
	GradeLevel           string          `json:"gradeLevel"`
	Status               string          `json:"status"`
	MediaURL             string          `json:"mediaUrl"`
	MediaType            string          `json:"mediaType"`
	TranscriptText       *string         `json:"transcriptText,omitempty"`
	TranscriptLanguage   *string         `json:"transcriptLanguage,omitempty"`
	TranscriptConfidence *float64        `json:"transcriptConfidence,omitempty"`
	AnalysisResult       json.RawMessage `json:"analysisResult,omitempty"`
	AnalysisModel        *string         `json:"analysisModel,omitempty"`
	FailureReason        string          `json:"failureReason,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

type LessonListView struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Subject   string    `json:"subject"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type TransactionView struct {
	ID           uuid.UUID  `json:"id"`
	Amount       int32      `json:"amount"`
	BalanceAfter int32      `json:"balanceAfter"`
	Reason       string     `json:"reason"`
	PaymentRef   *string    `json:"paymentRef,omitempty"`
	LessonID     *uuid.UUID `json:"lessonId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type NotificationView struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Message     string          `json:"message"`
	Data        json.RawMessage `json:"data,omitempty"`
	ReadAt      *time.Time      `json:"readAt,omitempty"`
	EmailSentAt *time.Time      `json:"emailSentAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// UserCredentials is the login-time row: never serialized, never cached.
type UserCredentials struct {
	ID           uuid.UUID
	Email        string
	Role         string
	PasswordHash string
	IsActive     bool
}

type AuthorizedUserView struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	InstitutionID *uuid.UUID `json:"institutionId,omitempty"`
	IsActive      bool       `json:"isActive"`
	CreditBalance int32      `json:"creditBalance"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`
}
