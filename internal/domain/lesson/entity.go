package lesson

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyTitle        = errors.New("lesson title must not be empty")
	ErrInvalidMediaType  = errors.New("invalid media type")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrNotTerminal       = errors.New("lesson is not in a terminal state")
	ErrMediaMissing      = errors.New("lesson has no uploaded media")
)

type Transcript struct {
	Text       string
	Language   string
	Confidence float64
}

type Analysis struct {
	Result           []byte // JSON document from the analysis provider
	Model            string
	TokensUsed       int
	ProcessingTimeMs int64
}

type Lesson struct {
	id            uuid.UUID
	userID        uuid.UUID
	institutionID *uuid.UUID
	title         string
	subject       string
	gradeLevel    string
	status        Status
	mediaURL      string
	mediaType     MediaType
	runID         *uuid.UUID
	transcript    *Transcript
	analysis      *Analysis
	failureReason string
	createdAt     time.Time
	updatedAt     time.Time
}

func NewLesson(userID uuid.UUID, institutionID *uuid.UUID, title, subject, gradeLevel string, mediaType MediaType) (*Lesson, error) {
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if !mediaType.IsValid() {
		return nil, ErrInvalidMediaType
	}

	return &Lesson{
		id:            uuid.New(),
		userID:        userID,
		institutionID: institutionID,
		title:         title,
		subject:       subject,
		gradeLevel:    gradeLevel,
		status:        StatusPending,
		mediaType:     mediaType,
	}, nil
}

func ReconstructLesson(
	id, userID uuid.UUID,
	institutionID *uuid.UUID,
	title, subject, gradeLevel string,
	status Status,
	mediaURL string,
	mediaType MediaType,
	runID *uuid.UUID,
	transcript *Transcript,
	analysis *Analysis,
	failureReason string,
	createdAt, updatedAt time.Time,
) *Lesson {
	return &Lesson{
		id:            id,
		userID:        userID,
		institutionID: institutionID,
		title:         title,
		subject:       subject,
		gradeLevel:    gradeLevel,
		status:        status,
		mediaURL:      mediaURL,
		mediaType:     mediaType,
		runID:         runID,
		transcript:    transcript,
		analysis:      analysis,
		failureReason: failureReason,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// TransitionTo applies one state-machine step. Illegal targets leave the
// lesson untouched.
func (l *Lesson) TransitionTo(target Status) error {
	if !target.IsValid() {
		return ErrIllegalTransition
	}
	if !l.status.CanTransitionTo(target) {
		return ErrIllegalTransition
	}
	l.status = target
	return nil
}

// BeginProcessing stamps a fresh run id and moves pending → uploading.
// The run id scopes the debit/refund pair for this processing attempt.
func (l *Lesson) BeginProcessing() (uuid.UUID, error) {
	if l.mediaURL == "" {
		return uuid.Nil, ErrMediaMissing
	}
	if err := l.TransitionTo(StatusUploading); err != nil {
		return uuid.Nil, err
	}
	run := uuid.New()
	l.runID = &run
	return run, nil
}

// ResetForReprocess is the only path back into pending: terminal states
// only, clears prior pipeline outputs and job state.
func (l *Lesson) ResetForReprocess() error {
	if !l.status.IsTerminal() {
		return ErrNotTerminal
	}
	l.status = StatusPending
	l.runID = nil
	l.transcript = nil
	l.analysis = nil
	l.failureReason = ""
	return nil
}

func (l *Lesson) AttachMedia(url string) {
	l.mediaURL = url
}

func (l *Lesson) SetTranscript(t Transcript) {
	l.transcript = &t
}

func (l *Lesson) SetAnalysis(a Analysis) {
	l.analysis = &a
}

func (l *Lesson) MarkFailed(reason string) error {
	if err := l.TransitionTo(StatusFailed); err != nil {
		return err
	}
	l.failureReason = reason
	return nil
}

func (l *Lesson) IsOwnedBy(userID uuid.UUID) bool {
	return l.userID == userID
}

func (l *Lesson) ID() uuid.UUID             { return l.id }
func (l *Lesson) UserID() uuid.UUID         { return l.userID }
func (l *Lesson) InstitutionID() *uuid.UUID { return l.institutionID }
func (l *Lesson) Title() string             { return l.title }
func (l *Lesson) Subject() string           { return l.subject }
func (l *Lesson) GradeLevel() string        { return l.gradeLevel }
func (l *Lesson) Status() Status            { return l.status }
func (l *Lesson) MediaURL() string          { return l.mediaURL }
func (l *Lesson) MediaType() MediaType      { return l.mediaType }
func (l *Lesson) RunID() *uuid.UUID         { return l.runID }
func (l *Lesson) Transcript() *Transcript   { return l.transcript }
func (l *Lesson) Analysis() *Analysis       { return l.analysis }
func (l *Lesson) FailureReason() string     { return l.failureReason }
func (l *Lesson) CreatedAt() time.Time      { return l.createdAt }
func (l *Lesson) UpdatedAt() time.Time      { return l.updatedAt }
