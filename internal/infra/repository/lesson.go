package repository

import (
	"context"

	"classcribe/internal/domain/lesson"
	"classcribe/internal/infra"
	"classcribe/internal/infra/db"

	"github.com/google/uuid"
)

type LessonRepository struct {
	db db.DBTX
}

func NewLessonRepository(dbtx db.DBTX) *LessonRepository {
	return &LessonRepository{db: dbtx}
}

func (r *LessonRepository) Create(ctx context.Context, l *lesson.Lesson) (uuid.UUID, error) {
	const q = `
		INSERT INTO lessons (id, user_id, institution_id, title, subject, grade_level, status, media_url, media_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, q,
		l.ID(), l.UserID(), l.InstitutionID(), l.Title(), l.Subject(), l.GradeLevel(),
		l.Status().String(), l.MediaURL(), string(l.MediaType()),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to create lesson", err)
	}

	return id, nil
}

// UpdateStatus is the persisted edge of the state machine: the WHERE clause
// on the expected current status makes concurrent transitions race to one
// winner instead of silently overwriting each other.
func (r *LessonRepository) UpdateStatus(ctx context.Context, lessonID uuid.UUID, from, to lesson.Status) error {
	if !from.CanTransitionTo(to) {
		return infra.WrapRepoErr("illegal lesson status transition", nil, infra.KindPrecondition)
	}

	const q = `
		UPDATE lessons SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`

	tag, err := r.db.Exec(ctx, q, lessonID, from.String(), to.String())
	if err != nil {
		return infra.WrapRepoErr("failed to update lesson status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("lesson status precondition failed", nil, infra.KindPrecondition)
	}

	return nil
}

func (r *LessonRepository) BeginRun(ctx context.Context, lessonID, runID uuid.UUID) error {
	const q = `UPDATE lessons SET run_id = $2, updated_at = now() WHERE id = $1`

	tag, err := r.db.Exec(ctx, q, lessonID, runID)
	if err != nil {
		return infra.WrapRepoErr("failed to set lesson run id", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("lesson not found", nil, infra.KindNotFound)
	}

	return nil
}

func (r *LessonRepository) AttachMedia(ctx context.Context, lessonID uuid.UUID, mediaURL string) error {
	const q = `UPDATE lessons SET media_url = $2, updated_at = now() WHERE id = $1`

	tag, err := r.db.Exec(ctx, q, lessonID, mediaURL)
	if err != nil {
		return infra.WrapRepoErr("failed to attach lesson media", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("lesson not found", nil, infra.KindNotFound)
	}

	return nil
}

func (r *LessonRepository) SaveTranscript(ctx context.Context, lessonID uuid.UUID, t lesson.Transcript) error {
	const q = `
		UPDATE lessons
		SET transcript_text = $2, transcript_language = $3, transcript_confidence = $4, updated_at = now()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, q, lessonID, t.Text, t.Language, t.Confidence)
	if err != nil {
		return infra.WrapRepoErr("failed to save transcript", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("lesson not found", nil, infra.KindNotFound)
	}

	return nil
}

func (r *LessonRepository) SaveAnalysis(ctx context.Context, lessonID uuid.UUID, a lesson.Analysis) error {
	const q = `
		UPDATE lessons
		SET analysis_result = $2, analysis_model = $3, analysis_tokens_used = $4, analysis_time_ms = $5, updated_at = now()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, q, lessonID, a.Result, a.Model, a.TokensUsed, a.ProcessingTimeMs)
	if err != nil {
		return infra.WrapRepoErr("failed to save analysis", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("lesson not found", nil, infra.KindNotFound)
	}

	return nil
}

func (r *LessonRepository) SetFailureReason(ctx context.Context, lessonID uuid.UUID, reason string) error {
	const q = `UPDATE lessons SET failure_reason = $2, updated_at = now() WHERE id = $1`

	tag, err := r.db.Exec(ctx, q, lessonID, reason)
	if err != nil {
		return infra.WrapRepoErr("failed to set failure reason", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("lesson not found", nil, infra.KindNotFound)
	}

	return nil
}

// ResetForReprocess clears pipeline outputs and returns the lesson to
// pending. Guarded on the terminal status it is leaving.
func (r *LessonRepository) ResetForReprocess(ctx context.Context, lessonID uuid.UUID, from lesson.Status) error {
	if !from.IsTerminal() {
		return infra.WrapRepoErr("reprocess requires a terminal status", nil, infra.KindPrecondition)
	}

	const q = `
		UPDATE lessons
		SET status = 'pending', run_id = NULL,
		    transcript_text = NULL, transcript_language = NULL, transcript_confidence = NULL,
		    analysis_result = NULL, analysis_model = NULL, analysis_tokens_used = NULL, analysis_time_ms = NULL,
		    failure_reason = '', updated_at = now()
		WHERE id = $1 AND status = $2`

	tag, err := r.db.Exec(ctx, q, lessonID, from.String())
	if err != nil {
		return infra.WrapRepoErr("failed to reset lesson for reprocess", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("lesson status precondition failed", nil, infra.KindPrecondition)
	}

	return nil
}

func (r *LessonRepository) Delete(ctx context.Context, lessonID, userID uuid.UUID) error {
	const q = `DELETE FROM lessons WHERE id = $1 AND user_id = $2`

	tag, err := r.db.Exec(ctx, q, lessonID, userID)
	if err != nil {
		return infra.WrapRepoErr("failed to delete lesson", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("lesson not found", nil, infra.KindNotFound)
	}

	return nil
}
