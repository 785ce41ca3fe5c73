package readstore

import (
	"context"

	"classcribe/internal/domain/lesson"
	"classcribe/internal/infra"
	"classcribe/internal/infra/db"
	"classcribe/internal/usecase/queries"
	"classcribe/internal/usecase/shared"

	"github.com/google/uuid"
)

type LessonReadStore struct {
	db db.DBTX
}

func NewLessonReadStore(dbtx db.DBTX) *LessonReadStore {
	return &LessonReadStore{db: dbtx}
}

func (s *LessonReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.LessonView, error) {
	const q = `
		SELECT id, user_id, institution_id, title, subject, grade_level, status,
		       media_url, media_type,
		       transcript_text, transcript_language, transcript_confidence,
		       analysis_result, analysis_model, failure_reason,
		       created_at, updated_at
		FROM lessons
		WHERE id = $1`

	var v queries.LessonView
	err := s.db.QueryRow(ctx, q, id).Scan(
		&v.ID, &v.UserID, &v.InstitutionID, &v.Title, &v.Subject, &v.GradeLevel, &v.Status,
		&v.MediaURL, &v.MediaType,
		&v.TranscriptText, &v.TranscriptLanguage, &v.TranscriptConfidence,
		&v.AnalysisResult, &v.AnalysisModel, &v.FailureReason,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("lesson not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find lesson", err)
	}

	return &v, nil
}

func (s *LessonReadStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]queries.LessonListView, error) {
	const q = `
		SELECT id, title, subject, status, created_at, updated_at
		FROM lessons
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, q, userID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list lessons", err)
	}
	defer rows.Close()

	out := make([]queries.LessonListView, 0)
	for rows.Next() {
		var v queries.LessonListView
		if err := rows.Scan(&v.ID, &v.Title, &v.Subject, &v.Status, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan lesson row", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate lesson rows", err)
	}

	return out, nil
}

// SnapshotByID backs command-side validation. Statuses stored by this service
// are always members of the closed set, so an unparsable value is data
// corruption, not user error.
func (s *LessonReadStore) SnapshotByID(ctx context.Context, id uuid.UUID) (*shared.LessonSnapshot, error) {
	const q = `
		SELECT id, user_id, institution_id, title, subject, grade_level, status,
		       media_url, media_type, run_id,
		       transcript_text IS NOT NULL, failure_reason,
		       created_at, updated_at
		FROM lessons
		WHERE id = $1`

	var (
		snap      shared.LessonSnapshot
		rawStatus string
		rawMedia  string
	)
	err := s.db.QueryRow(ctx, q, id).Scan(
		&snap.ID, &snap.UserID, &snap.InstitutionID, &snap.Title, &snap.Subject, &snap.GradeLevel, &rawStatus,
		&snap.MediaURL, &rawMedia, &snap.RunID,
		&snap.HasTranscript, &snap.FailureReason,
		&snap.CreatedAt, &snap.UpdatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("lesson not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to snapshot lesson", err)
	}

	st := lesson.Status(rawStatus)
	if !st.IsValid() {
		return nil, infra.WrapRepoErr("lesson row carries unknown status", nil, infra.KindDBFailure)
	}
	snap.Status = st
	snap.MediaType = lesson.MediaType(rawMedia)

	return &snap, nil
}
