package queries

import (
	"context"

	"classcribe/internal/pkg/errs"

	"github.com/google/uuid"
)

type LessonQueries interface {
	GetByID(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID) (*LessonView, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]LessonListView, error)
}

type LessonViewRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*LessonView, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]LessonListView, error)
}

type lessonQueriesImpl struct {
	repo LessonViewRepo
}

func NewLessonQueries(repo LessonViewRepo) LessonQueries {
	return &lessonQueriesImpl{repo: repo}
}

func (q *lessonQueriesImpl) GetByID(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID) (*LessonView, error) {
	v, err := q.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.UserID != actorID && !isAdmin {
		return nil, errs.ErrNotLessonOwner
	}
	return v, nil
}

func (q *lessonQueriesImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]LessonListView, error) {
	return q.repo.ListByUser(ctx, userID)
}
