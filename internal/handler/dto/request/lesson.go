package request

import (
	"strings"

	"classcribe/internal/domain/lesson"

	"github.com/google/uuid"
)

type CreateLessonRequest struct {
	Title      string `json:"title" binding:"required,max=200"`
	Subject    string `json:"subject" binding:"max=100"`
	GradeLevel string `json:"grade_level" binding:"max=50"`
	MediaType  string `json:"media_type" binding:"required,oneof=audio video"`
}

func (r CreateLessonRequest) ToDomain(userID uuid.UUID, institutionID *uuid.UUID) (*lesson.Lesson, error) {
	return lesson.NewLesson(
		userID,
		institutionID,
		strings.TrimSpace(r.Title),
		strings.TrimSpace(r.Subject),
		strings.TrimSpace(r.GradeLevel),
		lesson.MediaType(r.MediaType),
	)
}

type AttachMediaRequest struct {
	MediaURL string `json:"media_url" binding:"required,url"`
}
