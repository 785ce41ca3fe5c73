package response

import (
	"encoding/json"
	"time"

	"classcribe/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type LessonResponse struct {
	ID                   uuid.UUID       `json:"id"`
	UserID               uuid.UUID       `json:"userId"`
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

type LessonListResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Subject   string    `json:"subject"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateLessonResponse struct {
	Lesson    LessonResponse `json:"lesson"`
	UploadURL string         `json:"uploadUrl"`
}

type AnalysisRequestedResponse struct {
	RunID            uuid.UUID `json:"runId"`
	RemainingCredits int32     `json:"remainingCredits"`
}

func FromLessonView(view *queries.LessonView) *LessonResponse {
	var resp LessonResponse
	_ = copier.Copy(&resp, view)
	return &resp
}

func FromLessonListViews(views []queries.LessonListView) []LessonListResponse {
	out := make([]LessonListResponse, 0, len(views))
	_ = copier.Copy(&out, views)
	return out
}
