package api

import (
	"errors"
	"log/slog"
	"net/http"

	"classcribe/internal/domain/user"
	"classcribe/internal/handler/dto/request"
	"classcribe/internal/handler/dto/response"
	"classcribe/internal/handler/middleware"
	"classcribe/internal/pkg/errs"
	"classcribe/internal/usecase/commands"
	"classcribe/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LessonHandler struct {
	lessonCommands commands.LessonCommands
	lessonQueries  queries.LessonQueries
}

func NewLessonHandler(lessonCommands commands.LessonCommands, lessonQueries queries.LessonQueries) *LessonHandler {
	return &LessonHandler{
		lessonCommands: lessonCommands,
		lessonQueries:  lessonQueries,
	}
}

// Create registers a lesson and returns a signed media upload URL
// @Summary      Create lesson
// @Description  Create a lesson record and obtain a signed URL for the recording upload
// @Tags         lessons
// @Accept       json
// @Produce      json
// @Param        request body request.CreateLessonRequest true "Lesson details"
// @Success      201 {object} response.CreateLessonResponse
// @Failure      400 {object} map[string]string
// @Failure      401 {object} map[string]string
// @Security     BearerAuth
// @Router       /lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req request.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.lessonCommands.Create(c.Request.Context(), userID, nil, req)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrDomainValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lesson details"})
		default:
			slog.Error("failed to create lesson", "user_id", userID, "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create lesson"})
		}
		return
	}

	c.JSON(http.StatusCreated, response.CreateLessonResponse{
		Lesson:    *response.FromLessonView(result.Lesson),
		UploadURL: result.UploadURL,
	})
}

// Get returns a single lesson with transcript and analysis when present
// @Summary      Get lesson
// @Tags         lessons
// @Produce      json
// @Param        id path string true "Lesson ID"
// @Success      200 {object} response.LessonResponse
// @Failure      403 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Security     BearerAuth
// @Router       /lessons/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	lessonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lesson ID"})
		return
	}

	view, err := h.lessonQueries.GetByID(c.Request.Context(), userID, isAdmin(c), lessonID)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrNotLessonOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		default:
			c.JSON(http.StatusNotFound, gin.H{"error": "Lesson not found"})
		}
		return
	}

	c.JSON(http.StatusOK, response.FromLessonView(view))
}

// List returns the authenticated user's lessons, newest first
// @Summary      List lessons
// @Tags         lessons
// @Produce      json
// @Success      200 {array} response.LessonListResponse
// @Failure      401 {object} map[string]string
// @Security     BearerAuth
// @Router       /lessons [get]
func (h *LessonHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	views, err := h.lessonQueries.ListByUser(c.Request.Context(), userID)
	if err != nil {
		slog.Error("failed to list lessons", "user_id", userID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list lessons"})
		return
	}

	c.JSON(http.StatusOK, response.FromLessonListViews(views))
}

// Analyze debits one credit and starts the processing run
// @Summary      Request lesson analysis
// @Description  Debit the analysis fee and enqueue transcription for the lesson
// @Tags         lessons
// @Produce      json
// @Param        id path string true "Lesson ID"
// @Success      202 {object} response.AnalysisRequestedResponse
// @Failure      402 {object} map[string]string
// @Failure      409 {object} map[string]string
// @Failure      503 {object} map[string]string
// @Security     BearerAuth
// @Router       /lessons/{id}/analyze [post]
func (h *LessonHandler) Analyze(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	lessonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lesson ID"})
		return
	}

	result, err := h.lessonCommands.RequestAnalysis(c.Request.Context(), userID, lessonID)
	if err != nil {
		h.respondRunError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, response.AnalysisRequestedResponse{
		RunID:            result.RunID,
		RemainingCredits: result.RemainingCredits,
	})
}

// Reprocess resets a finished or failed lesson and starts a fresh run
// @Summary      Reprocess lesson
// @Description  Reset a terminal lesson and immediately start a new analysis run
// @Tags         lessons
// @Produce      json
// @Param        id path string true "Lesson ID"
// @Success      202 {object} response.AnalysisRequestedResponse
// @Failure      402 {object} map[string]string
// @Failure      409 {object} map[string]string
// @Failure      503 {object} map[string]string
// @Security     BearerAuth
// @Router       /lessons/{id}/reprocess [post]
func (h *LessonHandler) Reprocess(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	lessonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lesson ID"})
		return
	}

	result, err := h.lessonCommands.Reprocess(c.Request.Context(), userID, lessonID)
	if err != nil {
		h.respondRunError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, response.AnalysisRequestedResponse{
		RunID:            result.RunID,
		RemainingCredits: result.RemainingCredits,
	})
}

// Delete removes a lesson and all of its derived data
// @Summary      Delete lesson
// @Tags         lessons
// @Produce      json
// @Param        id path string true "Lesson ID"
// @Success      204
// @Failure      403 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Security     BearerAuth
// @Router       /lessons/{id} [delete]
func (h *LessonHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	lessonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lesson ID"})
		return
	}

	if err := h.lessonCommands.Delete(c.Request.Context(), userID, lessonID, isAdmin(c)); err != nil {
		switch {
		case errors.Is(err, errs.ErrLessonNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Lesson not found"})
		case errors.Is(err, errs.ErrNotLessonOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		default:
			slog.Error("failed to delete lesson", "lesson_id", lessonID, "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete lesson"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *LessonHandler) respondRunError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrLessonNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Lesson not found"})
	case errors.Is(err, errs.ErrNotLessonOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, errs.ErrLessonNotReady):
		c.JSON(http.StatusConflict, gin.H{"error": "Lesson is not ready for analysis"})
	case errors.Is(err, errs.ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Insufficient credits"})
	case errors.Is(err, commands.ErrPipelineBusy):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Processing queue is busy, please retry"})
	default:
		slog.Error("failed to start analysis run", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start analysis"})
	}
}

func isAdmin(c *gin.Context) bool {
	role, ok := middleware.GetUserRole(c)
	return ok && role == user.RoleAdmin
}
