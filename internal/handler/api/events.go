package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"classcribe/internal/handler/middleware"
	"classcribe/internal/pipeline/events"
	"classcribe/internal/pkg/errs"
	"classcribe/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const heartbeatInterval = 15 * time.Second

type EventsHandler struct {
	hub           *events.Hub
	lessonQueries queries.LessonQueries
}

func NewEventsHandler(hub *events.Hub, lessonQueries queries.LessonQueries) *EventsHandler {
	return &EventsHandler{hub: hub, lessonQueries: lessonQueries}
}

// LessonEvents streams lesson status updates over SSE
// @Summary      Lesson event stream
// @Description  Server-sent events for one lesson's pipeline progress
// @Tags         events
// @Produce      text/event-stream
// @Param        id path string true "Lesson ID"
// @Failure      403 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Security     BearerAuth
// @Router       /lessons/{id}/events [get]
func (h *EventsHandler) LessonEvents(c *gin.Context) {
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

	// Ownership gate before the stream is opened.
	if _, err := h.lessonQueries.GetByID(c.Request.Context(), userID, isAdmin(c), lessonID); err != nil {
		switch {
		case errors.Is(err, errs.ErrNotLessonOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		default:
			c.JSON(http.StatusNotFound, gin.H{"error": "Lesson not found"})
		}
		return
	}

	h.stream(c, events.LessonTopic(lessonID))
}

// UserEvents streams account-level events over SSE
// @Summary      User event stream
// @Description  Server-sent events for the authenticated user's account
// @Tags         events
// @Produce      text/event-stream
// @Failure      401 {object} map[string]string
// @Security     BearerAuth
// @Router       /users/me/events [get]
func (h *EventsHandler) UserEvents(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	h.stream(c, events.UserTopic(userID))
}

// stream subscribes to topic and forwards events until the client goes away
// or the hub evicts the subscription for falling behind.
func (h *EventsHandler) stream(c *gin.Context, topic string) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	sub := h.hub.Subscribe(topic)
	defer sub.Close()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt, open := <-sub.C:
			if !open {
				return
			}
			if err := writeSSE(c.Writer, evt); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(c.Writer, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, evt events.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\nid: %s\ndata: %s\n\n", evt.Kind, evt.ID, data)
	return err
}
