package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"classcribe/internal/handler/dto/response"
	"classcribe/internal/handler/middleware"
	"classcribe/internal/usecase/commands"
	"classcribe/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	notificationCommands commands.NotificationCommands
	notificationQueries  queries.NotificationQueries
}

func NewNotificationHandler(
	notificationCommands commands.NotificationCommands,
	notificationQueries queries.NotificationQueries,
) *NotificationHandler {
	return &NotificationHandler{
		notificationCommands: notificationCommands,
		notificationQueries:  notificationQueries,
	}
}

// List returns the authenticated user's notifications, newest first
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Param        unread_only query bool false "Only return unread notifications"
// @Param        limit query int false "Maximum entries to return (default 50)"
// @Success      200 {array} response.NotificationResponse
// @Failure      401 {object} map[string]string
// @Security     BearerAuth
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	unreadOnly := c.Query("unread_only") == "true"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	views, err := h.notificationQueries.ListByUser(c.Request.Context(), userID, unreadOnly, limit)
	if err != nil {
		slog.Error("failed to list notifications", "user_id", userID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list notifications"})
		return
	}

	c.JSON(http.StatusOK, response.FromNotificationViews(views))
}

// MarkRead marks one of the user's notifications as read
// @Summary      Mark notification read
// @Tags         notifications
// @Produce      json
// @Param        id path string true "Notification ID"
// @Success      204
// @Failure      404 {object} map[string]string
// @Security     BearerAuth
// @Router       /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
		return
	}

	if err := h.notificationCommands.MarkRead(c.Request.Context(), userID, notificationID); err != nil {
		switch {
		case errors.Is(err, commands.ErrNotificationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		default:
			slog.Error("failed to mark notification read", "notification_id", notificationID, "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notification read"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}
