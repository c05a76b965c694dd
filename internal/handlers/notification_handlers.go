package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/01moynul/brandstudio-golang/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Notification Handlers ---
//

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// AddNotification creates a notification for userID. It is called by other
// handlers, usually inside their transaction. An empty link is stored as NULL.
func AddNotification(ctx context.Context, ex Execer, userID int64, message, link string) error {
	var nullLink sql.NullString
	if link != "" {
		nullLink = sql.NullString{String: link, Valid: true}
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO notifications (user_id, message, link, is_read, created_at)
		VALUES (?, ?, ?, 0, ?)`,
		userID, message, nullLink, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add notification: %w", err)
	}
	return nil
}

const notificationPageSize = 50

// GetMyNotifications is the handler for GET /v1/notifications.
// The page lists unread first, then newest first. The unread count covers
// every notification of the user, not only the page.
func (h *Handlers) GetMyNotifications(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetInt64("userID")
	rows, err := h.DB.QueryContext(ctx, `
		SELECT id, user_id, message, link, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY is_read ASC, created_at DESC
		LIMIT ?`, userID, notificationPageSize)
	if err != nil {
		h.serverError(c, "list notifications", err)
		return
	}
	defer rows.Close()

	notifications := []*models.Notification{}
	for rows.Next() {
		var notif models.Notification
		if err := rows.Scan(&notif.ID, &notif.UserID, &notif.Message, &notif.Link, &notif.IsRead, &notif.CreatedAt); err != nil {
			h.serverError(c, "scan notification", err)
			return
		}
		notifications = append(notifications, &notif)
	}
	if err := rows.Err(); err != nil {
		h.serverError(c, "iterate notifications", err)
		return
	}

	var unread int
	if err := h.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0", userID).Scan(&unread); err != nil {
		h.serverError(c, "count unread notifications", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"unread":        unread,
	})
}

// MarkNotificationAsRead is the handler for PATCH /v1/notifications/:id/read.
// The user_id condition keeps users from touching each other's rows.
func (h *Handlers) MarkNotificationAsRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	res, err := h.DB.ExecContext(c.Request.Context(),
		"UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?",
		id, c.GetInt64("userID"))
	if err != nil {
		h.serverError(c, "mark notification", err)
		return
	}
	if h.notFoundIfNone(c, res, "Notification introuvable") {
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification lue"})
}
