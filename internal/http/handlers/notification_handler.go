package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"twende/internal/http/middleware"
	"twende/internal/modules/notify"
	"twende/internal/types"
)

type NotificationHandler struct {
	notify *notify.Service
}

func NewNotificationHandler(svc *notify.Service) *NotificationHandler {
	return &NotificationHandler{notify: svc}
}

func (h *NotificationHandler) List(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	items, err := h.notify.ListForUser(c.Request.Context(),
		types.ID(middleware.CallerUID(c)), unreadOnly)
	if err != nil {
		writeNotifyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	err := h.notify.MarkRead(c.Request.Context(),
		types.ID(c.Param("id")), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeNotifyError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
