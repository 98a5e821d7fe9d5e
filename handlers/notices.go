package handlers

import (
	"net/http"

	"github.com/dmitrymomot/letterpress/internal"
	"github.com/dmitrymomot/letterpress/pkg/notify"
)

// NoticesHandler lists and dismisses active notices.
type NoticesHandler struct {
	center *notify.Center
}

func NewNoticesHandler(center *notify.Center) *NoticesHandler {
	return &NoticesHandler{center: center}
}

func (h *NoticesHandler) Routes(r internal.Router) {
	r.GET("/api/notices", h.list)
	r.DELETE("/api/notices/{id}", h.dismiss)
}

func (h *NoticesHandler) list(c internal.Context) error {
	notices := h.center.Active()
	if notices == nil {
		notices = []notify.Notice{}
	}
	return c.JSON(http.StatusOK, notices)
}

func (h *NoticesHandler) dismiss(c internal.Context) error {
	if !h.center.Dismiss(c.Param("id")) {
		return internal.ErrNotFound("notice not found")
	}
	return c.NoContent(http.StatusNoContent)
}
