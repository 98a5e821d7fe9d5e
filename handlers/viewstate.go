package handlers

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/letterpress"
	"github.com/dmitrymomot/letterpress/internal"
	"github.com/dmitrymomot/letterpress/pkg/viewstate"
)

// ViewStateHandler reads and updates the remembered selections.
type ViewStateHandler struct {
	svc *letterpress.Service
}

func NewViewStateHandler(svc *letterpress.Service) *ViewStateHandler {
	return &ViewStateHandler{svc: svc}
}

func (h *ViewStateHandler) Routes(r internal.Router) {
	r.Route("/api/view-state", func(r internal.Router) {
		r.GET("/", h.get)
		r.PATCH("/", h.patch)
		r.DELETE("/", h.clear)
	})
}

func (h *ViewStateHandler) get(c internal.Context) error {
	st, err := h.svc.ViewState()
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, st)
}

// patch accepts an object of field names to strings or null and schedules
// a debounced write.
func (h *ViewStateHandler) patch(c internal.Context) error {
	var p viewstate.Patch
	if err := c.BindJSON(&p); err != nil {
		return badBody(err)
	}
	if len(p) == 0 {
		return internal.ErrBadRequest("patch is empty")
	}
	if err := h.svc.ScheduleViewStateUpdate(p); err != nil {
		if errors.Is(err, viewstate.ErrUnknownField) {
			return internal.ErrUnprocessable(err.Error(), internal.WithErrorCode("unknown_field"), internal.WithError(err))
		}
		return serviceError(err)
	}
	return c.JSON(http.StatusAccepted, map[string][]viewstate.Field{"scheduled": p.Fields()})
}

func (h *ViewStateHandler) clear(c internal.Context) error {
	if err := h.svc.ClearViewState(c); err != nil {
		if errors.Is(err, letterpress.ErrNotStarted) {
			return serviceError(err)
		}
		return internal.ErrBadGateway("view state could not be cleared", internal.WithError(err))
	}
	return c.NoContent(http.StatusNoContent)
}
