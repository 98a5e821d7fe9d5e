package handlers

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/letterpress"
	"github.com/dmitrymomot/letterpress/internal"
	"github.com/dmitrymomot/letterpress/pkg/favourites"
)

type favouriteResponse struct {
	ID        string `json:"id"`
	Favourite bool   `json:"favourite"`
}

// FavouritesHandler exposes the favourites set.
type FavouritesHandler struct {
	svc *letterpress.Service
}

func NewFavouritesHandler(svc *letterpress.Service) *FavouritesHandler {
	return &FavouritesHandler{svc: svc}
}

func (h *FavouritesHandler) Routes(r internal.Router) {
	r.Route("/api/favourites", func(r internal.Router) {
		r.GET("/", h.list)
		r.GET("/{id}", h.get)
		r.POST("/{id}/toggle", h.toggle)
	})
}

func (h *FavouritesHandler) list(c internal.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"favourites": h.svc.Favourites()})
}

func (h *FavouritesHandler) get(c internal.Context) error {
	id := pathParam(c, "id")
	return c.JSON(http.StatusOK, favouriteResponse{ID: id, Favourite: h.svc.IsFavourite(id)})
}

func (h *FavouritesHandler) toggle(c internal.Context) error {
	id := pathParam(c, "id")
	on, err := h.svc.ToggleFavourite(c, id)
	if err != nil {
		if errors.Is(err, favourites.ErrEmptyID) {
			return internal.ErrBadRequest("empty identifier", internal.WithError(err))
		}
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, favouriteResponse{ID: id, Favourite: on})
}
