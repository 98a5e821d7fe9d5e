// Package internal is the HTTP layer of the letterpress server.
//
// It wraps a chi router with a small handler model: handlers receive a
// Context, return an error, and leave rendering of failures to a single
// ErrorHandler. Route groups are declared by types implementing Handler:
//
//	type FavouritesHandler struct {
//	    svc *letterpress.Service
//	}
//
//	func (h *FavouritesHandler) Routes(r internal.Router) {
//	    r.GET("/api/favourites", h.list)
//	    r.POST("/api/favourites/{id}/toggle", h.toggle)
//	}
//
// Context embeds context.Context, so it can be passed directly to the
// service and the stores:
//
//	func (h *FavouritesHandler) toggle(c internal.Context) error {
//	    on, err := h.svc.ToggleFavourite(c, c.Param("id"))
//	    if err != nil {
//	        return internal.ErrBadRequest(err.Error(), internal.WithError(err))
//	    }
//	    return c.JSON(http.StatusOK, favouriteResponse{ID: c.Param("id"), Favourite: on})
//	}
//
// App.Run listens, serves until SIGINT or SIGTERM, then shuts the server
// down and runs shutdown hooks in registration order.
package internal
