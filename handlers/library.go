package handlers

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/letterpress"
	"github.com/dmitrymomot/letterpress/internal"
	"github.com/dmitrymomot/letterpress/pkg/library"
	"github.com/dmitrymomot/letterpress/pkg/notify"
)

type templateItem struct {
	Name         string `json:"name"`
	Subject      string `json:"subject,omitempty"`
	Content      string `json:"content"`
	LastModified string `json:"last_modified,omitempty"`
	Favourite    bool   `json:"favourite"`
}

type templateRequest struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// LibraryHandler serves templates, profiles, phrases and locations.
type LibraryHandler struct {
	svc *letterpress.Service
	lib *library.Library
}

func NewLibraryHandler(svc *letterpress.Service, lib *library.Library) *LibraryHandler {
	return &LibraryHandler{svc: svc, lib: lib}
}

func (h *LibraryHandler) Routes(r internal.Router) {
	r.Route("/api/templates", func(r internal.Router) {
		r.GET("/", h.listTemplates)
		r.GET("/{name}", h.getTemplate)
		r.PUT("/{name}", h.saveTemplate)
	})
	r.Route("/api/profiles", func(r internal.Router) {
		r.GET("/", h.listProfiles)
		r.GET("/{name}", h.getProfile)
		r.PUT("/{name}", h.saveProfile)
		r.DELETE("/{name}", h.deleteProfile)
	})
	r.GET("/api/phrases/openings", h.openings)
	r.GET("/api/phrases/closings", h.closings)
	r.GET("/api/locations", h.locations)
}

// listTemplates filters by ?q= and lists favourites first.
func (h *LibraryHandler) listTemplates(c internal.Context) error {
	all, err := h.lib.Templates(c)
	if err != nil {
		return err
	}
	list := library.FilterTemplates(all, c.Query("q"))
	library.SortTemplates(list, h.svc.IsFavourite)

	items := make([]templateItem, 0, len(list))
	for _, t := range list {
		items = append(items, h.item(t))
	}
	return c.JSON(http.StatusOK, items)
}

func (h *LibraryHandler) getTemplate(c internal.Context) error {
	t, err := h.lib.Template(c, pathParam(c, "name"))
	if err != nil {
		return libraryError(err)
	}
	return c.JSON(http.StatusOK, h.item(t))
}

func (h *LibraryHandler) saveTemplate(c internal.Context) error {
	var req templateRequest
	if err := c.BindJSON(&req); err != nil {
		return badBody(err)
	}

	t, err := h.lib.SaveTemplate(c, library.Template{
		Name:    pathParam(c, "name"),
		Subject: req.Subject,
		Content: req.Content,
	})
	if err != nil {
		h.svc.Notify(c, notify.Danger, MsgSaveFailed)
		return libraryError(err)
	}
	h.svc.Notify(c, notify.Success, notify.MsgSaved)
	return c.JSON(http.StatusOK, h.item(t))
}

func (h *LibraryHandler) item(t library.Template) templateItem {
	it := templateItem{
		Name:      t.Name,
		Subject:   t.Subject,
		Content:   t.Content,
		Favourite: h.svc.IsFavourite(t.Name),
	}
	if !t.LastModified.IsZero() {
		it.LastModified = t.LastModified.Local().Format(library.TimestampLayout)
	}
	return it
}

func (h *LibraryHandler) listProfiles(c internal.Context) error {
	names, err := h.lib.Profiles(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, names)
}

func (h *LibraryHandler) getProfile(c internal.Context) error {
	p, err := h.lib.Profile(c, pathParam(c, "name"))
	if err != nil {
		return libraryError(err)
	}
	return c.JSON(http.StatusOK, p)
}

// saveProfile stores the body under the name in the path.
func (h *LibraryHandler) saveProfile(c internal.Context) error {
	var p library.ProfileFile
	if err := c.BindJSON(&p); err != nil {
		return badBody(err)
	}
	p.SignatureName = pathParam(c, "name")

	saved, err := h.lib.SaveProfile(c, p)
	if err != nil {
		if !errors.Is(err, library.ErrInvalidProfile) {
			h.svc.Notify(c, notify.Danger, MsgSaveFailed)
		}
		return libraryError(err)
	}
	h.svc.Notify(c, notify.Success, notify.MsgSaved)
	return c.JSON(http.StatusOK, saved)
}

func (h *LibraryHandler) deleteProfile(c internal.Context) error {
	name := pathParam(c, "name")
	if err := h.lib.DeleteProfile(c, name); err != nil {
		h.svc.Notify(c, notify.Danger, MsgDeleteFailed)
		return libraryError(err)
	}
	h.svc.Notify(c, notify.Success, notify.MsgDeleted(name))
	return c.NoContent(http.StatusNoContent)
}

func (h *LibraryHandler) openings(c internal.Context) error {
	return c.JSON(http.StatusOK, h.lib.Openings(c))
}

func (h *LibraryHandler) closings(c internal.Context) error {
	return c.JSON(http.StatusOK, h.lib.Closings(c))
}

func (h *LibraryHandler) locations(c internal.Context) error {
	locations, err := h.lib.Locations(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, locations)
}

func libraryError(err error) error {
	switch {
	case errors.Is(err, library.ErrTemplateNotFound):
		return internal.ErrNotFound("template not found", internal.WithError(err))
	case errors.Is(err, library.ErrProfileNotFound):
		return internal.ErrNotFound("profile not found", internal.WithError(err))
	case errors.Is(err, library.ErrInvalidProfile), errors.Is(err, library.ErrInvalidFrontmatter):
		return internal.ErrUnprocessable(err.Error(), internal.WithError(err))
	default:
		return err
	}
}
