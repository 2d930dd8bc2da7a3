package event

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/citybites/site/internal/response"
)

// URLResolver turns a stored path into a public URL.
type URLResolver interface {
	PublicURL(key string) string
}

// Handler holds HTTP handlers for event endpoints.
type Handler struct {
	svc  *Service
	urls URLResolver
}

// NewHandler creates a new event Handler.
func NewHandler(svc *Service, urls URLResolver) *Handler {
	return &Handler{svc: svc, urls: urls}
}

// View is an event with resolved media URLs.
type View struct {
	Event
	CoverURL    string   `json:"coverUrl,omitempty"`
	GalleryURLs []string `json:"galleryUrls"`
}

func (h *Handler) view(e Event) View {
	v := View{Event: e, GalleryURLs: make([]string, 0, len(e.GalleryPaths))}
	if e.CoverPath != nil {
		v.CoverURL = h.urls.PublicURL(*e.CoverPath)
	}
	for _, p := range e.GalleryPaths {
		v.GalleryURLs = append(v.GalleryURLs, h.urls.PublicURL(p))
	}
	return v
}

// List godoc
//
//	@Summary	List events
//	@Tags		events
//	@Produce	json
//	@Param		upcoming	query		bool	false	"Only events that are not over yet"
//	@Success	200			{object}	response.Envelope{data=[]View}
//	@Router		/events [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	upcoming := r.URL.Query().Get("upcoming") == "true"
	list, err := h.svc.List(r.Context(), upcoming)
	if err != nil {
		response.InternalError(w)
		return
	}
	out := make([]View, 0, len(list))
	for _, e := range list {
		out = append(out, h.view(e))
	}
	response.OK(w, out)
}

// Get godoc
//
//	@Summary	Get an event
//	@Tags		events
//	@Produce	json
//	@Param		id	path		string	true	"Event ID"
//	@Success	200	{object}	response.Envelope{data=View}
//	@Failure	404	{object}	response.Envelope
//	@Router		/events/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, h.view(*e))
}

// Create godoc
//
//	@Summary	Create an event
//	@Tags		events
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		Input	true	"Event"
//	@Success	201		{object}	response.Envelope{data=View}
//	@Failure	400		{object}	response.Envelope
//	@Router		/admin/events [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	e, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, h.view(*e))
}

// Update godoc
//
//	@Summary	Update an event
//	@Tags		events
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string	true	"Event ID"
//	@Param		request	body		Input	true	"Event"
//	@Success	200		{object}	response.Envelope{data=View}
//	@Failure	400		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Router		/admin/events/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	e, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, h.view(*e))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnknownRestaurant):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w)
	}
}
