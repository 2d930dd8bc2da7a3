package restaurant

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

// Handler holds HTTP handlers for restaurant endpoints.
type Handler struct {
	svc  *Service
	urls URLResolver
}

// NewHandler creates a new restaurant Handler.
func NewHandler(svc *Service, urls URLResolver) *Handler {
	return &Handler{svc: svc, urls: urls}
}

// View is a restaurant with resolved media URLs.
type View struct {
	Restaurant
	LogoURL     string   `json:"logoUrl,omitempty"`
	CoverURL    string   `json:"coverUrl,omitempty"`
	GalleryURLs []string `json:"galleryUrls"`
}

func (h *Handler) view(r Restaurant) View {
	v := View{Restaurant: r, GalleryURLs: make([]string, 0, len(r.GalleryPaths))}
	if r.LogoPath != nil {
		v.LogoURL = h.urls.PublicURL(*r.LogoPath)
	}
	if r.CoverPath != nil {
		v.CoverURL = h.urls.PublicURL(*r.CoverPath)
	}
	for _, p := range r.GalleryPaths {
		v.GalleryURLs = append(v.GalleryURLs, h.urls.PublicURL(p))
	}
	return v
}

// List godoc
//
//	@Summary	List restaurants
//	@Tags		restaurants
//	@Produce	json
//	@Success	200	{object}	response.Envelope{data=[]View}
//	@Router		/restaurants [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}
	out := make([]View, 0, len(list))
	for _, rest := range list {
		out = append(out, h.view(rest))
	}
	response.OK(w, out)
}

// Get godoc
//
//	@Summary	Get a restaurant
//	@Tags		restaurants
//	@Produce	json
//	@Param		id	path		string	true	"Restaurant ID"
//	@Success	200	{object}	response.Envelope{data=View}
//	@Failure	404	{object}	response.Envelope
//	@Router		/restaurants/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rest, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, h.view(*rest))
}

// Create godoc
//
//	@Summary	Create a restaurant
//	@Tags		restaurants
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		Input	true	"Restaurant"
//	@Success	201		{object}	response.Envelope{data=View}
//	@Failure	400		{object}	response.Envelope
//	@Failure	409		{object}	response.Envelope
//	@Router		/admin/restaurants [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	rest, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, h.view(*rest))
}

// Update godoc
//
//	@Summary	Update a restaurant
//	@Tags		restaurants
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string	true	"Restaurant ID"
//	@Param		request	body		Input	true	"Restaurant"
//	@Success	200		{object}	response.Envelope{data=View}
//	@Failure	400		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Router		/admin/restaurants/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	rest, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, h.view(*rest))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrInvalidInput):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrSlugTaken):
		response.Conflict(w, err.Error())
	default:
		response.InternalError(w)
	}
}
