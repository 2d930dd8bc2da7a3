package section

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/citybites/site/internal/media"
	"github.com/citybites/site/internal/response"
)

const maxSettingsBytes = 1 << 20

// URLResolver turns a stored path into a public URL.
type URLResolver interface {
	PublicURL(key string) string
}

// Handler holds HTTP handlers for section endpoints.
type Handler struct {
	svc    *Service
	urls   URLResolver
	logger *zap.Logger
}

// NewHandler creates a new section Handler.
func NewHandler(svc *Service, urls URLResolver, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, urls: urls, logger: logger}
}

// View is a section plus public URLs for every referenced path.
type View struct {
	Section
	URLs map[string]string `json:"urls"`
}

func (h *Handler) view(sec Section) View {
	urls := map[string]string{}
	for _, p := range sec.Settings.Paths() {
		urls[p] = h.urls.PublicURL(p)
	}
	return View{Section: sec, URLs: urls}
}

// List godoc
//
//	@Summary	List page sections
//	@Tags		sections
//	@Produce	json
//	@Success	200	{object}	response.Envelope{data=[]View}
//	@Router		/sections [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.svc.All(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]View, 0, len(all))
	for _, sec := range all {
		out = append(out, h.view(sec))
	}
	response.OK(w, out)
}

// Get godoc
//
//	@Summary	Get a page section
//	@Tags		sections
//	@Produce	json
//	@Param		key	path		string	true	"header, hero, footer, about or events"
//	@Success	200	{object}	response.Envelope{data=View}
//	@Failure	404	{object}	response.Envelope
//	@Router		/sections/{key} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sec, err := h.svc.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, h.view(*sec))
}

// Update godoc
//
//	@Summary		Save a page section
//	@Description	Body is the full settings object. Paths may only be dropped, never added.
//	@Tags			sections
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			key		path		string	true	"Section key"
//	@Success		200		{object}	response.Envelope{data=View}
//	@Failure		400		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Router			/admin/sections/{key} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSettingsBytes))
	if err != nil {
		response.PayloadTooLarge(w, "settings too large")
		return
	}
	sec, err := h.svc.Update(r.Context(), chi.URLParam(r, "key"), raw)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, h.view(*sec))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var opErr *media.OpError
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, media.ErrCapacity):
		response.Conflict(w, err.Error())
	case errors.Is(err, ErrInvalidSettings),
		errors.Is(err, media.ErrNotOwned),
		errors.Is(err, media.ErrInvalidPath):
		response.BadRequest(w, err.Error())
	case errors.As(err, &opErr):
		h.logger.Warn("section blob cleanup failed", zap.Error(err))
		response.BadGateway(w, err.Error())
	default:
		h.logger.Error("section operation failed", zap.Error(err))
		response.InternalError(w)
	}
}
