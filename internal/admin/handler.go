package admin

import (
	"net/http"

	"github.com/citybites/site/internal/middleware"
	"github.com/citybites/site/internal/response"
)

// Handler holds HTTP handlers for admin account endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new admin Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GetMe godoc
//
//	@Summary		Get current admin
//	@Description	Returns the account of the currently authenticated administrator.
//	@Tags			admin
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=Admin}
//	@Failure		401	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/admin/me [get]
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.AdminID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	a, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "admin not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, a)
}
