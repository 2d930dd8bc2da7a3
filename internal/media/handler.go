package media

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/citybites/site/internal/response"
)

// Action names accepted by the bulk endpoint.
const (
	ActionDeletePaths                 = "deletePaths"
	ActionDeleteByDiff                = "deleteByDiff"
	ActionDeleteEventAssets           = "deleteEventAssets"
	ActionDeleteRestaurantWithRelated = "deleteRestaurantWithRelated"
)

const multipartMemory = 8 << 20

// Handler holds HTTP handlers for media endpoints.
type Handler struct {
	svc      *Service
	maxBytes int64
	logger   *zap.Logger
}

// NewHandler creates a new media Handler. maxBytes caps each uploaded file.
func NewHandler(svc *Service, maxBytes int64, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, maxBytes: maxBytes, logger: logger}
}

type actionRequest struct {
	Action       string   `json:"action"                 example:"deleteByDiff"`
	Paths        []string `json:"paths,omitempty"`
	OldPaths     []string `json:"oldPaths,omitempty"`
	NewPaths     []string `json:"newPaths,omitempty"`
	EventID      string   `json:"eventId,omitempty"`
	RestaurantID string   `json:"restaurantId,omitempty"`
}

type actionData struct {
	DeletedPaths []string `json:"deletedPaths"`
	RelatedCount *int     `json:"relatedCount,omitempty"`
}

type removeRequest struct {
	Path string `json:"path" example:"events/0b6c.../gallery/1718000000000000000-a1b2c3d4e5f6.jpg"`
}

type pathData struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Action godoc
//
//	@Summary		Run a privileged bulk media action
//	@Description	Discriminated by action: deletePaths, deleteByDiff, deleteEventAssets, deleteRestaurantWithRelated.
//	@Tags			media
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		actionRequest	true	"Action payload"
//	@Success		200		{object}	response.Envelope{data=actionData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Router			/admin/media/actions [post]
func (h *Handler) Action(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	switch req.Action {
	case ActionDeletePaths:
		deleted, err := h.svc.DeletePaths(r.Context(), req.Paths)
		if err != nil {
			h.writeError(w, err)
			return
		}
		response.OK(w, actionData{DeletedPaths: deleted})

	case ActionDeleteByDiff:
		deleted, err := h.svc.DeleteByDiff(r.Context(), req.OldPaths, req.NewPaths)
		if err != nil {
			h.writeError(w, err)
			return
		}
		response.OK(w, actionData{DeletedPaths: deleted})

	case ActionDeleteEventAssets:
		h.cascade(w, r, KindEvent, req.EventID)

	case ActionDeleteRestaurantWithRelated:
		h.cascade(w, r, KindRestaurant, req.RestaurantID)

	default:
		response.BadRequest(w, "unknown action")
	}
}

func (h *Handler) cascade(w http.ResponseWriter, r *http.Request, kind Kind, id string) {
	if id == "" {
		response.BadRequest(w, string(kind)+" id is required")
		return
	}
	res, err := h.svc.DeleteWithAssets(r.Context(), kind, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	related := res.RelatedCount
	response.OK(w, actionData{DeletedPaths: res.DeletedPaths, RelatedCount: &related})
}

// Replace godoc
//
//	@Summary		Replace a single-file slot
//	@Tags			media
//	@Accept			mpfd
//	@Produce		json
//	@Security		BearerAuth
//	@Param			kind	path		string	true	"restaurant, event or section"
//	@Param			ownerID	path		string	true	"Owning row id or section key"
//	@Param			slot	path		string	true	"Slot name"
//	@Param			file	formData	file	true	"Image file"
//	@Success		200		{object}	response.Envelope{data=pathData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		413		{object}	response.Envelope
//	@Failure		415		{object}	response.Envelope
//	@Router			/admin/media/{kind}/{ownerID}/{slot} [put]
func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	slot, ok := h.slot(w, r)
	if !ok {
		return
	}
	if slot.Multi() {
		response.BadRequest(w, "slot holds a list, use POST to append")
		return
	}

	files, cleanup, ok := h.readFiles(w, r, "file", 1)
	if !ok {
		return
	}
	defer cleanup()
	if len(files) != 1 {
		response.BadRequest(w, "exactly one file is required")
		return
	}

	path, err := h.svc.ReplaceSingle(r.Context(), slot, chi.URLParam(r, "ownerID"), files[0])
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, pathData{Path: path, URL: h.svc.blobs.PublicURL(path)})
}

// Append godoc
//
//	@Summary		Append files to a list slot
//	@Tags			media
//	@Accept			mpfd
//	@Produce		json
//	@Security		BearerAuth
//	@Param			kind	path		string	true	"restaurant, event or section"
//	@Param			ownerID	path		string	true	"Owning row id or section key"
//	@Param			slot	path		string	true	"Slot name"
//	@Param			files	formData	file	true	"Image files"
//	@Success		201		{object}	response.Envelope{data=[]pathData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Router			/admin/media/{kind}/{ownerID}/{slot} [post]
func (h *Handler) Append(w http.ResponseWriter, r *http.Request) {
	slot, ok := h.slot(w, r)
	if !ok {
		return
	}
	if !slot.Multi() {
		response.BadRequest(w, "slot holds a single file, use PUT to replace")
		return
	}

	files, cleanup, ok := h.readFiles(w, r, "files", slot.Max)
	if !ok {
		return
	}
	defer cleanup()

	paths, err := h.svc.Append(r.Context(), slot, chi.URLParam(r, "ownerID"), files)
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]pathData, 0, len(paths))
	for _, p := range paths {
		out = append(out, pathData{Path: p, URL: h.svc.blobs.PublicURL(p)})
	}
	response.Created(w, out)
}

// Remove godoc
//
//	@Summary		Remove one file from a slot
//	@Tags			media
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			kind	path		string			true	"restaurant, event or section"
//	@Param			ownerID	path		string			true	"Owning row id or section key"
//	@Param			slot	path		string			true	"Slot name"
//	@Param			request	body		removeRequest	true	"Path to remove"
//	@Success		200		{object}	response.Envelope
//	@Failure		400		{object}	response.Envelope
//	@Router			/admin/media/{kind}/{ownerID}/{slot} [delete]
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	slot, ok := h.slot(w, r)
	if !ok {
		return
	}
	var req removeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.svc.Remove(r.Context(), slot, chi.URLParam(r, "ownerID"), req.Path); err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, map[string]string{"removed": req.Path})
}

func (h *Handler) slot(w http.ResponseWriter, r *http.Request) (Slot, bool) {
	slot, err := LookupSlot(chi.URLParam(r, "kind"), chi.URLParam(r, "slot"))
	if err != nil {
		response.NotFound(w, err.Error())
		return Slot{}, false
	}
	return slot, true
}

// readFiles parses the multipart body and sniffs every part under field.
// The returned cleanup closes the opened parts.
func (h *Handler) readFiles(w http.ResponseWriter, r *http.Request, field string, maxFiles int) ([]File, func(), bool) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes*int64(maxFiles)+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.PayloadTooLarge(w, "upload too large")
			return nil, noop, false
		}
		response.BadRequest(w, "invalid multipart body")
		return nil, noop, false
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		_ = r.MultipartForm.RemoveAll()
		response.BadRequest(w, ErrNoFiles.Error())
		return nil, noop, false
	}

	var opened []multipart.File
	cleanup := func() {
		for _, f := range opened {
			_ = f.Close()
		}
		_ = r.MultipartForm.RemoveAll()
	}

	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > h.maxBytes {
			cleanup()
			response.PayloadTooLarge(w, fh.Filename+" exceeds the upload size limit")
			return nil, noop, false
		}
		f, err := fh.Open()
		if err != nil {
			cleanup()
			response.BadRequest(w, "cannot open "+fh.Filename)
			return nil, noop, false
		}
		opened = append(opened, f)

		contentType, err := SniffContentType(f)
		if err != nil {
			cleanup()
			if errors.Is(err, ErrUnsupportedType) {
				response.UnsupportedMediaType(w, err.Error())
			} else {
				response.BadRequest(w, err.Error())
			}
			return nil, noop, false
		}
		files = append(files, File{Name: fh.Filename, ContentType: contentType, Size: fh.Size, Body: f})
	}
	return files, cleanup, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var opErr *OpError
	switch {
	case errors.Is(err, ErrCapacity):
		response.Conflict(w, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrUnsupportedType):
		response.UnsupportedMediaType(w, err.Error())
	case errors.Is(err, ErrUnknownSlot),
		errors.Is(err, ErrSlotType),
		errors.Is(err, ErrNotOwned),
		errors.Is(err, ErrInvalidPath),
		errors.Is(err, ErrInvalidOwner),
		errors.Is(err, ErrNoFiles),
		errors.Is(err, ErrCascadeUnsupported):
		response.BadRequest(w, err.Error())
	case errors.As(err, &opErr) && opErr.Stage != StageUpdate:
		h.logger.Warn("blob store operation failed", zap.String("stage", string(opErr.Stage)), zap.Error(opErr.Err))
		response.BadGateway(w, err.Error())
	case errors.As(err, &opErr):
		h.logger.Error("reference store update failed", zap.Error(opErr.Err))
		response.Error(w, http.StatusInternalServerError, err.Error())
	default:
		h.logger.Error("media operation failed", zap.Error(err))
		response.InternalError(w)
	}
}
