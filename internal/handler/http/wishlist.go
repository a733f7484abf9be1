package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/coursehub/wishlist/internal/domain"
	"github.com/coursehub/wishlist/internal/service"
	"github.com/coursehub/wishlist/internal/view"
	"github.com/coursehub/wishlist/pkg/httputil"
	"github.com/coursehub/wishlist/pkg/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WishlistHandler serves the wishlist view session and item endpoints.
type WishlistHandler struct {
	views   *view.Registry
	service *service.WishlistService
	logger  *slog.Logger
}

// NewWishlistHandler creates the wishlist HTTP handler.
func NewWishlistHandler(views *view.Registry, svc *service.WishlistService, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{
		views:   views,
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CourseRequest names one course.
type CourseRequest struct {
	CourseID domain.CourseID `json:"course_id" validate:"required,max=64,pathsegment"`
}

// CountResponse is the badge payload.
type CountResponse struct {
	Count int `json:"count"`
}

// --- View session ---

// MountView handles POST /api/v1/wishlist/view?locale=xx
func (h *WishlistHandler) MountView(w http.ResponseWriter, r *http.Request) {
	v, err := h.views.Mount(r.Context(), userIDFromContext(r.Context()), r.URL.Query().Get("locale"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, v.Render())
}

// GetView handles GET /api/v1/wishlist/view
func (h *WishlistHandler) GetView(w http.ResponseWriter, r *http.Request) {
	v, err := h.views.Get(userIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, v.Render())
}

// UnmountView handles DELETE /api/v1/wishlist/view
func (h *WishlistHandler) UnmountView(w http.ResponseWriter, r *http.Request) {
	h.views.Unmount(userIDFromContext(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// OpenDialog handles POST /api/v1/wishlist/view/dialog
func (h *WishlistHandler) OpenDialog(w http.ResponseWriter, r *http.Request) {
	var req CourseRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	v, err := h.views.Get(userIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	v.OpenDialog(req.CourseID)
	httputil.WriteData(w, http.StatusOK, v.Render())
}

// CloseDialog handles DELETE /api/v1/wishlist/view/dialog
func (h *WishlistHandler) CloseDialog(w http.ResponseWriter, r *http.Request) {
	v, err := h.views.Get(userIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	v.CloseDialog()
	httputil.WriteData(w, http.StatusOK, v.Render())
}

// ConfirmDelete handles POST /api/v1/wishlist/view/dialog/confirm
func (h *WishlistHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	v, err := h.views.Get(userIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := v.ConfirmDelete(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, v.Render())
}

// --- Items ---

// ListItems handles GET /api/v1/wishlist/items
func (h *WishlistHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.IDs(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, ids)
}

// AddItem handles POST /api/v1/wishlist/items
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req CourseRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ids, err := h.service.Add(r.Context(), userIDFromContext(r.Context()), req.CourseID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, ids)
}

// Count handles GET /api/v1/wishlist/count
func (h *WishlistHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Count(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, CountResponse{Count: n})
}

// Export handles GET /api/v1/wishlist/export?locale=xx
func (h *WishlistHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), userIDFromContext(r.Context()), r.URL.Query().Get("locale"), &buf); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "wishlist.xlsx"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
