package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/repository"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/service"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/httputil"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/pagination"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/validator"
)

const maxBodyBytes = 1 << 20

// SavedHandler serves the saved-products endpoints.
type SavedHandler struct {
	service *service.SavedService
	logger  *slog.Logger
}

// NewSavedHandler creates a saved-products handler.
func NewSavedHandler(svc *service.SavedService, logger *slog.Logger) *SavedHandler {
	return &SavedHandler{service: svc, logger: logger}
}

type saveRequest struct {
	domain.Product
	CustomTitle    string `json:"custom_title" validate:"max=500"`
	RefreshSavedAt bool   `json:"refresh_saved_at"`
}

type unsaveRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
}

type updateTitleRequest struct {
	CustomTitle string `json:"custom_title" validate:"max=500"`
}

type unsaveResponse struct {
	ProductID string `json:"product_id"`
	Removed   bool   `json:"removed"`
}

// Save handles POST /api/v1/saved
func (h *SavedHandler) Save(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req saveRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	saved, inserted, err := h.service.Save(r.Context(), service.SaveInput{
		Product:        req.Product,
		CustomTitle:    req.CustomTitle,
		RefreshSavedAt: req.RefreshSavedAt,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusOK
	if inserted {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: saved})
}

// Delete handles DELETE /api/v1/saved/{productID}
func (h *SavedHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.unsave(w, r, chi.URLParam(r, "productID"))
}

// Unsave handles POST /api/v1/unsave
func (h *SavedHandler) Unsave(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req unsaveRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	h.unsave(w, r, req.ProductID)
}

func (h *SavedHandler) unsave(w http.ResponseWriter, r *http.Request, productID string) {
	productID = strings.TrimSpace(productID)
	if err := h.service.Unsave(r.Context(), productID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: unsaveResponse{ProductID: productID, Removed: true},
	})
}

// UpdateTitle handles PATCH /api/v1/saved/{productID}
func (h *SavedHandler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req updateTitleRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	saved, err := h.service.UpdateTitle(r.Context(), chi.URLParam(r, "productID"), req.CustomTitle)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: saved})
}

// Get handles GET /api/v1/saved/{productID}
func (h *SavedHandler) Get(w http.ResponseWriter, r *http.Request) {
	saved, err := h.service.Get(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: saved})
}

// List handles GET /api/v1/saved
func (h *SavedHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pg, err := pagination.SavedList.Parse(q)
	if err != nil {
		httputil.WriteInvalidParameter(w, err.Error())
		return
	}

	sort := q.Get("sort")
	if sort != "" && !domain.IsValidSavedSort(sort) {
		httputil.WriteInvalidParameter(w, "sort must be one of: saved_at_desc, saved_at_asc, title_asc, title_desc")
		return
	}

	items, total, err := h.service.List(r.Context(), repository.SavedFilter{
		Query:   strings.TrimSpace(q.Get("q")),
		Sort:    sort,
		Page:    pg.Page,
		PerPage: pg.PerPage,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(items, total, pg.Page, pg.PerPage))
}
