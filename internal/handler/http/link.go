package http

import (
	"log/slog"
	"net/http"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/service"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/httputil"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/validator"
)

// LinkHandler serves affiliate link generation.
type LinkHandler struct {
	service *service.LinkService
	logger  *slog.Logger
}

// NewLinkHandler creates a link handler.
func NewLinkHandler(svc *service.LinkService, logger *slog.Logger) *LinkHandler {
	return &LinkHandler{service: svc, logger: logger}
}

type generateLinksRequest struct {
	URLs []string `json:"urls" validate:"required,min=1,max=50,dive,required,url"`
}

// Generate handles POST /api/v1/links
func (h *LinkHandler) Generate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req generateLinksRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	links, err := h.service.Generate(r.Context(), req.URLs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: links})
}
