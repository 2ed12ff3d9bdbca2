package handlers

import (
	"net/http"
	"strconv"

	mediasvc "github.com/chronon/photochron/internal/services/media"
	tenantsvc "github.com/chronon/photochron/internal/services/tenant"
	"github.com/chronon/photochron/internal/transport/http/dto"
	httperrors "github.com/chronon/photochron/internal/transport/http/errors"
)

// GalleryHandler serves the public read surface. It relies on the tenant
// middleware alone; gallery reads need no caller identity.
type GalleryHandler struct {
	service *mediasvc.Service
}

func NewGalleryHandler(service *mediasvc.Service) *GalleryHandler {
	return &GalleryHandler{service: service}
}

func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	username, ok := tenantsvc.UsernameFromContext(r.Context())
	if !ok {
		httperrors.WriteError(w, http.StatusNotFound, "tenant not resolved")
		return
	}
	if h.service == nil {
		httperrors.WriteError(w, http.StatusInternalServerError, "media service is unavailable")
		return
	}

	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httperrors.WriteError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		offset = parsed
	}

	records, hasMore, err := h.service.ListPage(r.Context(), username, offset)
	if err != nil {
		httperrors.WriteError(w, http.StatusInternalServerError, "failed to list images")
		return
	}

	images := make([]dto.ImageResponse, 0, len(records))
	for _, rec := range records {
		images = append(images, imageResponse(rec))
	}

	httperrors.Write(w, http.StatusOK, dto.ImagesListResponse{Images: images, HasMore: hasMore})
}
