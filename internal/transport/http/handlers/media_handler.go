package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	mediasvc "github.com/chronon/photochron/internal/services/media"
	tenantsvc "github.com/chronon/photochron/internal/services/tenant"
	"github.com/chronon/photochron/internal/transport/http/dto"
	httperrors "github.com/chronon/photochron/internal/transport/http/errors"
)

// maxUploadParse is deliberately above the service-level size cap so that
// oversized files are rejected by the pipeline with the canonical message
// rather than cut off mid-parse.
const maxUploadParse = 32 << 20

type MediaHandler struct {
	service *mediasvc.Service
}

func NewMediaHandler(service *mediasvc.Service) *MediaHandler {
	return &MediaHandler{service: service}
}

func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	username, ok := tenantsvc.UsernameFromContext(r.Context())
	if !ok {
		httperrors.WriteError(w, http.StatusUnauthorized, "tenant not resolved")
		return
	}
	if h.service == nil {
		httperrors.WriteError(w, http.StatusInternalServerError, "media service is unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadParse)
	if err := r.ParseMultipartForm(maxUploadParse); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	result, err := h.service.Upload(r.Context(), username, mediasvc.UploadInput{
		Filename:     header.Filename,
		ContentType:  contentType,
		Size:         header.Size,
		Body:         file,
		MetadataJSON: r.FormValue("metadata"),
	})
	if err != nil {
		writeMediaError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UploadResponse{
		Success:  true,
		ID:       result.ID,
		Filename: result.StoredFilename,
		Uploaded: result.Uploaded,
	})
}

func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username, ok := tenantsvc.UsernameFromContext(r.Context())
	if !ok {
		httperrors.WriteError(w, http.StatusUnauthorized, "tenant not resolved")
		return
	}
	if h.service == nil {
		httperrors.WriteError(w, http.StatusInternalServerError, "media service is unavailable")
		return
	}

	result, err := h.service.Delete(r.Context(), username, chi.URLParam(r, "imageId"))
	if err != nil {
		writeMediaError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.DeleteResponse{
		Success: true,
		ID:      result.ID,
		Message: "image deleted",
		Warning: result.Warning,
	})
}

func (h *MediaHandler) GetByName(w http.ResponseWriter, r *http.Request) {
	username, ok := tenantsvc.UsernameFromContext(r.Context())
	if !ok {
		httperrors.WriteError(w, http.StatusUnauthorized, "tenant not resolved")
		return
	}
	if h.service == nil {
		httperrors.WriteError(w, http.StatusInternalServerError, "media service is unavailable")
		return
	}

	rec, err := h.service.GetByName(r.Context(), username, chi.URLParam(r, "photoName"))
	if err != nil {
		writeMediaError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, imageResponse(rec))
}

func imageResponse(rec mediasvc.AssetRecord) dto.ImageResponse {
	return dto.ImageResponse{
		ID:       rec.ID,
		Name:     rec.Name,
		Caption:  rec.Caption,
		Captured: rec.Captured,
		Uploaded: rec.Uploaded,
	}
}

func writeMediaError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mediasvc.ErrInvalidMetadata),
		errors.Is(err, mediasvc.ErrUnsupportedFileType),
		errors.Is(err, mediasvc.ErrFileTooLarge),
		errors.Is(err, mediasvc.ErrInvalidAssetID):
		httperrors.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, mediasvc.ErrForbidden):
		httperrors.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, mediasvc.ErrNotFound):
		httperrors.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, mediasvc.ErrBlobStoreUnavailable),
		errors.Is(err, mediasvc.ErrBlobStoreRejected),
		errors.Is(err, mediasvc.ErrMetadataWriteFailed),
		errors.Is(err, mediasvc.ErrMetadataDeleteFailed):
		httperrors.WriteError(w, http.StatusInternalServerError, err.Error())
	default:
		httperrors.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
