package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/diasporalink/backend/internal/logging"
)

// MaxMediaSize caps a single upload.
const MaxMediaSize = 10 << 20

// MediaHandler accepts admin uploads such as blog covers and partner logos.
type MediaHandler struct {
	Storage MediaStorage
	NewID   func() string
}

// Upload handles POST /api/v1/admin/media with a multipart "file" field.
func (h MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Storage == nil {
		respondError(ctx, w, http.StatusServiceUnavailable, "media uploads are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxMediaSize+1<<20)
	if err := r.ParseMultipartForm(MaxMediaSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(ctx, w, http.StatusRequestEntityTooLarge, "file exceeds 10 MiB")
			return
		}
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if header.Size > MaxMediaSize {
		respondError(ctx, w, http.StatusRequestEntityTooLarge, "file exceeds 10 MiB")
		return
	}

	key := "media/" + h.newID() + strings.ToLower(filepath.Ext(header.Filename))
	location, err := h.Storage.Save(ctx, key, header.Header.Get("Content-Type"), file)
	if err != nil {
		logger.Error("media upload failed", "key", key, "error", err)
		respondError(ctx, w, http.StatusBadGateway, "failed to store file")
		return
	}

	logger.Info("media uploaded", "key", key, "size", header.Size)
	respondJSON(ctx, w, http.StatusCreated, map[string]string{"url": location, "key": key})
}

func (h MediaHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}
