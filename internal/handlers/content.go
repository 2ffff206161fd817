package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diasporalink/backend/internal/content"
	"github.com/diasporalink/backend/internal/logging"
	"github.com/diasporalink/backend/internal/repositories"
)

const maxContentBody = 1 << 20

// ContentHandler serves one kind of public content and its admin writes.
type ContentHandler[T any] struct {
	Kind    string
	Service ContentService[T]
}

// List handles GET /api/v1/{kind}.
func (h ContentHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := h.Service.List(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("list content failed", "kind", h.Kind, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load "+h.Kind)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"items": items})
}

// Get handles GET /api/v1/{kind}/{id}.
func (h ContentHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, doc)
}

// Create handles POST /api/v1/admin/{kind}.
func (h ContentHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.decode(w, r)
	if !ok {
		return
	}

	created, err := h.Service.Create(r.Context(), doc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, created)
}

// Update handles PUT /api/v1/admin/{kind}/{id}.
func (h ContentHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.decode(w, r)
	if !ok {
		return
	}

	updated, err := h.Service.Update(r.Context(), r.PathValue("id"), doc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, updated)
}

// Delete handles DELETE /api/v1/admin/{kind}/{id}.
func (h ContentHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h ContentHandler[T]) decode(w http.ResponseWriter, r *http.Request) (T, bool) {
	var doc T
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxContentBody)).Decode(&doc); err != nil {
		logging.FromContext(r.Context()).Warn("invalid content payload", "kind", h.Kind, "error", err)
		respondError(r.Context(), w, http.StatusBadRequest, "invalid request body")
		return doc, false
	}
	return doc, true
}

func (h ContentHandler[T]) fail(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var validationErr *content.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondJSON(ctx, w, http.StatusBadRequest, map[string]any{
			"error":  validationErr.Error(),
			"errors": validationErr.Messages,
		})
	case errors.Is(err, repositories.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, "not found")
	case errors.Is(err, repositories.ErrConflict):
		respondError(ctx, w, http.StatusConflict, "already exists")
	default:
		logging.FromContext(ctx).Error("content operation failed", "kind", h.Kind, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "content operation failed")
	}
}
