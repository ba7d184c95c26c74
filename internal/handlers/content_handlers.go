package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rentora/rentora-backend/internal/domain"
)

// PublicContent serves the key-addressed content map the public site renders
// from. No authentication.
func (h *Handlers) PublicContent(w http.ResponseWriter, r *http.Request) {
	content, err := h.contentService.PublicContent(r.Context(), r.URL.Query().Get("key"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"content": content,
	})
}

// ListContent returns full content blocks with editor metadata, staff only.
// An optional key query narrows to a single block.
func (h *Handlers) ListContent(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.contentService.List(r.Context(), r.URL.Query().Get("key"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"content_blocks": blocks,
	})
}

// GetContent returns one block by id, staff only.
func (h *Handlers) GetContent(w http.ResponseWriter, r *http.Request) {
	blockID, ok := parseIDParam(r, "blockID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid content block id", "INVALID_INPUT")
		return
	}

	block, err := h.contentService.Get(r.Context(), blockID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"content_block": block,
	})
}

// CreateContent adds a content block, admin only. Keys are unique.
func (h *Handlers) CreateContent(w http.ResponseWriter, r *http.Request) {
	var req domain.ContentBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	block, err := h.contentService.Create(r.Context(), currentUser(r), &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "Content block created", map[string]interface{}{
		"content_block": block,
	})
}

// UpdateContent partially updates a content block, admin only.
func (h *Handlers) UpdateContent(w http.ResponseWriter, r *http.Request) {
	blockID, ok := parseIDParam(r, "blockID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid content block id", "INVALID_INPUT")
		return
	}

	var req domain.ContentBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	block, err := h.contentService.Update(r.Context(), currentUser(r), blockID, &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Content block updated", map[string]interface{}{
		"content_block": block,
	})
}
