package web

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hakawati/server/internal/models"
)

type ideaRequest struct {
	Idea   string `json:"idea"`
	Length string `json:"length"`
}

// Generation keeps running when the client goes away so that its result is
// still stored.
func detached(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (h *Handlers) GenerateIdea(w http.ResponseWriter, r *http.Request) {
	var req ideaRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	draft, err := h.engine.GenerateIdea(detached(r), req.Idea, req.Length)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (h *Handlers) AnalyzeStory(w http.ResponseWriter, r *http.Request) {
	leave, err := h.gate.enter()
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer leave()

	ws, err := h.engine.AnalyzeStory(detached(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workspaceResponse{Workspace: ws, BatchRunning: h.batch.Running()})
}

func (h *Handlers) GenerateSceneImage(w http.ResponseWriter, r *http.Request) {
	leave, err := h.gate.enter()
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer leave()

	id := chi.URLParam(r, "id")
	if err := h.engine.GenerateSceneImage(detached(r), id); err != nil {
		h.writeError(w, err)
		return
	}
	scene, _ := h.studio.Scene(id)
	writeJSON(w, http.StatusOK, scene)
}

func (h *Handlers) RegenerateCharacter(w http.ResponseWriter, r *http.Request) {
	leave, err := h.gate.enter()
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer leave()

	id := chi.URLParam(r, "id")
	if err := h.engine.RegenerateCharacter(detached(r), id); err != nil {
		h.writeError(w, err)
		return
	}
	c, _ := h.studio.Character(id)
	writeJSON(w, http.StatusOK, c)
}

func (h *Handlers) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, fmt.Errorf("invalid upload: %w", models.ErrValidation))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, fmt.Errorf("file field is required: %w", models.ErrValidation))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, fmt.Errorf("read upload: %w", models.ErrValidation))
		return
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	id := chi.URLParam(r, "id")
	if err := h.engine.UploadCharacterAvatar(r.Context(), id, data, mimeType); err != nil {
		h.writeError(w, err)
		return
	}
	c, _ := h.studio.Character(id)
	writeJSON(w, http.StatusOK, c)
}

type batchResponse struct {
	Running bool `json:"running"`
}

func (h *Handlers) BatchStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, batchResponse{Running: h.batch.Running()})
}

func (h *Handlers) ToggleBatch(w http.ResponseWriter, r *http.Request) {
	if !h.batch.Running() {
		if _, ok := h.studio.User(); !ok {
			h.writeError(w, models.ErrNotSignedIn)
			return
		}
		if h.studio.CurrentProjectID() == "" {
			h.writeError(w, models.ErrNoProject)
			return
		}
	}
	running, err := h.gate.toggle()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Running: running})
}

func (h *Handlers) ServeMedia(w http.ResponseWriter, r *http.Request) {
	if h.media == nil {
		http.NotFound(w, r)
		return
	}
	entry, path, ok := h.media.Lookup(chi.URLParam(r, "name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", entry.MimeType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeFile(w, r, path)
}
