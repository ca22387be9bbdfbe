package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"hakawati/server/internal/engine"
	"hakawati/server/internal/generators"
	"hakawati/server/internal/infra"
	"hakawati/server/internal/models"
	"hakawati/server/internal/studio"
)

const maxUploadBytes = 10 << 20

// Handlers serves the studio API.
type Handlers struct {
	studio  *studio.Studio
	engine  *engine.StoryEngine
	batch   *generators.BatchController
	media   *generators.MediaStore
	hub     *EventHub
	monitor *infra.BackendMonitor
	catalog models.Catalog
	logger  *zap.Logger
	gate    *generationGate
}

// Deps groups what the router needs.
type Deps struct {
	Studio  *studio.Studio
	Engine  *engine.StoryEngine
	Batch   *generators.BatchController
	Media   *generators.MediaStore
	Hub     *EventHub
	Monitor *infra.BackendMonitor
	Catalog models.Catalog
	Logger  *zap.Logger
}

type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewRouter builds the HTTP routes.
func NewRouter(d Deps) *chi.Mux {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handlers{
		studio:  d.Studio,
		engine:  d.Engine,
		batch:   d.Batch,
		media:   d.Media,
		hub:     d.Hub,
		monitor: d.Monitor,
		catalog: d.Catalog,
		logger:  logger,
		gate:    &generationGate{batch: d.Batch},
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger.Named("http")))
	r.Use(corsMiddleware)

	r.Get("/health", h.HealthCheck)
	r.Get("/media/{name}", h.ServeMedia)
	if d.Hub != nil {
		r.Get("/ws", d.Hub.ServeWS)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/catalog", h.GetCatalog)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.Get("/session", h.Session)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
			r.Post("/{id}/open", h.OpenProject)
			r.Delete("/{id}", h.DeleteProject)
		})

		r.Route("/workspace", func(r chi.Router) {
			r.Get("/", h.GetWorkspace)
			r.Patch("/config", h.PatchConfig)
			r.Post("/save", h.SaveWorkspace)
		})

		r.Post("/story/idea", h.GenerateIdea)
		r.Post("/story/analyze", h.AnalyzeStory)
		r.Post("/scenes/{id}/image", h.GenerateSceneImage)
		r.Post("/characters/{id}/portrait", h.RegenerateCharacter)
		r.Post("/characters/{id}/avatar", h.UploadAvatar)

		r.Route("/batch", func(r chi.Router) {
			r.Get("/", h.BatchStatus)
			r.Post("/toggle", h.ToggleBatch)
		})
	})

	return r
}

// requestLogger logs method, path, status and duration of each request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
			)
		})
	}
}

// CORS middleware
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Max-Age", "300")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data})
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: false, Error: err.Error()})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrConfirmationRequired):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotSignedIn):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrNoProject):
		return http.StatusNotFound
	case errors.Is(err, models.ErrBatchRunning), errors.Is(err, models.ErrGenerationInFlight):
		return http.StatusConflict
	case errors.Is(err, models.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", models.ErrValidation)
	}
	return nil
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"service": "hakawati",
		"clients": h.clientCount(),
	}
	if h.monitor != nil {
		body["imageBackend"] = h.monitor.Report()
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handlers) clientCount() int {
	if h.hub == nil {
		return 0
	}
	return h.hub.ClientCount()
}

func (h *Handlers) GetCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog)
}

type loginRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type sessionResponse struct {
	SignedIn bool           `json:"signedIn"`
	User     *models.User   `json:"user,omitempty"`
	Step     models.AppStep `json:"step"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	user, err := h.studio.Login(r.Context(), req.Name, req.Email)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SignedIn: true, User: &user, Step: h.studio.Step()})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.batch.Stop()
	if err := h.studio.Logout(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Step: h.studio.Step()})
}

func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	resp := sessionResponse{Step: h.studio.Step()}
	if user, ok := h.studio.User(); ok {
		resp.SignedIn = true
		resp.User = &user
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.studio.User(); !ok {
		h.writeError(w, models.ErrNotSignedIn)
		return
	}
	h.studio.SetStep(models.StepGallery)
	writeJSON(w, http.StatusOK, h.studio.Gallery())
}

type createProjectRequest struct {
	Manual bool `json:"manual"`
}

func (h *Handlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if h.batch.Running() || h.batch.Busy() {
		h.writeError(w, models.ErrBatchRunning)
		return
	}
	p, err := h.studio.CreateProject(r.Context(), req.Manual)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handlers) OpenProject(w http.ResponseWriter, r *http.Request) {
	if h.batch.Running() || h.batch.Busy() {
		h.writeError(w, models.ErrBatchRunning)
		return
	}
	if err := h.studio.LoadProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.workspace())
}

func (h *Handlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == h.studio.CurrentProjectID() && (h.batch.Running() || h.batch.Busy()) {
		h.writeError(w, models.ErrBatchRunning)
		return
	}
	confirmed := r.URL.Query().Get("confirm") == "true"
	if err := h.studio.DeleteProject(r.Context(), id, confirmed); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

type workspaceResponse struct {
	studio.Workspace
	BatchRunning bool `json:"batchRunning"`
}

func (h *Handlers) workspace() workspaceResponse {
	return workspaceResponse{Workspace: h.studio.Snapshot(), BatchRunning: h.batch.Running()}
}

func (h *Handlers) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.workspace())
}

func (h *Handlers) PatchConfig(w http.ResponseWriter, r *http.Request) {
	var patch studio.ConfigPatch
	if err := decodeBody(r, &patch); err != nil {
		h.writeError(w, err)
		return
	}
	cfg, err := h.studio.ApplyConfig(patch)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *Handlers) SaveWorkspace(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.studio.User(); !ok {
		h.writeError(w, models.ErrNotSignedIn)
		return
	}
	if h.studio.CurrentProjectID() == "" {
		h.writeError(w, models.ErrNoProject)
		return
	}
	if err := h.studio.PersistCurrentProject(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.workspace())
}
