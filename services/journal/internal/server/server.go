package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"wayfarer/internal/ratelimit"
	"wayfarer/internal/util"
	"wayfarer/pkg/domain"
	"wayfarer/services/journal/internal/app"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Limiter        *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
	AdminToken     string
	MaxUploadBytes int64
}

// Server exposes HTTP endpoints for the journal service.
type Server struct {
	app            *app.App
	limiter        *ratelimit.FixedWindowLimiter
	trustedProxies *util.TrustedProxies
	adminToken     string
	mux            *http.ServeMux
	maxUploadBytes int64
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app required")
	}
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 * 1024 * 1024
	}
	s := &Server{
		app:            cfg.App,
		limiter:        cfg.Limiter,
		trustedProxies: cfg.TrustedProxies,
		adminToken:     strings.TrimSpace(cfg.AdminToken),
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("journal", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// adventures and their sub-resources
	s.mux.HandleFunc("/adventures", s.handleAdventures)
	s.mux.HandleFunc("/adventures/", s.handleAdventureByID)

	// generation configuration and status
	s.mux.HandleFunc("/ai/config", s.handleAIConfig)
	s.mux.HandleFunc("/ai/status", s.handleAIStatus)
	s.mux.HandleFunc("/ai/jobs/", s.handleJobByID)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAdventures(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		adventures, err := s.app.ListAdventures()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": adventures,
			"count": len(adventures),
		})
	case http.MethodPost:
		var in app.AdventureInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		adv, err := s.app.CreateAdventure(r.Context(), in)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, adv)
	default:
		methodNotAllowed(w)
	}
}

// /adventures/{id}[/media[/{mediaId}[/url]] | /ai[/...]]
func (s *Server) handleAdventureByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/adventures/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	id := parts[0]
	if id == "" {
		notFound(w, "not found")
		return
	}
	if len(parts) == 1 {
		s.handleAdventure(w, r, id)
		return
	}
	switch parts[1] {
	case "media":
		s.handleMedia(w, r, id, parts[2:])
	case "ai":
		s.handleAdventureAI(w, r, id, parts[2:])
	default:
		notFound(w, "not found")
	}
}

func (s *Server) handleAdventure(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		adv, ok, err := s.app.GetAdventure(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			notFound(w, "adventure not found")
			return
		}
		writeJSON(w, http.StatusOK, adv)
	case http.MethodPatch, http.MethodPut:
		var in app.AdventureInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		adv, err := s.app.UpdateAdventure(r.Context(), id, in)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, adv)
	case http.MethodDelete:
		if err := s.app.DeleteAdventure(r.Context(), id); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request, adventureID string, rest []string) {
	switch len(rest) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			media, err := s.app.ListMedia(adventureID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"items": media,
				"count": len(media),
			})
		case http.MethodPost:
			s.handleUploadMedia(w, r, adventureID)
		default:
			methodNotAllowed(w)
		}
	case 1:
		mediaID := rest[0]
		switch r.Method {
		case http.MethodGet:
			s.handleStreamMedia(w, r, adventureID, mediaID)
		case http.MethodDelete:
			if err := s.app.DeleteMedia(r.Context(), adventureID, mediaID); err != nil {
				s.writeAppError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		default:
			methodNotAllowed(w)
		}
	case 2:
		if rest[1] != "url" {
			notFound(w, "not found")
			return
		}
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		url, filename, err := s.app.MediaDownloadURL(r.Context(), adventureID, rest[0])
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"url":      url,
			"filename": filename,
		})
	default:
		notFound(w, "not found")
	}
}

func (s *Server) handleUploadMedia(w http.ResponseWriter, r *http.Request, adventureID string) {
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()
	media, err := s.app.UploadMedia(r.Context(), adventureID, header.Filename, file, header.Size)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, media)
}

func (s *Server) handleStreamMedia(w http.ResponseWriter, r *http.Request, adventureID, mediaID string) {
	media, rc, err := s.app.OpenMedia(r.Context(), adventureID, mediaID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", media.ContentType)
	w.Header().Set("Content-Disposition", `inline; filename="`+media.Filename+`"`)
	_, _ = io.Copy(w, rc)
}

// /adventures/{id}/ai[/{type} | /summary | /highlights | /story | /regenerate]
func (s *Server) handleAdventureAI(w http.ResponseWriter, r *http.Request, adventureID string, rest []string) {
	if len(rest) == 0 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		artifacts := s.app.Artifacts(r.Context(), adventureID)
		writeJSON(w, http.StatusOK, map[string]any{
			"items": artifacts,
			"count": len(artifacts),
		})
		return
	}
	if len(rest) != 1 {
		notFound(w, "not found")
		return
	}

	action := rest[0]
	switch r.Method {
	case http.MethodGet:
		artifactType := domain.ArtifactType(action)
		if !domain.ValidArtifactType(artifactType) {
			notFound(w, "not found")
			return
		}
		artifact := s.app.CachedArtifact(r.Context(), adventureID, artifactType)
		if artifact == nil {
			notFound(w, "artifact not found")
			return
		}
		writeJSON(w, http.StatusOK, artifact)
	case http.MethodPost:
		if !s.allowGeneration(w, r) {
			return
		}
		s.handleGenerate(w, r, adventureID, action)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request, adventureID, action string) {
	ctx := r.Context()
	switch action {
	case "summary":
		artifact, err := s.app.GenerateSummary(ctx, adventureID)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, artifact)
	case "highlights":
		artifact, err := s.app.GenerateHighlights(ctx, adventureID)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, artifact)
	case "story":
		var req storyRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
		}
		style, ok := domain.ParseStoryStyle(req.Style)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid story style")
			return
		}
		artifact, err := s.app.GenerateStory(ctx, adventureID, style)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, artifact)
	case "regenerate":
		if r.URL.Query().Get("async") == "true" {
			job, err := s.app.EnqueueRegeneration(ctx, adventureID)
			if err != nil {
				s.writeAppError(w, err)
				return
			}
			writeJSON(w, http.StatusAccepted, job)
			return
		}
		result, err := s.app.RegenerateAll(ctx, adventureID)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	default:
		notFound(w, "not found")
	}
}

func (s *Server) handleAIConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.app.AIConfig(r.Context()))
	case http.MethodPut:
		if !s.authorizeAdmin(r) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var cfg domain.AIConfig
		if err := decodeJSON(r, &cfg); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := s.app.SetAIConfig(r.Context(), cfg); err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.app.AIConfig(r.Context()))
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleAIStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.app.AIStatus())
}

// /ai/jobs/{id}
func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	jobID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/ai/jobs/"), "/")
	if jobID == "" || strings.Contains(jobID, "/") {
		notFound(w, "not found")
		return
	}
	job, ok, err := s.app.JobStatus(r.Context(), jobID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		notFound(w, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// authorizeAdmin compares the X-Admin-Token header in constant time.
// An empty configured token disables the endpoint.
func (s *Server) authorizeAdmin(r *http.Request) bool {
	if s.adminToken == "" {
		return false
	}
	token := strings.TrimSpace(r.Header.Get("X-Admin-Token"))
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) == 1
}

// allowGeneration applies the fixed-window limit to generation endpoints,
// keyed by client IP. Without a limiter every request passes.
func (s *Server) allowGeneration(w http.ResponseWriter, r *http.Request) bool {
	if s.limiter == nil {
		return true
	}
	if !s.limiter.Allow(util.ClientIP(r, s.trustedProxies)) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return false
	}
	return true
}

func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrAdventureNotFound):
		notFound(w, "adventure not found")
	case errors.Is(err, app.ErrMediaNotFound):
		notFound(w, "media not found")
	case errors.Is(err, app.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

type storyRequest struct {
	Style string `json:"style"`
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCodeForJournal(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCodeForJournal(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case message == "unauthorized":
		return "AUTH_INVALID_TOKEN"
	case message == "adventure not found":
		return "ADVENTURE_NOT_FOUND"
	case message == "media not found":
		return "MEDIA_NOT_FOUND"
	case message == "artifact not found":
		return "ARTIFACT_NOT_FOUND"
	case message == "job not found":
		return "JOB_NOT_FOUND"
	case message == "rate limit exceeded":
		return "AI_RATE_LIMITED"
	case message == "invalid story style":
		return "AI_INVALID_STYLE"
	case strings.Contains(message, "unsupported ai provider"):
		return "AI_UNSUPPORTED_PROVIDER"
	case strings.Contains(message, "not configured"):
		return "AI_NOT_CONFIGURED"
	case message == "invalid json body":
		return "JOURNAL_INVALID_REQUEST"
	case message == "invalid form data":
		return "JOURNAL_INVALID_UPLOAD_FORM"
	case strings.Contains(message, "file is required"):
		return "MEDIA_FILE_REQUIRED"
	case message == "method not allowed":
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case message == "not found":
		return "SYSTEM_NOT_FOUND"
	}

	switch status {
	case http.StatusBadRequest:
		return "JOURNAL_INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "AUTH_INVALID_TOKEN"
	case http.StatusNotFound:
		return "SYSTEM_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "AI_RATE_LIMITED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
