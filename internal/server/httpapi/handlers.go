// Package httpapi exposes the document and auth operations over a JSON
// REST surface, plus the websocket subscription endpoint.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"inkpad/internal/common"
	"inkpad/internal/document"
	"inkpad/internal/logging"
	"inkpad/internal/server/auth"
	"inkpad/internal/server/hub"
	"inkpad/internal/server/repository"
)

// Handler holds the API's dependencies.
type Handler struct {
	auth   *auth.Service
	docs   repository.Documents
	hub    *hub.Hub
	logger logging.Logger
}

func NewHandler(authSvc *auth.Service, docs repository.Documents, h *hub.Hub, logger logging.Logger) *Handler {
	return &Handler{auth: authSvc, docs: docs, hub: h, logger: logger}
}

// Routes assembles the full mux, wrapping the protected endpoints with the
// token middleware.
func (h *Handler) Routes(jwtSecret []byte) http.Handler {
	protected := auth.Middleware(jwtSecret)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/register", h.register)
	mux.HandleFunc("/api/auth/login", h.login)
	mux.HandleFunc("/api/auth/refresh", h.refresh)
	mux.HandleFunc("/api/ping", h.ping)
	mux.Handle("/api/documents", protected(http.HandlerFunc(h.documentsHandler)))
	mux.Handle("/api/documents/", protected(http.HandlerFunc(h.documentHandler)))
	mux.Handle("/ws", protected(http.HandlerFunc(h.serveWs)))
	return mux
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pair, err := h.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pair, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pair, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) serveWs(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	hub.ServeWs(h.hub, w, r, userID)
}

// documentsHandler routes requests without an id: GET lists, POST creates.
func (h *Handler) documentsHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	switch r.Method {
	case http.MethodGet:
		docs, err := h.docs.List(r.Context(), userID, r.URL.Query().Get("id"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if docs == nil {
			docs = []document.Document{}
		}
		writeJSON(w, http.StatusOK, docs)

	case http.MethodPost:
		var req struct {
			Title     string `json:"title"`
			Content   string `json:"content"`
			IsStarred bool   `json:"is_starred"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		created, err := h.docs.Create(r.Context(), document.Document{
			Title:     req.Title,
			Content:   req.Content,
			UserID:    userID,
			IsStarred: req.IsStarred,
		})
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.hub.Notify(hub.EventCreated, created.ID, userID)
		writeJSON(w, http.StatusCreated, created)

	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// documentHandler routes requests with an id: PATCH updates, DELETE removes.
func (h *Handler) documentHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var patch document.Patch
		if !decodeJSON(w, r, &patch) {
			return
		}
		updated, err := h.docs.Update(r.Context(), userID, id, patch)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.hub.Notify(hub.EventUpdated, id, userID)
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := h.docs.Delete(r.Context(), userID, id); err != nil {
			h.writeError(w, r, err)
			return
		}
		h.hub.Notify(hub.EventDeleted, id, userID)
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, "PATCH, DELETE")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request payload"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

// writeError maps the sentinel taxonomy onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrRefreshTokenExpired),
		errors.Is(err, common.ErrInvalidToken):
		status = http.StatusUnauthorized
	}
	if status == http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
