package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/auxd/internal/sessions"
	"github.com/desertthunder/auxd/internal/shared"
)

// HostHeader carries the authenticated host id, set by the fronting auth
// layer. Guest requests leave it empty.
const HostHeader = "X-Auxd-Host"

// ActionHandler exposes the session action layer as RPC-style JSON
// endpoints: POST with a JSON body, action-specific result or a typed
// error payload back.
type ActionHandler struct {
	actions *sessions.Actions
	logger  *log.Logger
}

// NewActionHandler creates the guest-facing API handler.
func NewActionHandler(actions *sessions.Actions, logger *log.Logger) *ActionHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &ActionHandler{actions: actions, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *ActionHandler) Routes() []string {
	return []string{
		"/api/session/playback",
		"/api/session/queue",
		"/api/session/history",
		"/api/session/play-pause",
		"/api/session/skip-forward",
		"/api/session/skip-backward",
		"/api/session/add-to-queue",
		"/api/session/skip-queue",
		"/api/session/devices",
		"/api/session/start-playback",
		"/api/host/check-expiration",
		"/api/host/has-saved-track",
		"/api/host/save-track",
		"/api/host/remove-saved-track",
		"/api/host/favourites",
		"/api/search",
	}
}

// actionRequest is the union of all RPC request bodies.
type actionRequest struct {
	sessions.Credentials
	SongURI     string   `json:"songUri"`
	URIToSkipTo string   `json:"uriToSkipTo"`
	DeviceID    string   `json:"deviceId"`
	TrackID     string   `json:"trackId"`
	SearchTerm  string   `json:"searchTerm"`
	Types       []string `json:"types"`
	Market      string   `json:"market"`
	Page        int      `json:"page"`
	Limit       int      `json:"limit"`
	Offset      int      `json:"offset"`
}

// ServeHTTP dispatches an RPC call to the action layer.
func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, shared.ErrInvalidInput)
		return
	}
	req.CallerID = r.Header.Get(HostHeader)

	ctx := r.Context()

	switch r.URL.Path {
	case "/api/session/playback":
		state, err := h.actions.GetPlayback(ctx, req.Credentials)
		h.respond(w, state, err)
	case "/api/session/queue":
		queue, err := h.actions.GetQueue(ctx, req.Credentials)
		h.respond(w, queue, err)
	case "/api/session/history":
		history, err := h.actions.GetHistory(ctx, req.Credentials)
		h.respond(w, history, err)
	case "/api/session/play-pause":
		h.respond(w, nil, h.actions.TogglePlayPause(ctx, req.Credentials))
	case "/api/session/skip-forward":
		h.respond(w, nil, h.actions.SkipForward(ctx, req.Credentials))
	case "/api/session/skip-backward":
		h.respond(w, nil, h.actions.SkipBackward(ctx, req.Credentials))
	case "/api/session/add-to-queue":
		h.respond(w, nil, h.actions.AddToQueue(ctx, req.Credentials, req.SongURI))
	case "/api/session/skip-queue":
		h.respond(w, nil, h.actions.SkipQueue(ctx, req.Credentials, req.URIToSkipTo))
	case "/api/session/devices":
		devices, err := h.actions.GetDevices(ctx, req.Credentials)
		h.respond(w, devices, err)
	case "/api/session/start-playback":
		h.respond(w, nil, h.actions.StartPlayback(ctx, req.Credentials, req.DeviceID))
	case "/api/host/check-expiration":
		h.checkExpiration(w, r, req)
	case "/api/host/has-saved-track":
		saved, err := h.actions.HasSavedTrack(ctx, req.CallerID, req.TrackID)
		h.respond(w, map[string]bool{"saved": saved}, err)
	case "/api/host/save-track":
		h.respond(w, nil, h.actions.SaveTrack(ctx, req.CallerID, req.TrackID))
	case "/api/host/remove-saved-track":
		h.respond(w, nil, h.actions.RemoveSavedTrack(ctx, req.CallerID, req.TrackID))
	case "/api/host/favourites":
		tracks, err := h.actions.GetFavourites(ctx, req.CallerID, req.Limit, req.Offset)
		h.respond(w, tracks, err)
	case "/api/search":
		results, err := h.actions.Search(ctx, req.SearchTerm, req.Types, req.Market, req.Page)
		h.respond(w, results, err)
	default:
		http.NotFound(w, r)
	}
}

// checkExpiration reports the host's token verdict. The verdict error is
// part of the payload, not an HTTP failure; the UI uses it to decide
// whether to prompt reauthentication.
func (h *ActionHandler) checkExpiration(w http.ResponseWriter, r *http.Request, req actionRequest) {
	if req.CallerID == "" {
		h.writeError(w, shared.ErrPermissionDenied)
		return
	}

	expired, err := h.actions.CheckExpiration(r.Context(), req.CallerID)
	if err != nil && !expired {
		h.writeError(w, err)
		return
	}

	payload := map[string]any{"expired": expired, "error": nil}
	if err != nil {
		payload["error"] = err.Error()
	}
	h.respond(w, payload, nil)
}

func (h *ActionHandler) respond(w http.ResponseWriter, data any, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if data == nil {
		data = map[string]bool{"ok": true}
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *ActionHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, shared.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, shared.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, shared.ErrTokenExpired), errors.Is(err, shared.ErrRefreshFailed):
		status = http.StatusUnauthorized
	case errors.Is(err, shared.ErrCredentialMissing), errors.Is(err, shared.ErrCredentialIncomplete),
		errors.Is(err, shared.ErrUpstreamUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, shared.ErrNoActiveDevice), errors.Is(err, shared.ErrTrackNotInQueue):
		status = http.StatusConflict
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
