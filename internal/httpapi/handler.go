package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"wodbooker-go/internal/domain/push"
	"wodbooker-go/internal/domain/user"
	errorspkg "wodbooker-go/internal/errors"
	"wodbooker-go/internal/logging"
)

// handler implements every route NewRouter mounts. It's unexported:
// callers only ever see the http.Handler NewRouter returns.
type handler struct {
	deps Dependencies
}

func (h *handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.deps.Logger.Error("httpapi: failed to encode response", zap.Error(err))
	}
}

func (h *handler) respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status := errorspkg.GetHTTPStatus(err)
	logger := logging.WithTraceFields(ctx, h.deps.Logger)
	if status >= http.StatusInternalServerError {
		logger.Error("httpapi: request failed", zap.Error(err))
	} else {
		logger.Warn("httpapi: request rejected", zap.Error(err))
	}
	h.respondJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *handler) decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errorspkg.ErrInvalidInput.WithDetails("reason", err.Error())
	}
	return nil
}

// subscribeRequest is the body of POST /api/push/subscribe.
type subscribeRequest struct {
	UserID   string `json:"user_id"`
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func (h *handler) subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(r.Context(), w, err)
		return
	}
	if req.UserID == "" || req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		h.respondError(r.Context(), w, errorspkg.ErrInvalidInput.WithDetails("reason", "user_id, endpoint and keys are required"))
		return
	}

	id, err := h.deps.PushSubs.Create(r.Context(), push.Subscription{
		UserID:    req.UserID,
		Endpoint:  req.Endpoint,
		P256dhKey: req.Keys.P256dh,
		AuthKey:   req.Keys.Auth,
	})
	if err != nil {
		h.respondError(r.Context(), w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (h *handler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(r.Context(), w, err)
		return
	}
	if req.Endpoint == "" {
		h.respondError(r.Context(), w, errorspkg.ErrInvalidInput.WithDetails("reason", "endpoint is required"))
		return
	}
	if err := h.deps.PushSubs.DeleteByEndpoint(r.Context(), req.Endpoint); err != nil {
		h.respondError(r.Context(), w, err)
		return
	}
	h.respondJSON(w, http.StatusNoContent, nil)
}

type testRequest struct {
	UserID string `json:"user_id"`
}

func (h *handler) test(w http.ResponseWriter, r *http.Request) {
	var req testRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(r.Context(), w, err)
		return
	}
	if req.UserID == "" {
		h.respondError(r.Context(), w, errorspkg.ErrInvalidInput.WithDetails("reason", "user_id is required"))
		return
	}

	msg := push.Message{
		Title: "Notificación de prueba",
		Body:  "Si ves esto, las notificaciones push funcionan correctamente.",
		Tag:   "test",
	}
	if err := h.deps.Push.SendToUser(r.Context(), req.UserID, msg); err != nil {
		h.respondError(r.Context(), w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

type syncRequest struct {
	UserID string `json:"user_id"`
}

func (h *handler) syncNow(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(r.Context(), w, err)
		return
	}
	if req.UserID == "" {
		h.respondError(r.Context(), w, errorspkg.ErrInvalidInput.WithDetails("reason", "user_id is required"))
		return
	}

	summary, err := h.deps.Synchronizer.SyncWeek(r.Context(), req.UserID)
	if err != nil {
		h.respondError(r.Context(), w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, summary)
}

// preferencesRequest mirrors user.User's notification-preference
// fields; the master switches and per-trigger flags are all
// independently settable from the UI's settings panel.
type preferencesRequest struct {
	PushEnabled  bool `json:"push_enabled"`
	PushSuccess  bool `json:"push_success"`
	PushFailure  bool `json:"push_failure"`
	PushRemind60 bool `json:"push_remind_60"`
	PushRemind30 bool `json:"push_remind_30"`
	PushRemind15 bool `json:"push_remind_15"`
	MailEnabled  bool `json:"mail_enabled"`
	MailSuccess  bool `json:"mail_success"`
	MailFailure  bool `json:"mail_failure"`
}

func (h *handler) updatePreferences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		h.respondError(r.Context(), w, errorspkg.ErrInvalidInput.WithDetails("reason", "userID path parameter is required"))
		return
	}

	var req preferencesRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(r.Context(), w, err)
		return
	}

	u, err := h.deps.Users.Get(r.Context(), userID)
	if err != nil {
		h.respondError(r.Context(), w, err)
		return
	}

	u = applyPreferences(u, req)
	if err := h.deps.Users.UpdatePreferences(r.Context(), u); err != nil {
		h.respondError(r.Context(), w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, u)
}

func applyPreferences(u user.User, req preferencesRequest) user.User {
	u.PushEnabled = req.PushEnabled
	u.PushSuccess = req.PushSuccess
	u.PushFailure = req.PushFailure
	u.PushRemind60 = req.PushRemind60
	u.PushRemind30 = req.PushRemind30
	u.PushRemind15 = req.PushRemind15
	u.MailEnabled = req.MailEnabled
	u.MailSuccess = req.MailSuccess
	u.MailFailure = req.MailFailure
	return u
}
