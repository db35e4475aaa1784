package handler

import (
	"context"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"

	"gamification-engine/pkg/common"
	"gamification-engine/pkg/domain"
	"gamification-engine/pkg/engine"
	"gamification-engine/pkg/errors"
)

// Service is the engine surface the HTTP layer depends on.
type Service interface {
	IncreaseValue(ctx context.Context, caller engine.Caller, variableName string, userID, amount int64, key string) error
	EvaluateAchievement(ctx context.Context, achievementID, userID int64) ([]byte, error)
	AchievementsForToday(ctx context.Context, userID int64) ([]byte, error)
	SetUserInfos(ctx context.Context, user *domain.User, friendIDs, groupIDs []int64) error
	DeleteUser(ctx context.Context, userID int64) error
}

// API serves the engine operations as JSON over HTTP. Caller identity comes
// from headers set by the authenticating gateway in front of the service:
// x-caller-id carries the calling user, x-caller-admin the global increase
// grant.
type API struct {
	service Service
	log     *logrus.Logger
}

// NewAPI creates the HTTP API around a service.
func NewAPI(service Service, log *logrus.Logger) *API {
	if log == nil {
		log = logrus.New()
	}
	return &API{service: service, log: log}
}

// Register mounts all routes on the mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/values/increase", a.handleIncreaseValue)
	mux.HandleFunc("POST /v1/achievements/{id}/evaluate", a.handleEvaluateAchievement)
	mux.HandleFunc("GET /v1/users/{id}/achievements/today", a.handleAchievementsForToday)
	mux.HandleFunc("PUT /v1/users/{id}", a.handleSetUserInfos)
	mux.HandleFunc("DELETE /v1/users/{id}", a.handleDeleteUser)
	mux.HandleFunc("GET /healthz", a.handleHealth)
}

type increaseValueRequest struct {
	UserID   int64  `json:"user_id"`
	Variable string `json:"variable"`
	Amount   int64  `json:"amount"`
	Key      string `json:"key"`
}

type evaluateRequest struct {
	UserID int64 `json:"user_id"`
}

type userRequest struct {
	Timezone  string   `json:"timezone"`
	Lat       *float64 `json:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty"`
	Country   *string  `json:"country,omitempty"`
	Region    *string  `json:"region,omitempty"`
	City      *string  `json:"city,omitempty"`
	FriendIDs []int64  `json:"friends"`
	GroupIDs  []int64  `json:"groups"`
}

type errorResponse struct {
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func (a *API) handleIncreaseValue(w http.ResponseWriter, r *http.Request) {
	var req increaseValueRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Variable == "" || req.UserID == 0 {
		a.writeBadRequest(w, "user_id and variable are required")
		return
	}

	err := a.service.IncreaseValue(r.Context(), a.caller(r), req.Variable, req.UserID, req.Amount, req.Key)
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleEvaluateAchievement(w http.ResponseWriter, r *http.Request) {
	achievementID, ok := a.pathID(w, r)
	if !ok {
		return
	}
	var req evaluateRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.UserID == 0 {
		a.writeBadRequest(w, "user_id is required")
		return
	}

	data, err := a.service.EvaluateAchievement(r.Context(), achievementID, req.UserID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeRawJSON(w, data)
}

func (a *API) handleAchievementsForToday(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.pathID(w, r)
	if !ok {
		return
	}

	data, err := a.service.AchievementsForToday(r.Context(), userID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeRawJSON(w, data)
}

func (a *API) handleSetUserInfos(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.pathID(w, r)
	if !ok {
		return
	}
	var req userRequest
	if !a.decode(w, r, &req) {
		return
	}

	user := &domain.User{
		ID:       userID,
		Timezone: req.Timezone,
		Lat:      req.Lat,
		Lng:      req.Lng,
		Country:  req.Country,
		Region:   req.Region,
		City:     req.City,
	}
	if err := a.service.SetUserInfos(r.Context(), user, req.FriendIDs, req.GroupIDs); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.pathID(w, r)
	if !ok {
		return
	}
	if err := a.service.DeleteUser(r.Context(), userID); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// caller builds the engine caller from gateway headers.
func (a *API) caller(r *http.Request) engine.Caller {
	caller := engine.Caller{
		HasIncreasePermission: r.Header.Get("x-caller-admin") == "true",
	}
	if raw := r.Header.Get("x-caller-id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			caller.UserID = id
		}
	}
	return caller
}

func (a *API) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		a.writeBadRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := sonic.ConfigStd.NewDecoder(r.Body).Decode(v); err != nil {
		a.writeBadRequest(w, "invalid request body")
		return false
	}
	return true
}

// writeRawJSON writes pre-serialized bytes, the cached-evaluation fast path.
func (a *API) writeRawJSON(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (a *API) writeBadRequest(w http.ResponseWriter, message string) {
	a.writeJSON(w, http.StatusBadRequest, errorResponse{
		ErrorCode:    "BAD_REQUEST",
		ErrorMessage: message,
	})
}

// writeError maps engine error codes to HTTP statuses.
func (a *API) writeError(w http.ResponseWriter, err error) {
	var engineErr *errors.EngineError
	if !stderrors.As(err, &engineErr) {
		a.log.WithError(err).Error("request failed")
		a.writeJSON(w, http.StatusInternalServerError, errorResponse{
			ErrorCode:    "INTERNAL",
			ErrorMessage: "internal server error",
		})
		return
	}

	status := http.StatusInternalServerError
	switch engineErr.Code {
	case errors.ErrCodeUnknownVariable, errors.ErrCodeUserNotFound, errors.ErrCodeAchievementNotFound:
		status = http.StatusNotFound
	case errors.ErrCodePermissionDenied:
		status = http.StatusForbidden
	case errors.ErrCodeConflict:
		status = http.StatusConflict
	case errors.ErrCodeExpression:
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		a.log.WithError(err).Error("request failed")
	} else {
		a.log.WithFields(logrus.Fields{
			"code":   engineErr.Code,
			"status": status,
		}).Debug("request rejected")
	}

	a.writeJSON(w, status, errorResponse{
		ErrorCode:    engineErr.Code,
		ErrorMessage: engineErr.Message,
	})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	buf := common.GetJSONBuffer()
	defer common.PutJSONBuffer(buf)

	if err := sonic.ConfigStd.NewEncoder(buf).Encode(v); err != nil {
		a.log.WithError(err).Error("response encoding failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
