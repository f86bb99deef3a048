// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/badgeman/internal/identity"
	"github.com/hitoshi/badgeman/internal/metrics"
	"github.com/hitoshi/badgeman/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Signup(ctx context.Context, email, password string) (*identity.Result, error)
	Login(ctx context.Context, email, password string) (*identity.Result, error)
}

// AuthHandler はサインアップ・ログインのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	metrics metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, mc metrics.MetricsCollector) *AuthHandler {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &AuthHandler{
		service: service,
		metrics: mc,
	}
}

// Signup は新規ユーザーを登録し、トークンをJSON文字列で返す。
// POST /api/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, metrics.OpSignup, h.service.Signup)
}

// Login は認証に成功したユーザーのトークンをJSON文字列で返す。
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, metrics.OpLogin, h.service.Login)
}

type authFunc func(ctx context.Context, email, password string) (*identity.Result, error)

func (h *AuthHandler) authenticate(w http.ResponseWriter, r *http.Request, op string, fn authFunc) {
	var req model.Credentials
	if err := decodeJSON(r, &req); err != nil {
		h.metrics.RecordOperation(op, metrics.OutcomeRejected)
		handleServiceError(w, r, err)
		return
	}

	res, err := fn(r.Context(), req.Email, req.Password)
	h.metrics.RecordOperation(op, outcomeOf(err))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", badgeLocation(res.UserID))
	writeJSON(w, http.StatusOK, res.Token)
}

// badgeLocation はユーザーのバッジページのパスを返す。
func badgeLocation(userID string) string {
	return "/badges/" + userID
}
