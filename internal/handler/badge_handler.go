package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/badgeman/internal/metrics"
	"github.com/hitoshi/badgeman/internal/middleware"
	"github.com/hitoshi/badgeman/internal/model"
)

// BadgeServiceInterface はバッジ作成に必要なサービスインターフェース。
type BadgeServiceInterface interface {
	CreateBadge(ctx context.Context, token string, details model.BadgeDetails) error
}

// ProfileServiceInterface は公開プロフィール参照に必要なサービスインターフェース。
type ProfileServiceInterface interface {
	GetProfile(ctx context.Context, id string) (*model.ProfileView, error)
}

// BadgeHandler はバッジプロフィールのHTTPハンドラー。
type BadgeHandler struct {
	badges   BadgeServiceInterface
	profiles ProfileServiceInterface
	metrics  metrics.MetricsCollector
}

// NewBadgeHandler はBadgeHandlerを生成する。
func NewBadgeHandler(badges BadgeServiceInterface, profiles ProfileServiceInterface, mc metrics.MetricsCollector) *BadgeHandler {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &BadgeHandler{
		badges:   badges,
		profiles: profiles,
		metrics:  mc,
	}
}

// CreateBadge はトークンの主体のバッジプロフィールを作成（上書き）する。
// トークンはBearerTokenミドルウェアがコンテキストに注入したものを使う。
// POST /api/badges
func (h *BadgeHandler) CreateBadge(w http.ResponseWriter, r *http.Request) {
	var req badgeRequest
	err := decodeJSON(r, &req)
	var details model.BadgeDetails
	if err == nil {
		details, err = req.details()
	}
	if err != nil {
		h.metrics.RecordOperation(metrics.OpCreateBadge, metrics.OutcomeRejected)
		handleServiceError(w, r, err)
		return
	}

	err = h.badges.CreateBadge(r.Context(), middleware.TokenFromContext(r.Context()), details)
	h.metrics.RecordOperation(metrics.OpCreateBadge, outcomeOf(err))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// GetProfile は公開プロフィールを返す。認証不要。
// GET /api/badges/{id}, GET /api/profile/{id}
func (h *BadgeHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	profile, err := h.profiles.GetProfile(r.Context(), id)
	h.metrics.RecordOperation(metrics.OpGetProfile, outcomeOf(err))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// badgeRequest はバッジ作成のリクエストボディ。
// 5項目すべてが必須で、キーの欠落とnullは入力値エラーとなる。
type badgeRequest struct {
	FullName       *string `json:"full_name"`
	University     *string `json:"university"`
	Major          *string `json:"major"`
	GraduationDate *uint64 `json:"graduation_date"`
	GitHub         *string `json:"github"`
}

func (req *badgeRequest) details() (model.BadgeDetails, error) {
	var missing []string
	if req.FullName == nil {
		missing = append(missing, "full_name")
	}
	if req.University == nil {
		missing = append(missing, "university")
	}
	if req.Major == nil {
		missing = append(missing, "major")
	}
	if req.GraduationDate == nil {
		missing = append(missing, "graduation_date")
	}
	if req.GitHub == nil {
		missing = append(missing, "github")
	}
	if len(missing) > 0 {
		return model.BadgeDetails{}, model.NewValidationError("missing required fields: " + strings.Join(missing, ", "))
	}

	return model.BadgeDetails{
		FullName:       *req.FullName,
		University:     *req.University,
		Major:          *req.Major,
		GraduationDate: *req.GraduationDate,
		GitHub:         *req.GitHub,
	}, nil
}
