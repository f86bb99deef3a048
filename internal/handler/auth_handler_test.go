package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/badgeman/internal/identity"
	"github.com/hitoshi/badgeman/internal/model"
)

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	signupFn func(ctx context.Context, email, password string) (*identity.Result, error)
	loginFn  func(ctx context.Context, email, password string) (*identity.Result, error)
}

func (m *mockAuthService) Signup(ctx context.Context, email, password string) (*identity.Result, error) {
	if m.signupFn != nil {
		return m.signupFn(ctx, email, password)
	}
	return &identity.Result{UserID: "user-1", Token: "token-1"}, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*identity.Result, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return &identity.Result{UserID: "user-1", Token: "token-1"}, nil
}

func decodeErrorBody(t *testing.T, resp *http.Response) apiErrorBody {
	t.Helper()
	var body apiErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

type apiErrorBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// --- POST /api/signup テスト ---

func TestAuthHandler_Signup_Success(t *testing.T) {
	svc := &mockAuthService{
		signupFn: func(ctx context.Context, email, password string) (*identity.Result, error) {
			if email != "u@x.com" || password != "pw" {
				t.Errorf("credentials = (%q, %q), want (u@x.com, pw)", email, password)
			}
			return &identity.Result{UserID: "abc-123", Token: "signed.token.value"}, nil
		},
	}
	h := NewAuthHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/signup", strings.NewReader(`{"email":"u@x.com","password":"pw"}`))
	w := httptest.NewRecorder()

	h.Signup(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if loc := resp.Header.Get("Location"); loc != "/badges/abc-123" {
		t.Errorf("Location = %q, want %q", loc, "/badges/abc-123")
	}

	// ボディはトークンのJSON文字列
	var tok string
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		t.Fatalf("body is not a JSON string: %v", err)
	}
	if tok != "signed.token.value" {
		t.Errorf("token = %q, want %q", tok, "signed.token.value")
	}
}

func TestAuthHandler_Signup_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"入力値不正", model.NewValidationError("email is required"), http.StatusUnprocessableEntity, model.ErrCodeValidationFailed},
		{"メールアドレス重複", model.NewEmailAlreadyRegisteredError(), http.StatusConflict, model.ErrCodeEmailAlreadyRegistered},
		{"ストア障害", errors.New("connection refused"), http.StatusInternalServerError, model.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				signupFn: func(ctx context.Context, email, password string) (*identity.Result, error) {
					return nil, tt.err
				},
			}
			h := NewAuthHandler(svc, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/signup", strings.NewReader(`{"email":"u@x.com","password":"pw"}`))
			w := httptest.NewRecorder()

			h.Signup(w, req)

			resp := w.Result()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if loc := resp.Header.Get("Location"); loc != "" {
				t.Errorf("Location should not be set on failure, got %q", loc)
			}
			body := decodeErrorBody(t, resp)
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

// 内部エラーの詳細はレスポンスに含めない
func TestAuthHandler_Signup_InternalErrorHidesCause(t *testing.T) {
	svc := &mockAuthService{
		signupFn: func(ctx context.Context, email, password string) (*identity.Result, error) {
			return nil, errors.New("pq: password authentication failed for user admin")
		},
	}
	h := NewAuthHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/signup", strings.NewReader(`{"email":"u@x.com","password":"pw"}`))
	w := httptest.NewRecorder()

	h.Signup(w, req)

	if strings.Contains(w.Body.String(), "pq:") {
		t.Errorf("response leaks internal error: %s", w.Body.String())
	}
}

func TestAuthHandler_MalformedBody_Returns422(t *testing.T) {
	called := false
	svc := &mockAuthService{
		signupFn: func(ctx context.Context, email, password string) (*identity.Result, error) {
			called = true
			return nil, nil
		},
	}
	h := NewAuthHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/signup", strings.NewReader(`{"email":`))
	w := httptest.NewRecorder()

	h.Signup(w, req)

	if w.Result().StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnprocessableEntity)
	}
	if called {
		t.Error("service should not be called for malformed body")
	}
}

// --- POST /api/login テスト ---

func TestAuthHandler_Login_Success(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*identity.Result, error) {
			return &identity.Result{UserID: "user-a", Token: "tok-a"}, nil
		},
	}
	h := NewAuthHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"email":"a@x.com","password":"p"}`))
	w := httptest.NewRecorder()

	h.Login(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if loc := resp.Header.Get("Location"); loc != "/badges/user-a" {
		t.Errorf("Location = %q, want %q", loc, "/badges/user-a")
	}
}

func TestAuthHandler_Login_InvalidCredentials_Returns422(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*identity.Result, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	h := NewAuthHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"email":"a@x.com","password":"wrong"}`))
	w := httptest.NewRecorder()

	h.Login(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
	if body := decodeErrorBody(t, resp); body.Code != model.ErrCodeInvalidCredentials {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInvalidCredentials)
	}
}
