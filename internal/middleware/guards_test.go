package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bloodlink/internal/auth"
	"github.com/hitoshi/bloodlink/internal/model"
)

// mockRoleFinder はRoleFinderのモック実装。
type mockRoleFinder struct {
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
}

func (m *mockRoleFinder) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findByEmailFn(ctx, email)
}

// newSelfRequest はemail URLパラメータと検証済み身元を設定したリクエストを生成する。
func newSelfRequest(t *testing.T, pathEmail, identityEmail string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/donors/"+pathEmail, nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("email", pathEmail)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)

	if identityEmail != "" {
		ctx = ContextWithIdentity(ctx, &auth.Identity{Email: identityEmail})
	}

	return req.WithContext(ctx)
}

func TestRequireSelf_MatchingEmail_Passes(t *testing.T) {
	called := false
	mw := NewRequireSelfMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := newSelfRequest(t, "alice@example.com", "alice@example.com")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !called {
		t.Error("expected handler to be called")
	}
}

func TestRequireSelf_CaseInsensitiveMatch_Passes(t *testing.T) {
	mw := NewRequireSelfMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := newSelfRequest(t, "Alice@Example.COM", "alice@example.com")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRequireSelf_MismatchedEmail_ReturnsForbidden(t *testing.T) {
	mw := NewRequireSelfMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be called")
	}))

	// bobのトークンでaliceのレコードにアクセス
	req := newSelfRequest(t, "alice@example.com", "bob@example.com")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestRequireSelf_NoIdentity_ReturnsForbidden(t *testing.T) {
	mw := NewRequireSelfMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be called")
	}))

	req := newSelfRequest(t, "alice@example.com", "")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func newAdminRequest(t *testing.T, identityEmail string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard-stats", nil)
	if identityEmail != "" {
		req = req.WithContext(ContextWithIdentity(req.Context(), &auth.Identity{Email: identityEmail}))
	}
	return req
}

func TestRequireAdmin_AdminRole_Passes(t *testing.T) {
	finder := &mockRoleFinder{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{Email: email, Role: model.RoleAdmin}, nil
		},
	}

	called := false
	mw := NewRequireAdminMiddleware(finder)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newAdminRequest(t, "admin@example.com"))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !called {
		t.Error("expected handler to be called")
	}
}

func TestRequireAdmin_NonAdminRole_ReturnsForbidden(t *testing.T) {
	finder := &mockRoleFinder{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{Email: email, Role: model.RoleUser}, nil
		},
	}

	mw := NewRequireAdminMiddleware(finder)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newAdminRequest(t, "user@example.com"))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestRequireAdmin_NoUserRecord_ReturnsForbidden(t *testing.T) {
	finder := &mockRoleFinder{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return nil, nil
		},
	}

	mw := NewRequireAdminMiddleware(finder)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newAdminRequest(t, "ghost@example.com"))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestRequireAdmin_LookupFailure_ReturnsInternalServerError(t *testing.T) {
	finder := &mockRoleFinder{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return nil, errors.New("store unavailable")
		},
	}

	mw := NewRequireAdminMiddleware(finder)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newAdminRequest(t, "admin@example.com"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestRequireAdmin_NoIdentity_ReturnsForbidden(t *testing.T) {
	finder := &mockRoleFinder{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			t.Fatal("finder must not be called without identity")
			return nil, nil
		},
	}

	mw := NewRequireAdminMiddleware(finder)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newAdminRequest(t, ""))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}
