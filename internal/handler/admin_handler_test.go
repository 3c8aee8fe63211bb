package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/bloodlink/internal/model"
	"github.com/hitoshi/bloodlink/internal/user"
)

// mockAdminService はAdminServiceInterfaceのモック実装。
type mockAdminService struct {
	dashboardStatsFn func(ctx context.Context) (*user.DashboardStats, error)
	adminSearchFn    func(ctx context.Context, params user.ListParams) (*user.ListResult, error)
}

func (m *mockAdminService) DashboardStats(ctx context.Context) (*user.DashboardStats, error) {
	return m.dashboardStatsFn(ctx)
}

func (m *mockAdminService) AdminSearch(ctx context.Context, params user.ListParams) (*user.ListResult, error) {
	return m.adminSearchFn(ctx, params)
}

func TestDashboardStats_ReturnsAllCounts(t *testing.T) {
	service := &mockAdminService{
		dashboardStatsFn: func(ctx context.Context) (*user.DashboardStats, error) {
			return &user.DashboardStats{
				TotalUsers:      100,
				TotalDonors:     40,
				AvailableDonors: 30,
				RecentUsers:     5,
				RecentDonors:    4,
				AdminUsers:      2,
			}, nil
		},
	}

	h := NewAdminHandler(service)
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard-stats", nil)
	w := httptest.NewRecorder()

	h.DashboardStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp dashboardStatsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	want := dashboardStatsResponse{
		TotalUsers: 100, TotalDonors: 40, AvailableDonors: 30,
		RecentUsers: 5, RecentDonors: 4, AdminUsers: 2,
	}
	if resp != want {
		t.Errorf("response = %+v, want %+v", resp, want)
	}
}

func TestDashboardStats_ServiceFailure_Returns500(t *testing.T) {
	service := &mockAdminService{
		dashboardStatsFn: func(ctx context.Context) (*user.DashboardStats, error) {
			return nil, errors.New("store unavailable")
		},
	}

	h := NewAdminHandler(service)
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard-stats", nil)
	w := httptest.NewRecorder()

	h.DashboardStats(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestSearchUsers_PassesQuery(t *testing.T) {
	service := &mockAdminService{
		adminSearchFn: func(ctx context.Context, params user.ListParams) (*user.ListResult, error) {
			if params.EmailContains != "alice" {
				t.Errorf("EmailContains = %q, want alice", params.EmailContains)
			}
			return &user.ListResult{
				Users: []*model.User{{Email: "alice@example.com", Role: model.RoleUser}},
				Total: 1,
			}, nil
		},
	}

	h := NewAdminHandler(service)
	req := httptest.NewRequest(http.MethodGet, "/admin/users?email=alice", nil)
	w := httptest.NewRecorder()

	h.SearchUsers(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp userListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("Total = %d, want 1", resp.Total)
	}
}
