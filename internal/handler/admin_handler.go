package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/hitoshi/bloodlink/internal/user"
)

// AdminServiceInterface は管理者ハンドラーが必要とするサービスインターフェース。
type AdminServiceInterface interface {
	// DashboardStats は管理ダッシュボード向けの集計値を取得する。
	DashboardStats(ctx context.Context) (*user.DashboardStats, error)
	// AdminSearch はメールアドレスの部分一致でユーザーを検索する。
	AdminSearch(ctx context.Context, params user.ListParams) (*user.ListResult, error)
}

// AdminHandler は管理者向けAPIのHTTPハンドラー。
// 全エンドポイントはadminロールのガードを前提とする。
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// dashboardStatsResponse は管理ダッシュボード集計のAPIレスポンス。
type dashboardStatsResponse struct {
	TotalUsers      int64 `json:"totalUsers"`
	TotalDonors     int64 `json:"totalDonors"`
	AvailableDonors int64 `json:"availableDonors"`
	RecentUsers     int64 `json:"recentUsers"`
	RecentDonors    int64 `json:"recentDonors"`
	AdminUsers      int64 `json:"adminUsers"`
}

// DashboardStats は管理ダッシュボード向けの集計値を取得する。
// GET /admin/dashboard-stats
func (h *AdminHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.DashboardStats(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, dashboardStatsResponse{
		TotalUsers:      stats.TotalUsers,
		TotalDonors:     stats.TotalDonors,
		AvailableDonors: stats.AvailableDonors,
		RecentUsers:     stats.RecentUsers,
		RecentDonors:    stats.RecentDonors,
		AdminUsers:      stats.AdminUsers,
	})
}

// SearchUsers はメールアドレスの部分一致でユーザーを検索する。
// GET /admin/users?email=&limit=
func (h *AdminHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))

	result, err := h.service.AdminSearch(r.Context(), user.ListParams{
		EmailContains: query.Get("email"),
		Limit:         limit,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserListResponse(result))
}
