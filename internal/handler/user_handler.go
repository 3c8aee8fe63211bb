package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bloodlink/internal/model"
	"github.com/hitoshi/bloodlink/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Register はユーザーを冪等に登録する。
	Register(ctx context.Context, params user.RegisterParams) (*user.RegisterResult, error)
	// Get は指定メールアドレスのユーザーを取得する。未登録なら既定値を合成する。
	Get(ctx context.Context, email string) (*model.User, error)
	// List は条件に一致するユーザーを新しい順で返す。
	List(ctx context.Context, params user.ListParams) (*user.ListResult, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// registerUserRequest はユーザー登録リクエストのボディ。
type registerUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID        string    `json:"id,omitempty"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	PhotoURL  string    `json:"photoURL,omitempty"`
	Role      string    `json:"role"`
	IsDonor   bool      `json:"isDonor"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// userListResponse はユーザー一覧のAPIレスポンス。
type userListResponse struct {
	Users []userResponse `json:"users"`
	Total int64          `json:"total"`
}

// Register はユーザーを冪等に登録する。
// POST /users
// 新規作成なら201、既存ユーザーなら200を返す。
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	result, err := h.service.Register(r.Context(), user.RegisterParams{
		Email:    req.Email,
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if result.AlreadyExists {
		writeJSONResponse(w, http.StatusOK, map[string]any{
			"message": "ユーザーは登録済みです。",
			"user":    toUserResponse(result.User),
		})
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]any{
		"insertedId": result.InsertedID,
		"user":       toUserResponse(result.User),
	})
}

// GetUser はユーザー情報を取得する。
// GET /users/:email
// レコードが存在しない場合も404にせず、既定のユーザーを返す。
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	u, err := h.service.Get(r.Context(), email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserResponse(u))
}

// ListUsers はユーザー一覧を取得する。
// GET /users?email=&limit=
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))

	result, err := h.service.List(r.Context(), user.ListParams{
		EmailContains: query.Get("email"),
		Limit:         limit,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserListResponse(result))
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		PhotoURL:  u.PhotoURL,
		Role:      string(u.Role),
		IsDonor:   u.IsDonor,
		CreatedAt: u.CreatedAt,
	}
}

// toUserListResponse はユーザー一覧結果をAPIレスポンスに変換する。
func toUserListResponse(result *user.ListResult) userListResponse {
	users := make([]userResponse, len(result.Users))
	for i, u := range result.Users {
		users[i] = toUserResponse(u)
	}
	return userListResponse{Users: users, Total: result.Total}
}
