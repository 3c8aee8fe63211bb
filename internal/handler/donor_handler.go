// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bloodlink/internal/donor"
	"github.com/hitoshi/bloodlink/internal/middleware"
	"github.com/hitoshi/bloodlink/internal/model"
)

// DonorServiceInterface はドナーハンドラーが必要とするサービスインターフェース。
type DonorServiceInterface interface {
	// ListDonors は条件に一致するドナーをページングして返す。
	ListDonors(ctx context.Context, params donor.ListParams) (*donor.ListResult, error)
	// GetDonor は指定メールアドレスのドナーを取得する。
	GetDonor(ctx context.Context, email string) (*model.Donor, error)
	// CreateDonor は検証済み身元のメールアドレスでドナーを作成する。
	CreateDonor(ctx context.Context, identityEmail string, params donor.CreateParams) (*donor.CreateResult, error)
	// UpdateDonor は指定フィールドのみを部分更新する。
	UpdateDonor(ctx context.Context, email string, params donor.UpdateParams) (int64, error)
	// DeleteDonor は指定メールアドレスのドナーを削除する。
	DeleteDonor(ctx context.Context, email string) (*donor.DeleteResult, error)
}

// DonorHandler はドナー管理のHTTPハンドラー。
type DonorHandler struct {
	service DonorServiceInterface
}

// NewDonorHandler はDonorHandlerを生成する。
func NewDonorHandler(service DonorServiceInterface) *DonorHandler {
	return &DonorHandler{service: service}
}

// createDonorRequest はドナー作成リクエストのボディ。
// メールアドレスは受け取らない（検証済み身元から取得する）。
type createDonorRequest struct {
	BloodGroup string            `json:"bloodGroup"`
	Area       string            `json:"area"`
	Extra      map[string]string `json:"extra"`
}

// updateDonorRequest はドナー部分更新リクエストのボディ。
// nilのフィールドは更新対象に含めない。
type updateDonorRequest struct {
	BloodGroup  *string           `json:"bloodGroup"`
	Area        *string           `json:"area"`
	IsAvailable *bool             `json:"isAvailable"`
	Extra       map[string]string `json:"extra"`
}

// donorResponse はドナー情報のAPIレスポンス。
type donorResponse struct {
	ID          string            `json:"id"`
	Email       string            `json:"email"`
	BloodGroup  string            `json:"bloodGroup"`
	Area        string            `json:"area"`
	IsAvailable bool              `json:"isAvailable"`
	Extra       map[string]string `json:"extra,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// donorListResponse はドナー一覧のAPIレスポンス。
type donorListResponse struct {
	Donors     []donorResponse `json:"donors"`
	Total      int64           `json:"total"`
	TotalPages int64           `json:"totalPages"`
	Page       int             `json:"page"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// ListDonors はドナー一覧を取得する。
// GET /donors?bloodGroup=&area=&page=&pageSize=
func (h *DonorHandler) ListDonors(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	pageSize, _ := strconv.Atoi(query.Get("pageSize"))

	result, err := h.service.ListDonors(r.Context(), donor.ListParams{
		BloodGroup: query.Get("bloodGroup"),
		Area:       query.Get("area"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	donors := make([]donorResponse, len(result.Donors))
	for i, d := range result.Donors {
		donors[i] = toDonorResponse(d)
	}

	writeJSONResponse(w, http.StatusOK, donorListResponse{
		Donors:     donors,
		Total:      result.Total,
		TotalPages: result.TotalPages,
		Page:       result.Page,
	})
}

// GetDonor はドナー詳細を取得する。
// GET /donors/:email
func (h *DonorHandler) GetDonor(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	d, err := h.service.GetDonor(r.Context(), email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toDonorResponse(d))
}

// CreateDonor は呼び出し元の検証済み身元でドナーを登録する。
// POST /donors
func (h *DonorHandler) CreateDonor(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createDonorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	result, err := h.service.CreateDonor(r.Context(), identity.Email, donor.CreateParams{
		BloodGroup: req.BloodGroup,
		Area:       req.Area,
		Extra:      req.Extra,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]any{
		"insertedId":      result.InsertedID,
		"userFlagUpdated": result.UserFlagUpdated,
	})
}

// UpdateDonor はドナーレコードを部分更新する。
// PATCH /donors/:email
func (h *DonorHandler) UpdateDonor(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	var req updateDonorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	modified, err := h.service.UpdateDonor(r.Context(), email, donor.UpdateParams{
		BloodGroup:  req.BloodGroup,
		Area:        req.Area,
		IsAvailable: req.IsAvailable,
		Extra:       req.Extra,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"modifiedCount": modified,
	})
}

// DeleteDonor はドナーレコードを削除する。
// DELETE /donors/:email
func (h *DonorHandler) DeleteDonor(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	result, err := h.service.DeleteDonor(r.Context(), email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"deletedCount":    result.DeletedCount,
		"userFlagUpdated": result.UserFlagUpdated,
	})
}

// --- ヘルパー関数 ---

// toDonorResponse はmodel.DonorからAPIレスポンスに変換する。
func toDonorResponse(d *model.Donor) donorResponse {
	return donorResponse{
		ID:          d.ID,
		Email:       d.Email,
		BloodGroup:  string(d.BloodGroup),
		Area:        d.Area,
		IsAvailable: d.IsAvailable,
		Extra:       d.Extra,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSONResponse(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeDonorNotFound:
		return http.StatusNotFound
	case model.ErrCodeDonorAlreadyExists:
		return http.StatusConflict
	case model.ErrCodeInvalidBloodGroup, model.ErrCodeInvalidEmail, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
