// Package donor はドナーレコード管理のドメインロジックを提供する。
package donor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/bloodlink/internal/model"
	"github.com/hitoshi/bloodlink/internal/repository"
	"github.com/hitoshi/bloodlink/internal/security"
)

// RegistrationRecorder はドナー登録数メトリクスの記録インターフェース。
type RegistrationRecorder interface {
	DonorRegistered()
}

// ListParams はドナー一覧取得のパラメータ。
type ListParams struct {
	BloodGroup string // 空なら全血液型
	Area       string // 空なら全エリア
	Page       int    // 1始まり。1未満は1に補正
	PageSize   int    // 0以下はデフォルト、上限超過は上限に補正
}

// ListResult はドナー一覧取得の結果。
type ListResult struct {
	Donors     []*model.Donor
	Total      int64
	TotalPages int64
	Page       int
}

// CreateParams はドナー作成のパラメータ。
// メールアドレスは含まない（検証済み身元から取得する）。
type CreateParams struct {
	BloodGroup string
	Area       string
	Extra      map[string]string
}

// CreateResult はドナー作成の結果。
type CreateResult struct {
	InsertedID      string
	UserFlagUpdated bool
}

// UpdateParams はドナー部分更新のパラメータ。nilのフィールドは更新しない。
type UpdateParams struct {
	BloodGroup  *string
	Area        *string
	IsAvailable *bool
	Extra       map[string]string
}

// DeleteResult はドナー削除の結果。
type DeleteResult struct {
	DeletedCount    int64
	UserFlagUpdated bool
}

// DonorService はドナーレコード管理のサービス層。
// donorsコレクションのCRUDと、usersコレクションの非正規化isDonorフラグの
// ベストエフォート同期を統括する。
type DonorService struct {
	donorRepo       repository.DonorRepository
	userRepo        repository.UserRepository
	sanitizer       security.TextSanitizerService
	recorder        RegistrationRecorder
	pageSizeDefault int
	pageSizeMax     int
}

// NewDonorService はDonorServiceの新しいインスタンスを生成する。
// recorderはnil可（メトリクスなしで動作する）。
func NewDonorService(
	donorRepo repository.DonorRepository,
	userRepo repository.UserRepository,
	sanitizer security.TextSanitizerService,
	recorder RegistrationRecorder,
	pageSizeDefault, pageSizeMax int,
) *DonorService {
	return &DonorService{
		donorRepo:       donorRepo,
		userRepo:        userRepo,
		sanitizer:       sanitizer,
		recorder:        recorder,
		pageSizeDefault: pageSizeDefault,
		pageSizeMax:     pageSizeMax,
	}
}

// ListDonors は条件に一致するドナーをページングして返す。
// 件数カウントとページ取得には同一の条件式を使用する。
func (s *DonorService) ListDonors(ctx context.Context, params ListParams) (*ListResult, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}

	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = s.pageSizeDefault
	}
	if pageSize > s.pageSizeMax {
		pageSize = s.pageSizeMax
	}

	filter := repository.DonorFilter{
		BloodGroup: params.BloodGroup,
		Area:       params.Area,
	}

	total, err := s.donorRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ドナー数の取得に失敗しました: %w", err)
	}

	offset := (page - 1) * pageSize
	donors, err := s.donorRepo.List(ctx, filter, offset, pageSize)
	if err != nil {
		return nil, fmt.Errorf("ドナー一覧の取得に失敗しました: %w", err)
	}

	return &ListResult{
		Donors:     donors,
		Total:      total,
		TotalPages: (total + int64(pageSize) - 1) / int64(pageSize),
		Page:       page,
	}, nil
}

// GetDonor は指定メールアドレスのドナーを取得する。
// 存在しない場合はDONOR_NOT_FOUNDエラーを返す。
func (s *DonorService) GetDonor(ctx context.Context, email string) (*model.Donor, error) {
	donor, err := s.donorRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ドナーの検索に失敗しました: %w", err)
	}
	if donor == nil {
		return nil, model.NewDonorNotFoundError(email)
	}
	return donor, nil
}

// CreateDonor は検証済み身元のメールアドレスでドナーを作成する。
// フロー: 血液型検証 → 重複チェック → 作成 → usersのisDonorフラグ更新（ベストエフォート）
// フラグ更新の失敗は作成をロールバックせず、ログと結果で報告する。
func (s *DonorService) CreateDonor(ctx context.Context, identityEmail string, params CreateParams) (*CreateResult, error) {
	// 1. 血液型検証
	if !model.IsValidBloodGroup(params.BloodGroup) {
		return nil, model.NewInvalidBloodGroupError(params.BloodGroup)
	}

	// 2. 重複チェック（メールアドレスごとに最大1件）
	existing, err := s.donorRepo.FindByEmail(ctx, identityEmail)
	if err != nil {
		return nil, fmt.Errorf("ドナーの重複確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDonorAlreadyExistsError(identityEmail)
	}

	// 3. 作成（自由入力テキストはサニタイズして保存）
	now := time.Now()
	donor := &model.Donor{
		Email:       identityEmail,
		BloodGroup:  model.BloodGroup(params.BloodGroup),
		Area:        s.sanitizer.Sanitize(params.Area),
		IsAvailable: true,
		Extra:       s.sanitizeExtra(params.Extra),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	insertedID, err := s.donorRepo.Create(ctx, donor)
	if err != nil {
		return nil, fmt.Errorf("ドナーの作成に失敗しました: %w", err)
	}

	if s.recorder != nil {
		s.recorder.DonorRegistered()
	}

	// 4. usersのisDonorフラグをベストエフォートで更新
	flagUpdated := s.setDonorFlag(ctx, identityEmail, true)

	return &CreateResult{
		InsertedID:      insertedID,
		UserFlagUpdated: flagUpdated,
	}, nil
}

// UpdateDonor は指定されたフィールドのみを部分更新し、更新されたレコード数を返す。
// レコードが存在しない場合は0を返す（エラーにしない）。
func (s *DonorService) UpdateDonor(ctx context.Context, email string, params UpdateParams) (int64, error) {
	fields := map[string]any{
		"updatedAt": time.Now(),
	}

	if params.BloodGroup != nil {
		if !model.IsValidBloodGroup(*params.BloodGroup) {
			return 0, model.NewInvalidBloodGroupError(*params.BloodGroup)
		}
		fields["bloodGroup"] = *params.BloodGroup
	}
	if params.Area != nil {
		fields["area"] = s.sanitizer.Sanitize(*params.Area)
	}
	if params.IsAvailable != nil {
		fields["isAvailable"] = *params.IsAvailable
	}
	for key, value := range params.Extra {
		fields["extra."+s.sanitizer.Sanitize(key)] = s.sanitizer.Sanitize(value)
	}

	modified, err := s.donorRepo.UpdateByEmail(ctx, email, fields)
	if err != nil {
		return 0, fmt.Errorf("ドナーの更新に失敗しました: %w", err)
	}
	return modified, nil
}

// DeleteDonor は指定メールアドレスのドナーを削除する。
// 存在しない場合はDONOR_NOT_FOUNDエラーを返す。
// 削除後、usersのisDonorフラグをベストエフォートで解除する。
func (s *DonorService) DeleteDonor(ctx context.Context, email string) (*DeleteResult, error) {
	existing, err := s.donorRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ドナーの検索に失敗しました: %w", err)
	}
	if existing == nil {
		return nil, model.NewDonorNotFoundError(email)
	}

	deleted, err := s.donorRepo.DeleteByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ドナーの削除に失敗しました: %w", err)
	}

	flagUpdated := s.setDonorFlag(ctx, email, false)

	return &DeleteResult{
		DeletedCount:    deleted,
		UserFlagUpdated: flagUpdated,
	}, nil
}

// setDonorFlag はusersコレクションのisDonorフラグをベストエフォートで更新する。
// 失敗してもエラーにせず、ログに記録してfalseを返す。
// ドナー操作とフラグ更新はアトミックではないため、一時的な不整合は許容する。
func (s *DonorService) setDonorFlag(ctx context.Context, email string, isDonor bool) bool {
	modified, err := s.userRepo.SetDonorFlag(ctx, email, isDonor)
	if err != nil {
		slog.Warn("failed to sync user isDonor flag",
			slog.String("email", email),
			slog.Bool("is_donor", isDonor),
			slog.String("error", err.Error()),
		)
		return false
	}
	return modified > 0
}

// sanitizeExtra は任意プロフィール項目のキーと値をサニタイズして返す。
func (s *DonorService) sanitizeExtra(extra map[string]string) map[string]string {
	if len(extra) == 0 {
		return nil
	}
	sanitized := make(map[string]string, len(extra))
	for key, value := range extra {
		sanitized[s.sanitizer.Sanitize(key)] = s.sanitizer.Sanitize(value)
	}
	return sanitized
}
