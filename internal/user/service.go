// Package user はユーザー登録・管理と管理ダッシュボードのドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/bloodlink/internal/model"
	"github.com/hitoshi/bloodlink/internal/repository"
	"github.com/hitoshi/bloodlink/internal/security"
)

// recentWindow は「最近の登録」集計の対象期間。
const recentWindow = 7 * 24 * time.Hour

// RegistrationRecorder はユーザー登録数メトリクスの記録インターフェース。
type RegistrationRecorder interface {
	UserRegistered()
}

// RegisterParams はユーザー登録のパラメータ。
type RegisterParams struct {
	Email    string
	Name     string
	PhotoURL string
}

// RegisterResult はユーザー登録の結果。
type RegisterResult struct {
	User *model.User
	// AlreadyExists は同一メールアドレスのユーザーが既に存在し、
	// 新規作成をスキップした場合にtrue。登録は冪等。
	AlreadyExists bool
	InsertedID    string
}

// ListParams はユーザー一覧取得のパラメータ。
type ListParams struct {
	// EmailContains はメールアドレスの部分一致フィルタ（大文字小文字を区別しない）。
	EmailContains string
	// Limit は最大取得件数。0以下はデフォルト、上限超過は上限に補正。
	Limit int
}

// ListResult はユーザー一覧取得の結果。登録日時の新しい順。
type ListResult struct {
	Users []*model.User
	Total int64
}

// DashboardStats は管理ダッシュボード向けの集計値。
type DashboardStats struct {
	TotalUsers      int64
	TotalDonors     int64
	AvailableDonors int64
	RecentUsers     int64 // 直近7日間に登録されたユーザー数
	RecentDonors    int64 // 直近7日間に登録されたドナー数
	AdminUsers      int64
}

// UserService はユーザー管理のサービス層。
// 冪等なユーザー登録と、管理者向けの集計・検索を提供する。
type UserService struct {
	userRepo         repository.UserRepository
	donorRepo        repository.DonorRepository
	sanitizer        security.TextSanitizerService
	recorder         RegistrationRecorder
	listLimitDefault int
	listLimitMax     int
}

// NewUserService はUserServiceの新しいインスタンスを生成する。
// recorderはnil可（メトリクスなしで動作する）。
func NewUserService(
	userRepo repository.UserRepository,
	donorRepo repository.DonorRepository,
	sanitizer security.TextSanitizerService,
	recorder RegistrationRecorder,
	listLimitDefault, listLimitMax int,
) *UserService {
	return &UserService{
		userRepo:         userRepo,
		donorRepo:        donorRepo,
		sanitizer:        sanitizer,
		recorder:         recorder,
		listLimitDefault: listLimitDefault,
		listLimitMax:     listLimitMax,
	}
}

// Register はユーザーを冪等に登録する。
// 同一メールアドレスのユーザーが既に存在する場合は新規作成せず、既存レコードを返す。
// ロールは常に"user"で作成する（呼び出し側からの昇格は不可）。
func (s *UserService) Register(ctx context.Context, params RegisterParams) (*RegisterResult, error) {
	if _, err := mail.ParseAddress(params.Email); err != nil {
		return nil, model.NewInvalidEmailError(params.Email)
	}

	existing, err := s.userRepo.FindByEmail(ctx, params.Email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return &RegisterResult{User: existing, AlreadyExists: true}, nil
	}

	user := &model.User{
		Email:     params.Email,
		Name:      s.sanitizer.Sanitize(params.Name),
		PhotoURL:  params.PhotoURL,
		Role:      model.RoleUser,
		IsDonor:   false,
		CreatedAt: time.Now(),
	}

	insertedID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}
	user.ID = insertedID

	if s.recorder != nil {
		s.recorder.UserRegistered()
	}

	return &RegisterResult{User: user, InsertedID: insertedID}, nil
}

// Get は指定メールアドレスのユーザーを取得する。
// レコードが存在しない場合は404にせず、既定のユーザーを合成して返す。
func (s *UserService) Get(ctx context.Context, email string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewDefaultUser(email), nil
	}
	return user, nil
}

// List は条件に一致するユーザーを登録日時の新しい順で返す。
// 件数カウントと一覧取得には同一の条件式を使用する。
func (s *UserService) List(ctx context.Context, params ListParams) (*ListResult, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = s.listLimitDefault
	}
	if limit > s.listLimitMax {
		limit = s.listLimitMax
	}

	filter := repository.UserFilter{EmailContains: params.EmailContains}

	total, err := s.userRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ユーザー数の取得に失敗しました: %w", err)
	}

	users, err := s.userRepo.List(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}

	return &ListResult{Users: users, Total: total}, nil
}

// AdminSearch は管理者向けのユーザー検索。
// メールアドレスの部分一致（大文字小文字を区別しない）で検索し、新しい順で返す。
func (s *UserService) AdminSearch(ctx context.Context, params ListParams) (*ListResult, error) {
	return s.List(ctx, params)
}

// DashboardStats は管理ダッシュボード向けの6種類の集計値を並行に取得する。
// いずれかのカウントが失敗した場合は全体をエラーとする。
func (s *UserService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	since := time.Now().Add(-recentWindow)
	stats := &DashboardStats{}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, err := s.userRepo.Count(ctx, repository.UserFilter{})
		if err != nil {
			return fmt.Errorf("ユーザー総数の取得に失敗しました: %w", err)
		}
		stats.TotalUsers = total
		return nil
	})

	g.Go(func() error {
		total, err := s.donorRepo.Count(ctx, repository.DonorFilter{})
		if err != nil {
			return fmt.Errorf("ドナー総数の取得に失敗しました: %w", err)
		}
		stats.TotalDonors = total
		return nil
	})

	g.Go(func() error {
		total, err := s.donorRepo.Count(ctx, repository.DonorFilter{OnlyAvailable: true})
		if err != nil {
			return fmt.Errorf("提供可能ドナー数の取得に失敗しました: %w", err)
		}
		stats.AvailableDonors = total
		return nil
	})

	g.Go(func() error {
		total, err := s.userRepo.Count(ctx, repository.UserFilter{CreatedAfter: since})
		if err != nil {
			return fmt.Errorf("直近登録ユーザー数の取得に失敗しました: %w", err)
		}
		stats.RecentUsers = total
		return nil
	})

	g.Go(func() error {
		total, err := s.donorRepo.Count(ctx, repository.DonorFilter{CreatedAfter: since})
		if err != nil {
			return fmt.Errorf("直近登録ドナー数の取得に失敗しました: %w", err)
		}
		stats.RecentDonors = total
		return nil
	})

	g.Go(func() error {
		total, err := s.userRepo.Count(ctx, repository.UserFilter{Role: model.RoleAdmin})
		if err != nil {
			return fmt.Errorf("管理者数の取得に失敗しました: %w", err)
		}
		stats.AdminUsers = total
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return stats, nil
}
