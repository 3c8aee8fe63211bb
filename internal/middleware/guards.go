package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bloodlink/internal/model"
)

// RoleFinder は管理者ガードに必要なユーザー検索インターフェース。
// repository.UserRepositoryの部分集合として定義する。
type RoleFinder interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// NewRequireSelfMiddleware はURLパラメータemailと検証済み身元の一致を要求するミドルウェアを返す。
// 比較は大文字小文字を区別しない。不一致またはどちらかが欠落している場合は403を返す。
// 認証ミドルウェアの後に配置すること。
func NewRequireSelfMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := IdentityFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusForbidden,
					model.NewForbiddenError("認証済みの身元がありません"))
				return
			}

			pathEmail := chi.URLParam(r, "email")
			if pathEmail == "" || !strings.EqualFold(pathEmail, identity.Email) {
				WriteErrorResponse(w, http.StatusForbidden,
					model.NewForbiddenError("本人のレコードにのみアクセスできます"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// NewRequireAdminMiddleware は呼び出し元のユーザーレコードがadminロールであることを要求する
// ミドルウェアを返す。レコードが存在しない、またはロールがadmin以外の場合は403を返す。
// 認証ミドルウェアの後に配置すること。
func NewRequireAdminMiddleware(finder RoleFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := IdentityFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusForbidden,
					model.NewForbiddenError("認証済みの身元がありません"))
				return
			}

			user, err := finder.FindByEmail(r.Context(), identity.Email)
			if err != nil {
				slog.Error("failed to look up caller role",
					slog.String("email", identity.Email),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}

			if user == nil || user.Role != model.RoleAdmin {
				WriteErrorResponse(w, http.StatusForbidden,
					model.NewForbiddenError("管理者権限が必要です"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
