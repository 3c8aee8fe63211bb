// Package auth は外部IDプロバイダーによるベアラートークンの検証を提供する。
//
// トークンの発行・署名検証はすべて外部プロバイダー側の責務であり、
// 本パッケージはuserinfoエンドポイントへの問い合わせ結果を検証済み身元として扱う。
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrInvalidToken はプロバイダーがトークンを拒否したことを示す。
// ネットワーク障害などの予期しないエラーとは区別される。
var ErrInvalidToken = errors.New("invalid token")

// Identity はプロバイダーが検証した呼び出し元の身元を表す。
// Emailは必須クレームで、donors/usersレコードのキーとして使用される。
type Identity struct {
	Email   string
	Name    string
	Picture string
}

// IdentityVerifier はベアラートークンを検証し、検証済み身元を返すインターフェース。
type IdentityVerifier interface {
	// Verify はトークンを検証する。
	// プロバイダーがトークンを拒否した場合はErrInvalidTokenをラップしたエラーを返す。
	Verify(ctx context.Context, token string) (*Identity, error)
}

// HTTPVerifierConfig はHTTPVerifierの設定。
type HTTPVerifierConfig struct {
	// UserInfoURL はプロバイダーのuserinfoエンドポイント。
	UserInfoURL string
	// Timeout はプロバイダーへのリクエストタイムアウト。
	Timeout time.Duration
}

// HTTPVerifier はプロバイダーのuserinfoエンドポイントに
// ベアラートークンを提示して検証するIdentityVerifierの実装。
type HTTPVerifier struct {
	config HTTPVerifierConfig
	client *http.Client
}

// NewHTTPVerifier はHTTPVerifierを生成する。
func NewHTTPVerifier(config HTTPVerifierConfig) *HTTPVerifier {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &HTTPVerifier{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// userInfoResponse はuserinfoエンドポイントのレスポンス。
type userInfoResponse struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Verify はトークンをuserinfoエンドポイントに提示し、検証済み身元を取得する。
// プロバイダーが401/403を返した場合はErrInvalidTokenをラップして返す。
func (v *HTTPVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.config.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read userinfo response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("provider rejected token with status %d: %w", resp.StatusCode, ErrInvalidToken)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var info userInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse userinfo response: %w", err)
	}

	// emailクレームのないトークンは身元として使えないため拒否扱いとする
	if info.Email == "" {
		return nil, fmt.Errorf("empty email claim in userinfo response: %w", ErrInvalidToken)
	}

	return &Identity{
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}

// compile-time interface check
var _ IdentityVerifier = (*HTTPVerifier)(nil)
