package services

// 两步验证（TOTP）：生成待激活密钥、校验验证码后启用、登录时二次校验。

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"net/url"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/pquerna/otp/totp"
	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// SecurityService 管理用户的 TOTP 两步验证配置。
type SecurityService struct {
	db     *gorm.DB
	issuer string
}

func NewSecurityService(db *gorm.DB, issuer string) *SecurityService {
	if issuer == "" {
		issuer = "TanviVanity"
	}
	return &SecurityService{db: db, issuer: issuer}
}

// TwoFactorSetup 为设置接口的响应载荷。
type TwoFactorSetup struct {
	Secret     string `json:"secret"`
	OtpauthURL string `json:"otpauth_url"`
	OtpauthQR  string `json:"otpauth_qr,omitempty"`
}

// Setup 生成（或复用）待激活密钥，返回 otpauth URL 与内嵌 QR 图。
// 密钥在激活前保持 pending 状态，不影响现有登录。
func (s *SecurityService) Setup(ctx context.Context, u *storage.User) (*TwoFactorSetup, error) {
	secret := u.TwoFactorPendingSecret
	if secret == "" {
		account := u.Email
		if account == "" {
			account = u.Username
		}
		key, err := totp.Generate(totp.GenerateOpts{Issuer: s.issuer, AccountName: account})
		if err != nil {
			return nil, err
		}
		secret = key.Secret()
		u.TwoFactorPendingSecret = secret
		if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
			return nil, err
		}
	}
	otpauth := s.buildOtpauthURL(u, secret)
	out := &TwoFactorSetup{Secret: secret, OtpauthURL: otpauth}
	if img := buildQRCode(otpauth); img != "" {
		out.OtpauthQR = img
	}
	return out, nil
}

// Enable 校验一次性验证码并启用两步验证。
func (s *SecurityService) Enable(ctx context.Context, u *storage.User, code string) error {
	if u.TwoFactorPendingSecret == "" {
		return fmt.Errorf("%w: no pending two-factor secret, call setup first", ErrState)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalid)
	}
	if !totp.Validate(code, u.TwoFactorPendingSecret) {
		return fmt.Errorf("%w: invalid verification code", ErrInvalid)
	}
	u.TwoFactorSecret = u.TwoFactorPendingSecret
	u.TwoFactorPendingSecret = ""
	u.TwoFactorEnabled = true
	return s.db.WithContext(ctx).Save(u).Error
}

// Disable 关闭两步验证并清除密钥。
func (s *SecurityService) Disable(ctx context.Context, u *storage.User) error {
	u.TwoFactorEnabled = false
	u.TwoFactorSecret = ""
	u.TwoFactorPendingSecret = ""
	return s.db.WithContext(ctx).Save(u).Error
}

// VerifyLogin 在登录口令通过后校验 TOTP 验证码。
func (s *SecurityService) VerifyLogin(u *storage.User, code string) error {
	if !u.TwoFactorEnabled {
		return nil
	}
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: two-factor code required", ErrUnauthorized)
	}
	if !totp.Validate(strings.TrimSpace(code), u.TwoFactorSecret) {
		return fmt.Errorf("%w: invalid two-factor code", ErrUnauthorized)
	}
	return nil
}

// buildOtpauthURL 按 otpauth 约定拼 URL，secret 必须原样透传，
// 不能再经 totp.Generate（它会把入参当原始字节重新编码）。
func (s *SecurityService) buildOtpauthURL(u *storage.User, secret string) string {
	account := u.Email
	if account == "" {
		account = u.Username
	}
	q := url.Values{}
	q.Set("secret", secret)
	q.Set("issuer", s.issuer)
	q.Set("algorithm", "SHA1")
	q.Set("digits", "6")
	q.Set("period", "30")
	otpauth := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + s.issuer + ":" + account,
		RawQuery: q.Encode(),
	}
	return otpauth.String()
}

func buildQRCode(otpauthURL string) string {
	if otpauthURL == "" {
		return ""
	}
	code, err := qr.Encode(otpauthURL, qr.M, qr.Auto)
	if err != nil {
		return ""
	}
	scaled, err := barcode.Scale(code, 256, 256)
	if err != nil {
		return ""
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, scaled); err != nil {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}
