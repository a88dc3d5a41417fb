package services

import (
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/config"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/metrics"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/utils"
)

// TokenService 负责签发与校验访问令牌（HS256）。
// 令牌本身只携带 uid/jti/exp；会话的吊销状态由 SessionService 维护。
type TokenService struct{ cfg config.Config }

func NewTokenService(cfg config.Config) *TokenService { return &TokenService{cfg: cfg} }

// Issue 为用户签发令牌，返回令牌串、过期时间与 jti。
func (s *TokenService) Issue(userID uint64) (string, time.Time, string, error) {
	now := time.Now()
	exp := now.Add(s.cfg.Auth.TokenTTL)
	jti, err := utils.RandString(24)
	if err != nil {
		return "", time.Time{}, "", err
	}
	claims := jwt.MapClaims{
		"uid": userID,
		"iat": now.Unix(),
		"exp": exp.Unix(),
		"jti": jti,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Auth.Secret))
	if err != nil {
		return "", time.Time{}, "", err
	}
	metrics.TokensIssued.Inc()
	return signed, exp, jti, nil
}

// Verify 校验令牌签名与有效期，返回 uid 与 jti。
// 过期、签名不符、算法不符均返回 ErrUnauthorized。
func (s *TokenService) Verify(tokenStr string) (uint64, string, error) {
	parsed, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.Auth.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return 0, "", ErrUnauthorized
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", ErrUnauthorized
	}
	uidRaw, ok := claims["uid"].(float64)
	if !ok || uidRaw <= 0 {
		return 0, "", ErrUnauthorized
	}
	jti, _ := claims["jti"].(string)
	return uint64(uidRaw), jti, nil
}
