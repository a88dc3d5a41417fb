package services

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// SessionService 维护令牌对应的会话行：创建、枚举、撤销与惰性过期。
// 会话行以令牌 jti 为键，供审计与“吊销检查”使用。
type SessionService struct{ db *gorm.DB }

func NewSessionService(db *gorm.DB) *SessionService { return &SessionService{db: db} }

// Create 在签发令牌后落一条会话记录。
func (s *SessionService) Create(ctx context.Context, userID uint64, jti string, expiresAt time.Time, deviceInfo datatypes.JSON, ip string) (*storage.Session, error) {
	sess := &storage.Session{
		UserID:     userID,
		Token:      jti,
		DeviceInfo: deviceInfo,
		IPAddress:  ip,
		ExpiresAt:  expiresAt,
		IsActive:   true,
	}
	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return nil, err
	}
	return sess, nil
}

// Validate 校验 jti 对应的会话仍然有效；过期会话就地停用。
func (s *SessionService) Validate(ctx context.Context, jti string) (*storage.Session, error) {
	var sess storage.Session
	if err := s.db.WithContext(ctx).Where("token = ? AND is_active = ?", jti, true).First(&sess).Error; err != nil {
		return nil, ErrUnauthorized
	}
	if time.Now().After(sess.ExpiresAt) {
		_ = s.db.WithContext(ctx).Model(&sess).Update("is_active", false).Error
		return nil, ErrUnauthorized
	}
	return &sess, nil
}

// List 枚举用户当前有效的会话。
func (s *SessionService) List(ctx context.Context, userID uint64) ([]storage.Session, error) {
	var out []storage.Session
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND expires_at > ?", userID, true, time.Now()).
		Order("created_at DESC").Find(&out).Error
	return out, err
}

// Revoke 撤销用户名下的指定会话；不属于该用户时返回 ErrNotFound。
func (s *SessionService) Revoke(ctx context.Context, userID, sessionID uint64) error {
	res := s.db.WithContext(ctx).Model(&storage.Session{}).
		Where("id = ? AND user_id = ? AND is_active = ?", sessionID, userID, true).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeByJTI 按 jti 撤销会话，登出时使用。
func (s *SessionService) RevokeByJTI(ctx context.Context, userID uint64, jti string) error {
	return s.db.WithContext(ctx).Model(&storage.Session{}).
		Where("token = ? AND user_id = ?", jti, userID).
		Update("is_active", false).Error
}
