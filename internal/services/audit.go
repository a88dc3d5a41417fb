package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// AuditService 将安全敏感事件落库（登录、登出、停用、结算、欺诈拦截）。
type AuditService struct {
	db      *gorm.DB
	service string
}

func NewAuditService(db *gorm.DB, service string) *AuditService {
	return &AuditService{db: db, service: service}
}

// Write 写入一条审计日志；失败只记账不阻断主流程。
func (s *AuditService) Write(ctx context.Context, level, event string, userID *uint64, desc, ip string) {
	_ = s.db.WithContext(ctx).Create(&storage.AuditLog{
		Timestamp:   time.Now(),
		Service:     s.service,
		Level:       level,
		Event:       event,
		UserID:      userID,
		Description: desc,
		IPAddress:   ip,
	}).Error
}

// Recent 返回用户最近的审计记录，供安全页展示。
func (s *AuditService) Recent(ctx context.Context, userID uint64, limit int) ([]storage.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []storage.AuditLog
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").Limit(limit).Find(&out).Error
	return out, err
}
