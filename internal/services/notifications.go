package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// NotificationService 管理站内通知：列出、已读标记与未读计数。
// 带过期时间的通知到期后不再返回。
type NotificationService struct{ db *gorm.DB }

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) scope(ctx context.Context, userID uint64) *gorm.DB {
	return s.db.WithContext(ctx).Model(&storage.Notification{}).
		Where("user_id = ?", userID).
		Where("expires_at IS NULL OR expires_at > ?", time.Now())
}

// List 分页返回通知，unreadOnly 时仅未读。
func (s *NotificationService) List(ctx context.Context, userID uint64, unreadOnly bool, page, perPage int) ([]storage.Notification, int64, error) {
	q := s.scope(ctx, userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []storage.Notification
	err := q.Order("created_at DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&out).Error
	return out, total, err
}

// UnreadCount 返回未读数量。
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := s.scope(ctx, userID).Where("is_read = ?", false).Count(&count).Error
	return count, err
}

// MarkRead 将单条通知标记为已读；不属于该用户时返回 ErrNotFound。
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint64) error {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&storage.Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", notificationID, userID, false).
		Updates(map[string]any{"is_read": true, "read_at": &now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n storage.Notification
		if err := s.db.WithContext(ctx).
			Where("id = ? AND user_id = ?", notificationID, userID).First(&n).Error; err != nil {
			return ErrNotFound
		}
	}
	return nil
}

// MarkAllRead 批量标记已读，返回受影响条数。
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&storage.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": &now})
	return res.RowsAffected, res.Error
}

// Push 由其他服务调用，生成一条业务通知。
func (s *NotificationService) Push(ctx context.Context, n *storage.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}
