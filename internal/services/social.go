package services

// 社交资料与关注关系。计数列与关系边在同一事务内更新，
// 并发重复关注由 (follower,following) 唯一索引兜底。

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// SocialService 维护社交资料与关注边。
type SocialService struct{ db *gorm.DB }

func NewSocialService(db *gorm.DB) *SocialService { return &SocialService{db: db} }

// ProfileFor 返回用户的社交资料，缺失时按用户名补建。
func (s *SocialService) ProfileFor(ctx context.Context, userID uint64) (*storage.SocialProfile, error) {
	var p storage.SocialProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	var u storage.User
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", userID, true).First(&u).Error; err != nil {
		return nil, ErrNotFound
	}
	p = storage.SocialProfile{
		UserID:            userID,
		DisplayName:       u.Username,
		IsPublic:          true,
		AllowFollowers:    true,
		AllowStyleSharing: true,
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		// 并发补建时退回读取既有行
		if e := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; e != nil {
			return nil, err
		}
	}
	return &p, nil
}

// ViewProfile 返回他人资料；非公开资料仅本人与已关注者可见。
func (s *SocialService) ViewProfile(ctx context.Context, viewerID, targetID uint64) (*storage.SocialProfile, error) {
	p, err := s.ProfileFor(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if targetID == viewerID || p.IsPublic {
		return p, nil
	}
	var edge storage.Connection
	err = s.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ? AND status = ?", viewerID, targetID, "active").
		First(&edge).Error
	if err != nil {
		return nil, ErrForbidden
	}
	return p, nil
}

// SocialProfileUpdate 的 nil 字段表示不修改。
type SocialProfileUpdate struct {
	DisplayName       *string
	Bio               *string
	ProfileImageURL   *string
	IsPublic          *bool
	AllowFollowers    *bool
	AllowStyleSharing *bool
	StyleTags         datatypes.JSON
	FavoriteBrands    datatypes.JSON
}

// UpdateProfile 更新本人社交资料。
func (s *SocialService) UpdateProfile(ctx context.Context, userID uint64, upd SocialProfileUpdate) (*storage.SocialProfile, error) {
	p, err := s.ProfileFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.DisplayName != nil {
		p.DisplayName = *upd.DisplayName
	}
	if upd.Bio != nil {
		p.Bio = *upd.Bio
	}
	if upd.ProfileImageURL != nil {
		p.ProfileImageURL = *upd.ProfileImageURL
	}
	if upd.IsPublic != nil {
		p.IsPublic = *upd.IsPublic
	}
	if upd.AllowFollowers != nil {
		p.AllowFollowers = *upd.AllowFollowers
	}
	if upd.AllowStyleSharing != nil {
		p.AllowStyleSharing = *upd.AllowStyleSharing
	}
	if upd.StyleTags != nil {
		p.StyleTags = upd.StyleTags
	}
	if upd.FavoriteBrands != nil {
		p.FavoriteBrands = upd.FavoriteBrands
	}
	now := time.Now()
	p.LastActive = &now
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// Follow 建立关注边并同步双方计数。重复关注返回 ErrConflict，
// 计数只在首次建边时累加。
func (s *SocialService) Follow(ctx context.Context, followerID, targetID uint64) (*storage.Connection, error) {
	if followerID == targetID {
		return nil, fmt.Errorf("%w: cannot follow yourself", ErrInvalid)
	}
	target, err := s.ProfileFor(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !target.AllowFollowers {
		return nil, fmt.Errorf("%w: user does not accept followers", ErrForbidden)
	}

	var edge storage.Connection
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("follower_id = ? AND following_id = ?", followerID, targetID).
			First(&edge).Error; err == nil {
			return fmt.Errorf("%w: already following this user", ErrConflict)
		} else if err != gorm.ErrRecordNotFound {
			return err
		}
		edge = storage.Connection{FollowerID: followerID, FollowingID: targetID, Status: "active"}
		if err := tx.Create(&edge).Error; err != nil {
			if isDuplicateKey(err) {
				// 并发竞争由唯一索引兜底，落败方同样按冲突处理
				return fmt.Errorf("%w: already following this user", ErrConflict)
			}
			return err
		}
		if err := tx.Model(&storage.SocialProfile{}).Where("user_id = ?", targetID).
			UpdateColumn("followers_count", gorm.Expr("followers_count + 1")).Error; err != nil {
			return err
		}
		if err := tx.Model(&storage.SocialProfile{}).Where("user_id = ?", followerID).
			UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error; err != nil {
			return err
		}
		return tx.Create(&storage.Notification{
			UserID:   targetID,
			SenderID: &followerID,
			Type:     "follow",
			Title:    "New follower",
			Message:  "Someone started following your style",
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// Unfollow 删除关注边并回退计数；本就未关注时保持幂等。
func (s *SocialService) Unfollow(ctx context.Context, followerID, targetID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ?", followerID, targetID).
			Delete(&storage.Connection{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Model(&storage.SocialProfile{}).
			Where("user_id = ? AND followers_count > 0", targetID).
			UpdateColumn("followers_count", gorm.Expr("followers_count - 1")).Error; err != nil {
			return err
		}
		return tx.Model(&storage.SocialProfile{}).
			Where("user_id = ? AND following_count > 0", followerID).
			UpdateColumn("following_count", gorm.Expr("following_count - 1")).Error
	})
}

// Followers 分页列出关注者的资料。
func (s *SocialService) Followers(ctx context.Context, userID uint64, page, perPage int) ([]storage.SocialProfile, int64, error) {
	return s.connectionProfiles(ctx, userID, "follower_id", "following_id", page, perPage)
}

// Following 分页列出该用户关注的人。
func (s *SocialService) Following(ctx context.Context, userID uint64, page, perPage int) ([]storage.SocialProfile, int64, error) {
	return s.connectionProfiles(ctx, userID, "following_id", "follower_id", page, perPage)
}

func (s *SocialService) connectionProfiles(ctx context.Context, userID uint64, selectCol, whereCol string, page, perPage int) ([]storage.SocialProfile, int64, error) {
	base := s.db.WithContext(ctx).Model(&storage.Connection{}).
		Where(whereCol+" = ? AND status = ?", userID, "active")
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	sub := base.Select(selectCol).
		Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage)
	var out []storage.SocialProfile
	err := s.db.WithContext(ctx).
		Where("user_id IN (?)", sub).
		Find(&out).Error
	return out, total, err
}

// IsFollowing 判断 follower 是否关注 target。
func (s *SocialService) IsFollowing(ctx context.Context, followerID, targetID uint64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&storage.Connection{}).
		Where("follower_id = ? AND following_id = ? AND status = ?", followerID, targetID, "active").
		Count(&count).Error
	return count > 0, err
}

// FollowingIDs 返回用户关注的全部用户 ID，动态流查询使用。
func (s *SocialService) FollowingIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := s.db.WithContext(ctx).Model(&storage.Connection{}).
		Where("follower_id = ? AND status = ?", userID, "active").
		Pluck("following_id", &ids).Error
	return ids, err
}
