package services

// 帖子、评论与点赞。点赞为幂等开关：重复点赞不报错也不重复计数；
// 各计数列与来源行同事务更新。

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/perf"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// PostService 管理穿搭帖子及其互动。
type PostService struct{ db *gorm.DB }

func NewPostService(db *gorm.DB) *PostService { return &PostService{db: db} }

var validPostTypes = map[string]bool{"outfit": true, "style_tip": true, "inspiration": true, "review": true}

// PostInput 为发帖请求的业务字段。
type PostInput struct {
	Title           string
	Caption         string
	PostType        string
	ImageURLs       datatypes.JSON
	OutfitID        *uint64
	WardrobeItemIDs datatypes.JSON
	StyleTags       datatypes.JSON
	Occasion        string
	Season          string
	IsPublic        *bool
	AllowComments   *bool
	AllowSharing    *bool
}

// Create 发布帖子并累加作者的 posts_count。
func (s *PostService) Create(ctx context.Context, userID uint64, in PostInput) (*storage.Post, error) {
	if strings.TrimSpace(in.Caption) == "" && strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title or caption is required", ErrInvalid)
	}
	if in.PostType == "" {
		in.PostType = "outfit"
	}
	if !validPostTypes[in.PostType] {
		return nil, fmt.Errorf("%w: unknown post_type %q", ErrInvalid, in.PostType)
	}
	post := &storage.Post{
		UserID:          userID,
		Title:           in.Title,
		Caption:         in.Caption,
		PostType:        in.PostType,
		ImageURLs:       in.ImageURLs,
		OutfitID:        in.OutfitID,
		WardrobeItemIDs: in.WardrobeItemIDs,
		StyleTags:       in.StyleTags,
		Occasion:        in.Occasion,
		Season:          in.Season,
		IsPublic:        true,
		AllowComments:   true,
		AllowSharing:    true,
		Status:          "published",
	}
	if in.IsPublic != nil {
		post.IsPublic = *in.IsPublic
	}
	if in.AllowComments != nil {
		post.AllowComments = *in.AllowComments
	}
	if in.AllowSharing != nil {
		post.AllowSharing = *in.AllowSharing
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		return tx.Model(&storage.SocialProfile{}).Where("user_id = ?", userID).
			UpdateColumn("posts_count", gorm.Expr("posts_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Get 返回帖子；私有帖子仅作者可见。阅读数在公开访问时自增。
func (s *PostService) Get(ctx context.Context, viewerID, postID uint64) (*storage.Post, error) {
	var post storage.Post
	if err := s.db.WithContext(ctx).Where("id = ? AND status = ?", postID, "published").First(&post).Error; err != nil {
		return nil, ErrNotFound
	}
	if !post.IsPublic && post.UserID != viewerID {
		return nil, ErrForbidden
	}
	if post.UserID != viewerID {
		_ = s.db.WithContext(ctx).Model(&post).
			UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error
		post.ViewsCount++
	}
	return &post, nil
}

// ListByUser 列出某用户的帖子；他人只能看到公开帖。
func (s *PostService) ListByUser(ctx context.Context, viewerID, targetID uint64, page, perPage int) ([]storage.Post, int64, error) {
	q := s.db.WithContext(ctx).Model(&storage.Post{}).
		Where("user_id = ? AND status = ?", targetID, "published")
	if viewerID != targetID {
		q = q.Where("is_public = ?", true)
	}
	return s.paginatePosts(q, page, perPage)
}

// Feed 返回关注对象与本人的公开帖，时间倒序。
func (s *PostService) Feed(ctx context.Context, userID uint64, followingIDs []uint64, page, perPage int) ([]storage.Post, int64, error) {
	authorIDs := append(append([]uint64{}, followingIDs...), userID)
	q := s.db.WithContext(ctx).Model(&storage.Post{}).
		Where("user_id IN ? AND status = ? AND is_public = ?", authorIDs, "published", true)
	return s.paginatePosts(q, page, perPage)
}

// Explore 返回全站公开帖，按互动热度排序。
func (s *PostService) Explore(ctx context.Context, page, perPage int) ([]storage.Post, int64, error) {
	q := s.db.WithContext(ctx).Model(&storage.Post{}).
		Where("status = ? AND is_public = ?", "published", true)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []storage.Post
	err := q.Order("likes_count + comments_count DESC, created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).Find(&out).Error
	return out, total, err
}

func (s *PostService) paginatePosts(q *gorm.DB, page, perPage int) ([]storage.Post, int64, error) {
	var out []storage.Post
	p, err := perf.Paginate(q.Order("created_at DESC"), page, perPage, &out)
	if err != nil {
		return nil, 0, err
	}
	return out, p.Total, nil
}

// Update 修改本人帖子的可编辑字段。
func (s *PostService) Update(ctx context.Context, userID, postID uint64, in PostInput) (*storage.Post, error) {
	var post storage.Post
	if err := s.db.WithContext(ctx).Where("id = ?", postID).First(&post).Error; err != nil {
		return nil, ErrNotFound
	}
	if post.UserID != userID {
		return nil, ErrForbidden
	}
	if in.Title != "" {
		post.Title = in.Title
	}
	if in.Caption != "" {
		post.Caption = in.Caption
	}
	if in.StyleTags != nil {
		post.StyleTags = in.StyleTags
	}
	if in.Occasion != "" {
		post.Occasion = in.Occasion
	}
	if in.Season != "" {
		post.Season = in.Season
	}
	if in.IsPublic != nil {
		post.IsPublic = *in.IsPublic
	}
	if in.AllowComments != nil {
		post.AllowComments = *in.AllowComments
	}
	if err := s.db.WithContext(ctx).Save(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// Delete 归档本人帖子并回退作者计数。
func (s *PostService) Delete(ctx context.Context, userID, postID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post storage.Post
		if err := tx.Where("id = ? AND status = ?", postID, "published").First(&post).Error; err != nil {
			return ErrNotFound
		}
		if post.UserID != userID {
			return ErrForbidden
		}
		if err := tx.Model(&post).Update("status", "archived").Error; err != nil {
			return err
		}
		return tx.Model(&storage.SocialProfile{}).
			Where("user_id = ? AND posts_count > 0", userID).
			UpdateColumn("posts_count", gorm.Expr("posts_count - 1")).Error
	})
}

// AddComment 发表评论或一级回复，并同步相关计数与通知。
func (s *PostService) AddComment(ctx context.Context, userID, postID uint64, parentID *uint64, content string) (*storage.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalid)
	}
	var post storage.Post
	if err := s.db.WithContext(ctx).Where("id = ? AND status = ?", postID, "published").First(&post).Error; err != nil {
		return nil, ErrNotFound
	}
	if !post.AllowComments {
		return nil, fmt.Errorf("%w: comments are disabled for this post", ErrForbidden)
	}
	comment := &storage.Comment{PostID: postID, UserID: userID, ParentCommentID: parentID, Content: content}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if parentID != nil {
			var parent storage.Comment
			if err := tx.Where("id = ? AND post_id = ?", *parentID, postID).First(&parent).Error; err != nil {
				return fmt.Errorf("%w: parent comment not found", ErrInvalid)
			}
			if parent.ParentCommentID != nil {
				return fmt.Errorf("%w: replies can only target top-level comments", ErrInvalid)
			}
			if err := tx.Model(&parent).
				UpdateColumn("replies_count", gorm.Expr("replies_count + 1")).Error; err != nil {
				return err
			}
		}
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		if err := tx.Model(&post).
			UpdateColumn("comments_count", gorm.Expr("comments_count + 1")).Error; err != nil {
			return err
		}
		if post.UserID != userID {
			return tx.Create(&storage.Notification{
				UserID:             post.UserID,
				SenderID:           &userID,
				Type:               "comment",
				Title:              "New comment",
				Message:            "Someone commented on your post",
				RelatedContentID:   &postID,
				RelatedContentType: "post",
			}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// Comments 分页返回帖子的顶层评论。
func (s *PostService) Comments(ctx context.Context, viewerID, postID uint64, page, perPage int) ([]storage.Comment, int64, error) {
	if _, err := s.Get(ctx, viewerID, postID); err != nil {
		return nil, 0, err
	}
	q := s.db.WithContext(ctx).Model(&storage.Comment{}).
		Where("post_id = ? AND parent_comment_id IS NULL", postID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []storage.Comment
	err := q.Order("created_at ASC").Offset((page - 1) * perPage).Limit(perPage).Find(&out).Error
	return out, total, err
}

// Replies 返回某条顶层评论的回复。
func (s *PostService) Replies(ctx context.Context, commentID uint64, page, perPage int) ([]storage.Comment, int64, error) {
	q := s.db.WithContext(ctx).Model(&storage.Comment{}).
		Where("parent_comment_id = ?", commentID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []storage.Comment
	err := q.Order("created_at ASC").Offset((page - 1) * perPage).Limit(perPage).Find(&out).Error
	return out, total, err
}

// LikePost 点赞帖子。重复点赞保持幂等，返回 liked=false 表示已点过。
func (s *PostService) LikePost(ctx context.Context, userID, postID uint64, likeType string) (bool, error) {
	if likeType == "" {
		likeType = "like"
	}
	var post storage.Post
	if err := s.db.WithContext(ctx).Where("id = ? AND status = ?", postID, "published").First(&post).Error; err != nil {
		return false, ErrNotFound
	}
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing storage.Like
		if err := tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&existing).Error; err == nil {
			return nil
		} else if err != gorm.ErrRecordNotFound {
			return err
		}
		like := storage.Like{UserID: userID, PostID: &postID, LikeType: likeType}
		if err := tx.Create(&like).Error; err != nil {
			if isDuplicateKey(err) {
				// 唯一索引挡下的并发重复按已点赞处理
				return nil
			}
			return err
		}
		created = true
		if err := tx.Model(&post).
			UpdateColumn("likes_count", gorm.Expr("likes_count + 1")).Error; err != nil {
			return err
		}
		if err := tx.Model(&storage.SocialProfile{}).Where("user_id = ?", post.UserID).
			UpdateColumn("likes_received", gorm.Expr("likes_received + 1")).Error; err != nil {
			return err
		}
		if post.UserID != userID {
			return tx.Create(&storage.Notification{
				UserID:             post.UserID,
				SenderID:           &userID,
				Type:               "like",
				Title:              "New like",
				Message:            "Someone liked your post",
				RelatedContentID:   &postID,
				RelatedContentType: "post",
			}).Error
		}
		return nil
	})
	return created, err
}

// UnlikePost 取消点赞；未点过时保持幂等。
func (s *PostService) UnlikePost(ctx context.Context, userID, postID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post storage.Post
		if err := tx.Where("id = ?", postID).First(&post).Error; err != nil {
			return ErrNotFound
		}
		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&storage.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Model(&post).
			Where("likes_count > 0").
			UpdateColumn("likes_count", gorm.Expr("likes_count - 1")).Error; err != nil {
			return err
		}
		return tx.Model(&storage.SocialProfile{}).
			Where("user_id = ? AND likes_received > 0", post.UserID).
			UpdateColumn("likes_received", gorm.Expr("likes_received - 1")).Error
	})
}

// LikeComment 点赞评论，幂等语义与帖子点赞一致。
func (s *PostService) LikeComment(ctx context.Context, userID, commentID uint64) (bool, error) {
	var comment storage.Comment
	if err := s.db.WithContext(ctx).Where("id = ?", commentID).First(&comment).Error; err != nil {
		return false, ErrNotFound
	}
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing storage.Like
		if err := tx.Where("user_id = ? AND comment_id = ?", userID, commentID).First(&existing).Error; err == nil {
			return nil
		} else if err != gorm.ErrRecordNotFound {
			return err
		}
		like := storage.Like{UserID: userID, CommentID: &commentID}
		if err := tx.Create(&like).Error; err != nil {
			if isDuplicateKey(err) {
				return nil
			}
			return err
		}
		created = true
		return tx.Model(&comment).
			UpdateColumn("likes_count", gorm.Expr("likes_count + 1")).Error
	})
	return created, err
}

// UnlikeComment 取消评论点赞。
func (s *PostService) UnlikeComment(ctx context.Context, userID, commentID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND comment_id = ?", userID, commentID).Delete(&storage.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&storage.Comment{}).
			Where("id = ? AND likes_count > 0", commentID).
			UpdateColumn("likes_count", gorm.Expr("likes_count - 1")).Error
	})
}
