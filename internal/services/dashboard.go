package services

// 快速仪表盘：一次请求聚合各域的摘要。每个区块都有行数上限，
// 超限以 truncated 标记提示客户端走分页接口；结果按用户短缓存。

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/perf"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// 各区块的行数上限。
const (
	dashboardItemLimit  = 5
	dashboardOrderLimit = 3
)

// DashboardSection 为一个有界区块。
type DashboardSection[T any] struct {
	Items     []T  `json:"items"`
	Truncated bool `json:"truncated"`
}

// Dashboard 为聚合读模型。
type Dashboard struct {
	User struct {
		Username        string  `json:"username"`
		FirstName       string  `json:"first_name,omitempty"`
		StylePreference string  `json:"style_preference,omitempty"`
		ProfileComplete float64 `json:"profile_complete_pct"`
		ActiveSessions  int64   `json:"active_sessions"`
	} `json:"user"`
	Wardrobe struct {
		TotalItems int64                                  `json:"total_items"`
		NeverWorn  int64                                  `json:"never_worn"`
		Recent     DashboardSection[storage.WardrobeItem] `json:"recent"`
	} `json:"wardrobe"`
	Outfits DashboardSection[storage.OutfitComposition] `json:"outfits"`
	Styling struct {
		RecentInsights        []StyleInsight `json:"recent_insights"`
		RecommendationSummary struct {
			StylePreference string `json:"style_preference,omitempty"`
			AnchorItems     int64  `json:"anchor_items"`
		} `json:"recommendation_summary"`
	} `json:"styling"`
	Social struct {
		FollowersCount      int64                                  `json:"followers_count"`
		FollowingCount      int64                                  `json:"following_count"`
		UnreadNotifications int64                                  `json:"unread_notifications"`
		TopPosts            DashboardSection[storage.Post]         `json:"top_posts"`
		RecentNotifications DashboardSection[storage.Notification] `json:"recent_notifications"`
	} `json:"social"`
	Commerce struct {
		ActiveCart struct {
			Items    int64           `json:"items"`
			Subtotal decimal.Decimal `json:"subtotal"`
		} `json:"active_cart"`
		Spend struct {
			OrdersCount int64           `json:"orders_count"`
			TotalSpent  decimal.Decimal `json:"total_spent"`
		} `json:"spend"`
	} `json:"commerce"`
	Orders      DashboardSection[storage.Order] `json:"orders"`
	GeneratedAt time.Time                       `json:"generated_at"`
}

// DashboardService 组装聚合读模型。
type DashboardService struct {
	db       *gorm.DB
	cache    *perf.Cache
	insights *InsightsService
}

func NewDashboardService(db *gorm.DB, cache *perf.Cache, insights *InsightsService) *DashboardService {
	return &DashboardService{db: db, cache: cache, insights: insights}
}

// Invalidate 在写路径命中相关域后调用，清掉该用户的仪表盘缓存。
func (s *DashboardService) Invalidate(userID uint64) {
	s.cache.Delete(fmt.Sprintf("dashboard:%d", userID))
}

// Build 返回用户仪表盘；缓存 60 秒。第二个返回值表示是否命中缓存。
func (s *DashboardService) Build(ctx context.Context, userID uint64) (*Dashboard, bool, error) {
	key := fmt.Sprintf("dashboard:%d", userID)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*Dashboard), true, nil
	}

	var u storage.User
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", userID, true).First(&u).Error; err != nil {
		return nil, false, ErrNotFound
	}

	d := &Dashboard{GeneratedAt: time.Now()}
	d.User.Username = u.Username
	d.User.FirstName = u.FirstName
	d.User.StylePreference = u.StylePreference

	var styleProfile storage.StyleProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&styleProfile).Error; err == nil {
		d.User.ProfileComplete = styleProfile.CompletionPct
	}
	if err := s.db.WithContext(ctx).Model(&storage.Session{}).
		Where("user_id = ? AND is_active = ? AND expires_at > ?", userID, true, time.Now()).
		Count(&d.User.ActiveSessions).Error; err != nil {
		return nil, false, err
	}

	wardrobeQ := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&storage.WardrobeItem{}).Where("user_id = ?", userID)
	}
	if err := wardrobeQ().Count(&d.Wardrobe.TotalItems).Error; err != nil {
		return nil, false, err
	}
	if err := wardrobeQ().Where("wear_count = 0").Count(&d.Wardrobe.NeverWorn).Error; err != nil {
		return nil, false, err
	}
	if err := boundedSection(wardrobeQ().Order("created_at DESC"), dashboardItemLimit, &d.Wardrobe.Recent); err != nil {
		return nil, false, err
	}

	outfitQ := s.db.WithContext(ctx).Model(&storage.OutfitComposition{}).
		Where("user_id = ?", userID).Order("created_at DESC")
	if err := boundedSection(outfitQ, dashboardItemLimit, &d.Outfits); err != nil {
		return nil, false, err
	}

	// 造型区块复用洞察服务（其结果自带 10 分钟缓存）
	if s.insights != nil {
		recent, _, err := s.insights.StyleInsights(ctx, userID)
		if err != nil {
			return nil, false, err
		}
		d.Styling.RecentInsights = recent
	}
	d.Styling.RecommendationSummary.StylePreference = u.StylePreference
	if err := wardrobeQ().Where("favorite = ?", true).
		Count(&d.Styling.RecommendationSummary.AnchorItems).Error; err != nil {
		return nil, false, err
	}

	var social storage.SocialProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&social).Error; err == nil {
		d.Social.FollowersCount = int64(social.FollowersCount)
		d.Social.FollowingCount = int64(social.FollowingCount)
	}
	notifQ := s.db.WithContext(ctx).Model(&storage.Notification{}).
		Where("user_id = ?", userID).
		Where("expires_at IS NULL OR expires_at > ?", time.Now())
	if err := notifQ.Session(&gorm.Session{}).Where("is_read = ?", false).
		Count(&d.Social.UnreadNotifications).Error; err != nil {
		return nil, false, err
	}
	if err := boundedSection(notifQ.Session(&gorm.Session{}).Order("created_at DESC"),
		dashboardItemLimit, &d.Social.RecentNotifications); err != nil {
		return nil, false, err
	}
	topPostQ := s.db.WithContext(ctx).Model(&storage.Post{}).
		Where("user_id = ? AND status = ?", userID, "published").
		Order("likes_count + comments_count DESC, created_at DESC")
	if err := boundedSection(topPostQ, dashboardOrderLimit, &d.Social.TopPosts); err != nil {
		return nil, false, err
	}

	orderQ := s.db.WithContext(ctx).Model(&storage.Order{}).
		Where("user_id = ?", userID).Order("created_at DESC")
	if err := boundedSection(orderQ, dashboardOrderLimit, &d.Orders); err != nil {
		return nil, false, err
	}

	if err := s.commerceSummary(ctx, userID, d); err != nil {
		return nil, false, err
	}

	s.cache.SetTTL(key, d, time.Minute)
	return d, false, nil
}

// commerceSummary 汇总活跃购物车与消费统计。
func (s *DashboardService) commerceSummary(ctx context.Context, userID uint64, d *Dashboard) error {
	var cartIDs []uint64
	if err := s.db.WithContext(ctx).Model(&storage.Cart{}).
		Where("user_id = ? AND status = ?", userID, "active").
		Pluck("id", &cartIDs).Error; err != nil {
		return err
	}
	d.Commerce.ActiveCart.Subtotal = decimal.Zero
	if len(cartIDs) > 0 {
		if err := s.db.WithContext(ctx).Model(&storage.CartItem{}).
			Where("cart_id IN ?", cartIDs).
			Select("COALESCE(SUM(quantity), 0)").
			Scan(&d.Commerce.ActiveCart.Items).Error; err != nil {
			return err
		}
		if err := s.db.WithContext(ctx).Model(&storage.Cart{}).
			Where("id IN ?", cartIDs).
			Select("COALESCE(SUM(subtotal), 0)").
			Scan(&d.Commerce.ActiveCart.Subtotal).Error; err != nil {
			return err
		}
	}
	if err := s.db.WithContext(ctx).Model(&storage.Order{}).
		Where("user_id = ? AND status <> ?", userID, "cancelled").
		Count(&d.Commerce.Spend.OrdersCount).Error; err != nil {
		return err
	}
	d.Commerce.Spend.TotalSpent = decimal.Zero
	return s.db.WithContext(ctx).Model(&storage.Order{}).
		Where("user_id = ? AND payment_status = ?", userID, "paid").
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&d.Commerce.Spend.TotalSpent).Error
}

// boundedSection 取 limit+1 行判断是否截断，只返回前 limit 行。
func boundedSection[T any](q *gorm.DB, limit int, out *DashboardSection[T]) error {
	var rows []T
	if err := q.Limit(limit + 1).Find(&rows).Error; err != nil {
		return err
	}
	if len(rows) > limit {
		out.Truncated = true
		rows = rows[:limit]
	}
	out.Items = rows
	return nil
}
