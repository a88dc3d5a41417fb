package services

// 造型洞察：搭配推荐与趋势聚合。二者都是相对昂贵的生产者调用，
// 结果走进程内缓存，耗时计入生产者窗口。

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/adapters"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/perf"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/utils"
)

// InsightsService 聚合推荐与趋势。
type InsightsService struct {
	db          *gorm.DB
	recommender *adapters.StyleRecommender
	cache       *perf.Cache
	tracker     *perf.Tracker
}

func NewInsightsService(db *gorm.DB, recommender *adapters.StyleRecommender, cache *perf.Cache, tracker *perf.Tracker) *InsightsService {
	return &InsightsService{db: db, recommender: recommender, cache: cache, tracker: tracker}
}

// Recommendations 返回个性化搭配建议；结果按用户与场景缓存 10 分钟。
func (s *InsightsService) Recommendations(ctx context.Context, userID uint64, occasion, season string) ([]adapters.Recommendation, bool, error) {
	// 场景串来自查询参数，哈希后作为缓存键避免畸形字符
	key := fmt.Sprintf("recommendations:%d:%s", userID, utils.HashKey(occasion+"|"+season))
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]adapters.Recommendation), true, nil
	}

	var u storage.User
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", userID, true).First(&u).Error; err != nil {
		return nil, false, ErrNotFound
	}
	var favoriteIDs []uint64
	if err := s.db.WithContext(ctx).Model(&storage.WardrobeItem{}).
		Where("user_id = ? AND favorite = ?", userID, true).
		Order("wear_count DESC").Limit(10).
		Pluck("id", &favoriteIDs).Error; err != nil {
		return nil, false, err
	}

	start := time.Now()
	recs, err := s.recommender.Recommend(ctx, adapters.RecommendInput{
		UserID:          userID,
		StylePreference: u.StylePreference,
		Occasion:        occasion,
		Season:          season,
		FavoriteItemIDs: favoriteIDs,
	})
	s.tracker.Record("producer:recommendations", perf.ClassProducer, time.Since(start), err != nil)
	if err != nil {
		return nil, false, err
	}
	s.cache.SetTTL(key, recs, 10*time.Minute)
	return recs, false, nil
}

// TrendEntry 为趋势榜单的一行。
type TrendEntry struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Trends 汇总近 30 天的趋势：热门场合、热门帖子类型与最常穿的品类。
// 全站共享，缓存 15 分钟。
type Trends struct {
	TopOccasions    []TrendEntry `json:"top_occasions,omitempty"`
	TopPostTypes    []TrendEntry `json:"top_post_types,omitempty"`
	TopCategories   []TrendEntry `json:"top_categories,omitempty"`
	WindowStartedAt time.Time    `json:"window_started_at"`
}

// Trends 返回全站趋势聚合。
func (s *InsightsService) Trends(ctx context.Context) (*Trends, bool, error) {
	const key = "trends:global"
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*Trends), true, nil
	}

	start := time.Now()
	since := time.Now().AddDate(0, 0, -30)
	out := &Trends{WindowStartedAt: since}

	err := s.db.WithContext(ctx).Model(&storage.Post{}).
		Select("occasion AS name, COUNT(*) AS count").
		Where("created_at > ? AND status = ? AND occasion <> ''", since, "published").
		Group("occasion").Order("count DESC").Limit(10).
		Scan(&out.TopOccasions).Error
	if err == nil {
		err = s.db.WithContext(ctx).Model(&storage.Post{}).
			Select("post_type AS name, COUNT(*) AS count").
			Where("created_at > ? AND status = ?", since, "published").
			Group("post_type").Order("count DESC").Limit(5).
			Scan(&out.TopPostTypes).Error
	}
	if err == nil {
		err = s.db.WithContext(ctx).Model(&storage.WardrobeItem{}).
			Select("category AS name, COUNT(*) AS count").
			Where("last_worn > ?", since).
			Group("category").Order("count DESC").Limit(10).
			Scan(&out.TopCategories).Error
	}
	s.tracker.Record("producer:trends", perf.ClassProducer, time.Since(start), err != nil)
	if err != nil {
		return nil, false, err
	}
	s.cache.SetTTL(key, out, 15*time.Minute)
	return out, false, nil
}

// StyleInsight 为针对单个用户的一条风格观察。
type StyleInsight struct {
	Kind       string  `json:"kind"`
	Message    string  `json:"message"`
	Confidence float64 `json:"confidence"`
}

// StyleInsights 基于衣橱穿着数据生成用户的风格观察，缓存 10 分钟。
func (s *InsightsService) StyleInsights(ctx context.Context, userID uint64) ([]StyleInsight, bool, error) {
	key := fmt.Sprintf("style-insights:%d", userID)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]StyleInsight), true, nil
	}

	var top []TrendEntry
	if err := s.db.WithContext(ctx).Model(&storage.WardrobeItem{}).
		Select("category AS name, SUM(wear_count) AS count").
		Where("user_id = ?", userID).
		Group("category").Order("count DESC").Limit(3).
		Scan(&top).Error; err != nil {
		return nil, false, err
	}
	var total, neverWorn int64
	if err := s.db.WithContext(ctx).Model(&storage.WardrobeItem{}).
		Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, false, err
	}
	if err := s.db.WithContext(ctx).Model(&storage.WardrobeItem{}).
		Where("user_id = ? AND wear_count = 0", userID).Count(&neverWorn).Error; err != nil {
		return nil, false, err
	}

	out := make([]StyleInsight, 0, 3)
	if len(top) > 0 && top[0].Count > 0 {
		out = append(out, StyleInsight{
			Kind:       "favorite_category",
			Message:    fmt.Sprintf("You reach for %s most often — it anchors your look.", top[0].Name),
			Confidence: 0.8,
		})
	}
	if total > 0 && neverWorn*2 > total {
		out = append(out, StyleInsight{
			Kind:       "underused_wardrobe",
			Message:    fmt.Sprintf("%d of your %d pieces have never been worn. Time for a re-mix!", neverWorn, total),
			Confidence: 0.7,
		})
	}
	if total == 0 {
		out = append(out, StyleInsight{
			Kind:       "empty_wardrobe",
			Message:    "Add a few wardrobe pieces to unlock personalized insights.",
			Confidence: 1,
		})
	}
	s.cache.SetTTL(key, out, 10*time.Minute)
	return out, false, nil
}
