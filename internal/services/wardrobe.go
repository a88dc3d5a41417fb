package services

// 衣橱单品：录入、筛选、穿着记录与统计。所有操作按 user_id 圈定，
// 跨用户访问一律 ErrNotFound，不泄露资源存在性。

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// WardrobeService 管理用户衣橱。
type WardrobeService struct{ db *gorm.DB }

func NewWardrobeService(db *gorm.DB) *WardrobeService { return &WardrobeService{db: db} }

// WardrobeItemInput 为录入/修改单品的业务字段。
type WardrobeItemInput struct {
	Name             string
	Category         string
	Subcategory      string
	Brand            string
	ColorPrimary     string
	ColorSecondary   string
	Size             string
	FitType          string
	StyleTags        datatypes.JSON
	OccasionTags     datatypes.JSON
	SeasonTags       datatypes.JSON
	ImageURL         string
	AdditionalImages datatypes.JSON
	Favorite         *bool
}

// WardrobeFilter 控制列表筛选。
type WardrobeFilter struct {
	Category     string
	ColorPrimary string
	FavoriteOnly bool
	Query        string
}

// Create 录入衣橱单品。
func (s *WardrobeService) Create(ctx context.Context, userID uint64, in WardrobeItemInput) (*storage.WardrobeItem, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Category) == "" {
		return nil, fmt.Errorf("%w: name and category are required", ErrInvalid)
	}
	item := &storage.WardrobeItem{
		UserID:           userID,
		Name:             in.Name,
		Category:         strings.ToLower(in.Category),
		Subcategory:      in.Subcategory,
		Brand:            in.Brand,
		ColorPrimary:     strings.ToLower(in.ColorPrimary),
		ColorSecondary:   strings.ToLower(in.ColorSecondary),
		Size:             in.Size,
		FitType:          in.FitType,
		StyleTags:        in.StyleTags,
		OccasionTags:     in.OccasionTags,
		SeasonTags:       in.SeasonTags,
		ImageURL:         in.ImageURL,
		AdditionalImages: in.AdditionalImages,
	}
	if in.Favorite != nil {
		item.Favorite = *in.Favorite
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// Get 返回本人名下的单品。
func (s *WardrobeService) Get(ctx context.Context, userID, itemID uint64) (*storage.WardrobeItem, error) {
	var item storage.WardrobeItem
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error; err != nil {
		return nil, ErrNotFound
	}
	return &item, nil
}

// List 按筛选条件分页列出单品。
func (s *WardrobeService) List(ctx context.Context, userID uint64, f WardrobeFilter, page, perPage int) ([]storage.WardrobeItem, int64, error) {
	q := s.db.WithContext(ctx).Model(&storage.WardrobeItem{}).Where("user_id = ?", userID)
	if f.Category != "" {
		q = q.Where("category = ?", strings.ToLower(f.Category))
	}
	if f.ColorPrimary != "" {
		q = q.Where("color_primary = ?", strings.ToLower(f.ColorPrimary))
	}
	if f.FavoriteOnly {
		q = q.Where("favorite = ?", true)
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where("name LIKE ? OR brand LIKE ?", like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []storage.WardrobeItem
	err := q.Order("created_at DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&out).Error
	return out, total, err
}

// Update 修改单品字段。
func (s *WardrobeService) Update(ctx context.Context, userID, itemID uint64, in WardrobeItemInput) (*storage.WardrobeItem, error) {
	item, err := s.Get(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		item.Name = in.Name
	}
	if in.Category != "" {
		item.Category = strings.ToLower(in.Category)
	}
	if in.Subcategory != "" {
		item.Subcategory = in.Subcategory
	}
	if in.Brand != "" {
		item.Brand = in.Brand
	}
	if in.ColorPrimary != "" {
		item.ColorPrimary = strings.ToLower(in.ColorPrimary)
	}
	if in.ColorSecondary != "" {
		item.ColorSecondary = strings.ToLower(in.ColorSecondary)
	}
	if in.Size != "" {
		item.Size = in.Size
	}
	if in.FitType != "" {
		item.FitType = in.FitType
	}
	if in.StyleTags != nil {
		item.StyleTags = in.StyleTags
	}
	if in.OccasionTags != nil {
		item.OccasionTags = in.OccasionTags
	}
	if in.SeasonTags != nil {
		item.SeasonTags = in.SeasonTags
	}
	if in.ImageURL != "" {
		item.ImageURL = in.ImageURL
	}
	if in.AdditionalImages != nil {
		item.AdditionalImages = in.AdditionalImages
	}
	if in.Favorite != nil {
		item.Favorite = *in.Favorite
	}
	if err := s.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// Delete 删除本人名下的单品。
func (s *WardrobeService) Delete(ctx context.Context, userID, itemID uint64) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).Delete(&storage.WardrobeItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkWorn 记录一次穿着：wear_count 自增并刷新 last_worn。
func (s *WardrobeService) MarkWorn(ctx context.Context, userID, itemID uint64) (*storage.WardrobeItem, error) {
	item, err := s.Get(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := s.db.WithContext(ctx).Model(item).Updates(map[string]any{
		"wear_count": gorm.Expr("wear_count + 1"),
		"last_worn":  &now,
	}).Error; err != nil {
		return nil, err
	}
	item.WearCount++
	item.LastWorn = &now
	return item, nil
}

// CategoryCount 为衣橱统计的一行。
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// WardrobeStats 汇总衣橱规模与构成。
type WardrobeStats struct {
	TotalItems    int64           `json:"total_items"`
	FavoriteItems int64           `json:"favorite_items"`
	NeverWorn     int64           `json:"never_worn"`
	ByCategory    []CategoryCount `json:"by_category"`
}

// Stats 返回衣橱统计。
func (s *WardrobeService) Stats(ctx context.Context, userID uint64) (*WardrobeStats, error) {
	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&storage.WardrobeItem{}).Where("user_id = ?", userID)
	}
	var st WardrobeStats
	if err := base().Count(&st.TotalItems).Error; err != nil {
		return nil, err
	}
	if err := base().Where("favorite = ?", true).Count(&st.FavoriteItems).Error; err != nil {
		return nil, err
	}
	if err := base().Where("wear_count = 0").Count(&st.NeverWorn).Error; err != nil {
		return nil, err
	}
	if err := base().Select("category, COUNT(*) AS count").
		Group("category").Order("count DESC").Scan(&st.ByCategory).Error; err != nil {
		return nil, err
	}
	return &st, nil
}
