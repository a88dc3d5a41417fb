package services

// 穿搭组合：以角色引用衣橱单品。创建与修改时校验被引用单品
// 均属于当前用户，杜绝跨衣橱引用。

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// OutfitService 管理穿搭组合。
type OutfitService struct{ db *gorm.DB }

func NewOutfitService(db *gorm.DB) *OutfitService { return &OutfitService{db: db} }

// OutfitInput 为创建/修改穿搭的业务字段。
type OutfitInput struct {
	Name         string
	TopID        *uint64
	BottomID     *uint64
	DressID      *uint64
	OuterwearID  *uint64
	ShoesID      *uint64
	AccessoryIDs datatypes.JSON
	Occasion     string
	Season       string
	StyleTheme   string
	UserRating   *int
	Favorite     *bool
}

// Create 创建穿搭；至少需要一个角色位或连衣裙。
func (s *OutfitService) Create(ctx context.Context, userID uint64, in OutfitInput) (*storage.OutfitComposition, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if in.TopID == nil && in.BottomID == nil && in.DressID == nil &&
		in.OuterwearID == nil && in.ShoesID == nil {
		return nil, fmt.Errorf("%w: outfit needs at least one item", ErrInvalid)
	}
	if err := s.verifyOwnership(ctx, userID, in); err != nil {
		return nil, err
	}
	outfit := &storage.OutfitComposition{
		UserID:       userID,
		Name:         in.Name,
		TopID:        in.TopID,
		BottomID:     in.BottomID,
		DressID:      in.DressID,
		OuterwearID:  in.OuterwearID,
		ShoesID:      in.ShoesID,
		AccessoryIDs: in.AccessoryIDs,
		Occasion:     in.Occasion,
		Season:       in.Season,
		StyleTheme:   in.StyleTheme,
	}
	if in.UserRating != nil {
		if *in.UserRating < 1 || *in.UserRating > 5 {
			return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalid)
		}
		outfit.UserRating = *in.UserRating
	}
	if in.Favorite != nil {
		outfit.Favorite = *in.Favorite
	}
	if err := s.db.WithContext(ctx).Create(outfit).Error; err != nil {
		return nil, err
	}
	return outfit, nil
}

// verifyOwnership 确认全部被引用的单品属于该用户。
func (s *OutfitService) verifyOwnership(ctx context.Context, userID uint64, in OutfitInput) error {
	ids := make([]uint64, 0, 8)
	for _, ref := range []*uint64{in.TopID, in.BottomID, in.DressID, in.OuterwearID, in.ShoesID} {
		if ref != nil {
			ids = append(ids, *ref)
		}
	}
	if in.AccessoryIDs != nil {
		var accessories []uint64
		if err := json.Unmarshal(in.AccessoryIDs, &accessories); err != nil {
			return fmt.Errorf("%w: accessory_ids must be an array of item ids", ErrInvalid)
		}
		ids = append(ids, accessories...)
	}
	if len(ids) == 0 {
		return nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&storage.WardrobeItem{}).
		Where("id IN ? AND user_id = ?", ids, userID).Count(&count).Error; err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return fmt.Errorf("%w: one or more items are not in your wardrobe", ErrInvalid)
	}
	return nil
}

// Get 返回本人名下的穿搭。
func (s *OutfitService) Get(ctx context.Context, userID, outfitID uint64) (*storage.OutfitComposition, error) {
	var outfit storage.OutfitComposition
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", outfitID, userID).First(&outfit).Error; err != nil {
		return nil, ErrNotFound
	}
	return &outfit, nil
}

// OutfitFilter 控制穿搭列表筛选。
type OutfitFilter struct {
	Occasion     string
	Season       string
	FavoriteOnly bool
}

// List 分页列出穿搭。
func (s *OutfitService) List(ctx context.Context, userID uint64, f OutfitFilter, page, perPage int) ([]storage.OutfitComposition, int64, error) {
	q := s.db.WithContext(ctx).Model(&storage.OutfitComposition{}).Where("user_id = ?", userID)
	if f.Occasion != "" {
		q = q.Where("occasion = ?", f.Occasion)
	}
	if f.Season != "" {
		q = q.Where("season = ?", f.Season)
	}
	if f.FavoriteOnly {
		q = q.Where("favorite = ?", true)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []storage.OutfitComposition
	err := q.Order("created_at DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&out).Error
	return out, total, err
}

// Update 修改穿搭；被引用的单品重新校验归属。
func (s *OutfitService) Update(ctx context.Context, userID, outfitID uint64, in OutfitInput) (*storage.OutfitComposition, error) {
	outfit, err := s.Get(ctx, userID, outfitID)
	if err != nil {
		return nil, err
	}
	if err := s.verifyOwnership(ctx, userID, in); err != nil {
		return nil, err
	}
	if in.Name != "" {
		outfit.Name = in.Name
	}
	if in.TopID != nil {
		outfit.TopID = in.TopID
	}
	if in.BottomID != nil {
		outfit.BottomID = in.BottomID
	}
	if in.DressID != nil {
		outfit.DressID = in.DressID
	}
	if in.OuterwearID != nil {
		outfit.OuterwearID = in.OuterwearID
	}
	if in.ShoesID != nil {
		outfit.ShoesID = in.ShoesID
	}
	if in.AccessoryIDs != nil {
		outfit.AccessoryIDs = in.AccessoryIDs
	}
	if in.Occasion != "" {
		outfit.Occasion = in.Occasion
	}
	if in.Season != "" {
		outfit.Season = in.Season
	}
	if in.StyleTheme != "" {
		outfit.StyleTheme = in.StyleTheme
	}
	if in.UserRating != nil {
		if *in.UserRating < 1 || *in.UserRating > 5 {
			return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalid)
		}
		outfit.UserRating = *in.UserRating
	}
	if in.Favorite != nil {
		outfit.Favorite = *in.Favorite
	}
	if err := s.db.WithContext(ctx).Save(outfit).Error; err != nil {
		return nil, err
	}
	return outfit, nil
}

// Delete 删除穿搭。
func (s *OutfitService) Delete(ctx context.Context, userID, outfitID uint64) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", outfitID, userID).Delete(&storage.OutfitComposition{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkWorn 记录穿搭被穿着一次，同时累加组成单品的穿着数。
func (s *OutfitService) MarkWorn(ctx context.Context, userID, outfitID uint64) (*storage.OutfitComposition, error) {
	outfit, err := s.Get(ctx, userID, outfitID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(outfit).Updates(map[string]any{
			"worn_count": gorm.Expr("worn_count + 1"),
			"last_worn":  &now,
		}).Error; err != nil {
			return err
		}
		ids := make([]uint64, 0, 5)
		for _, ref := range []*uint64{outfit.TopID, outfit.BottomID, outfit.DressID, outfit.OuterwearID, outfit.ShoesID} {
			if ref != nil {
				ids = append(ids, *ref)
			}
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Model(&storage.WardrobeItem{}).
			Where("id IN ? AND user_id = ?", ids, userID).
			Updates(map[string]any{
				"wear_count": gorm.Expr("wear_count + 1"),
				"last_worn":  &now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	outfit.WornCount++
	outfit.LastWorn = &now
	return outfit, nil
}
