package services

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// styleProfileKeys 为风格画像的完整维度集合，完善度按已填维度占比计算。
var styleProfileKeys = []string{
	"body_shape", "skin_tone", "style_personality", "preferred_fits",
	"favorite_colors", "avoided_colors", "lifestyle", "budget_focus",
}

// StyleProfileService 维护每用户一份的风格画像。
type StyleProfileService struct{ db *gorm.DB }

func NewStyleProfileService(db *gorm.DB) *StyleProfileService {
	return &StyleProfileService{db: db}
}

// Get 返回画像，缺失时创建空画像。
func (s *StyleProfileService) Get(ctx context.Context, userID uint64) (*storage.StyleProfile, error) {
	var p storage.StyleProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	p = storage.StyleProfile{UserID: userID, Parameters: []byte("{}")}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Update 合并传入的画像维度并重算完善度。传入 null 值删除该维度。
func (s *StyleProfileService) Update(ctx context.Context, userID uint64, params map[string]any) (*storage.StyleProfile, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("%w: no parameters provided", ErrInvalid)
	}
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	merged := map[string]any{}
	if len(p.Parameters) > 0 {
		if err := json.Unmarshal(p.Parameters, &merged); err != nil {
			merged = map[string]any{}
		}
	}
	for k, v := range params {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	p.Parameters = raw
	p.CompletionPct = completionPct(merged)
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func completionPct(params map[string]any) float64 {
	filled := 0
	for _, key := range styleProfileKeys {
		if v, ok := params[key]; ok && v != nil {
			filled++
		}
	}
	return float64(filled) / float64(len(styleProfileKeys)) * 100
}
