package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/adapters"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// VisionService 调用视觉分析生产者并把结果回写到衣橱单品。
type VisionService struct {
	db       *gorm.DB
	analyzer *adapters.VisionAnalyzer
}

func NewVisionService(db *gorm.DB, analyzer *adapters.VisionAnalyzer) *VisionService {
	return &VisionService{db: db, analyzer: analyzer}
}

// AnalyzeItem 分析单品图像并持久化 CV 结果。重复调用覆盖旧结果。
func (s *VisionService) AnalyzeItem(ctx context.Context, userID, itemID uint64) (*storage.WardrobeItem, *adapters.VisionResult, error) {
	var item storage.WardrobeItem
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error; err != nil {
		return nil, nil, ErrNotFound
	}
	result, err := s.analyzer.Analyze(ctx, adapters.VisionInput{
		ImageURL: item.ImageURL,
		Category: item.Category,
		Color:    item.ColorPrimary,
	})
	if err != nil {
		return nil, nil, err
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, nil, err
	}
	if err := s.db.WithContext(ctx).Model(&item).Updates(map[string]any{
		"cv_analysis":   raw,
		"cv_confidence": result.Confidence,
	}).Error; err != nil {
		return nil, nil, err
	}
	item.CVAnalysis = raw
	item.CVConfidence = result.Confidence
	return &item, result, nil
}
