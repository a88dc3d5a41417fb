package adapters

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// VisionResult 为单品图像分析的产出。
type VisionResult struct {
	DetectedCategory string   `json:"detected_category,omitempty"`
	DominantColors   []string `json:"dominant_colors,omitempty"`
	StyleTags        []string `json:"style_tags,omitempty"`
	Patterns         []string `json:"patterns,omitempty"`
	Confidence       float64  `json:"confidence"`
}

// VisionAnalyzer 调用视觉分析生产者；模拟模式下从已有元数据推断，
// 置信度固定偏低以示非真实识别。
type VisionAnalyzer struct {
	client  *resty.Client
	baseURL string
}

func NewVisionAnalyzer(baseURL string, timeout time.Duration) *VisionAnalyzer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &VisionAnalyzer{client: client, baseURL: baseURL}
}

// VisionInput 携带图像地址与已知元数据（模拟模式的推断依据）。
type VisionInput struct {
	ImageURL string `json:"image_url"`
	Category string `json:"category,omitempty"`
	Color    string `json:"color,omitempty"`
}

// Analyze 分析单品图像。
func (v *VisionAnalyzer) Analyze(ctx context.Context, in VisionInput) (*VisionResult, error) {
	if v.baseURL == "" {
		return v.simulate(in), nil
	}
	var out VisionResult
	resp, err := v.client.R().
		SetContext(ctx).
		SetBody(in).
		SetResult(&out).
		Post("/v1/analyze")
	if err != nil || resp.StatusCode() != 200 {
		logrus.WithError(err).Warn("vision producer unavailable, using local inference")
		return v.simulate(in), nil
	}
	return &out, nil
}

var categoryStyleTags = map[string][]string{
	"tops":      {"casual", "layerable"},
	"bottoms":   {"versatile"},
	"dresses":   {"feminine", "occasion"},
	"outerwear": {"layering", "seasonal"},
	"shoes":     {"everyday"},
}

func (v *VisionAnalyzer) simulate(in VisionInput) *VisionResult {
	out := &VisionResult{Confidence: 0.55}
	if in.Category != "" {
		out.DetectedCategory = strings.ToLower(in.Category)
		if tags, ok := categoryStyleTags[out.DetectedCategory]; ok {
			out.StyleTags = tags
		}
	}
	if in.Color != "" {
		out.DominantColors = []string{strings.ToLower(in.Color)}
	}
	return out
}
