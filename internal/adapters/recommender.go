package adapters

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Recommendation 为一条搭配建议。
type Recommendation struct {
	Title      string   `json:"title"`
	Reason     string   `json:"reason"`
	ItemIDs    []uint64 `json:"item_ids,omitempty"`
	Occasion   string   `json:"occasion,omitempty"`
	Confidence float64  `json:"confidence"`
}

// StyleRecommender 调用搭配推荐生产者；模拟模式按偏好给出规则化建议。
type StyleRecommender struct {
	client  *resty.Client
	baseURL string
}

func NewStyleRecommender(baseURL string, timeout time.Duration) *StyleRecommender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &StyleRecommender{client: client, baseURL: baseURL}
}

// RecommendInput 携带推荐所需的用户上下文。
type RecommendInput struct {
	UserID          uint64   `json:"user_id"`
	StylePreference string   `json:"style_preference,omitempty"`
	Occasion        string   `json:"occasion,omitempty"`
	Season          string   `json:"season,omitempty"`
	FavoriteItemIDs []uint64 `json:"favorite_item_ids,omitempty"`
}

// Recommend 产出搭配建议。
func (r *StyleRecommender) Recommend(ctx context.Context, in RecommendInput) ([]Recommendation, error) {
	if r.baseURL == "" {
		return r.simulate(in), nil
	}
	var out []Recommendation
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(in).
		SetResult(&out).
		Post("/v1/recommendations")
	if err != nil || resp.StatusCode() != 200 {
		logrus.WithError(err).Warn("recommendation producer unavailable, using local rules")
		return r.simulate(in), nil
	}
	return out, nil
}

func (r *StyleRecommender) simulate(in RecommendInput) []Recommendation {
	style := in.StylePreference
	if style == "" {
		style = "casual"
	}
	occasion := in.Occasion
	if occasion == "" {
		occasion = "everyday"
	}
	recs := []Recommendation{
		{
			Title:      "Lean into your " + style + " staples",
			Reason:     "Built from the pieces you wear most often",
			ItemIDs:    in.FavoriteItemIDs,
			Occasion:   occasion,
			Confidence: 0.6,
		},
		{
			Title:      "Rotate a neglected piece",
			Reason:     "Items unworn for a month pair well with your favorites",
			Occasion:   occasion,
			Confidence: 0.5,
		},
	}
	if in.Season != "" {
		recs = append(recs, Recommendation{
			Title:      "Season check for " + in.Season,
			Reason:     "Swap fabrics and layers to match the season",
			Occasion:   occasion,
			Confidence: 0.45,
		})
	}
	return recs
}
