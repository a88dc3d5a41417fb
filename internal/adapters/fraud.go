package adapters

import (
	"context"

	"github.com/shopspring/decimal"
)

// FraudAssessment 为一次下单的风险评估。
type FraudAssessment struct {
	Score   float64  `json:"score"` // 0-1，越高越可疑
	Level   string   `json:"level"` // low, medium, high
	Blocked bool     `json:"blocked"`
	Reasons []string `json:"reasons,omitempty"`
}

// FraudChecker 以简单规则给订单打分：大额、首单大额、频繁下单加分。
// 分数阈值：>=0.8 拦截，>=0.5 标记复核。
type FraudChecker struct {
	highAmount decimal.Decimal
}

func NewFraudChecker() *FraudChecker {
	return &FraudChecker{highAmount: decimal.NewFromInt(1000)}
}

// FraudInput 为评估所需的订单画像。
type FraudInput struct {
	Amount          decimal.Decimal
	Currency        string
	OrdersToday     int64
	LifetimeOrders  int64
	ShippingCountry string
	MarketCountry   string
}

// Assess 计算风险分。规则可叠加，封顶 1.0。
func (f *FraudChecker) Assess(ctx context.Context, in FraudInput) *FraudAssessment {
	score := 0.0
	reasons := []string{}
	if in.Amount.GreaterThan(f.highAmount) {
		score += 0.35
		reasons = append(reasons, "high_order_amount")
	}
	if in.LifetimeOrders == 0 && in.Amount.GreaterThan(f.highAmount.Div(decimal.NewFromInt(2))) {
		score += 0.25
		reasons = append(reasons, "first_order_high_amount")
	}
	if in.OrdersToday >= 5 {
		score += 0.3
		reasons = append(reasons, "order_velocity")
	}
	if in.ShippingCountry != "" && in.MarketCountry != "" && in.ShippingCountry != in.MarketCountry {
		score += 0.2
		reasons = append(reasons, "cross_border_shipping")
	}
	if score > 1 {
		score = 1
	}
	out := &FraudAssessment{Score: score, Reasons: reasons}
	switch {
	case score >= 0.8:
		out.Level = "high"
		out.Blocked = true
	case score >= 0.5:
		out.Level = "medium"
	default:
		out.Level = "low"
	}
	return out
}
