package services

// 优惠券校验与折扣计算。校验在结算的 payment 步进行，
// 核销与订单创建同事务落库。

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// CouponService 管理优惠券的查验与核销。
type CouponService struct{ db *gorm.DB }

func NewCouponService(db *gorm.DB) *CouponService { return &CouponService{db: db} }

// ComputeDiscount 计算券面折扣：
// percentage 按小计乘折扣率并受最高减免约束；
// fixed_amount 直接减固定额，但不超过小计。结果保留两位小数。
func ComputeDiscount(c *storage.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch c.DiscountType {
	case "percentage":
		discount = subtotal.Mul(c.DiscountValue).Div(decimal.NewFromInt(100))
		if c.MaximumDiscountAmount.Valid && discount.GreaterThan(c.MaximumDiscountAmount.Decimal) {
			discount = c.MaximumDiscountAmount.Decimal
		}
	case "fixed_amount":
		discount = c.DiscountValue
	default:
		return decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.Sign() < 0 {
		discount = decimal.Zero
	}
	return discount.Round(2)
}

// Validate 校验优惠券对该用户与订单是否可用，返回券与折扣额。
// 所有失败路径都归为 ErrInvalid，携带具体原因。
func (s *CouponService) Validate(ctx context.Context, code string, userID, marketID uint64, subtotal decimal.Decimal) (*storage.Coupon, decimal.Decimal, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, decimal.Zero, fmt.Errorf("%w: coupon code is required", ErrInvalid)
	}
	var c storage.Coupon
	if err := s.db.WithContext(ctx).Where("code = ? AND is_active = ?", code, true).First(&c).Error; err != nil {
		return nil, decimal.Zero, fmt.Errorf("%w: coupon not found", ErrInvalid)
	}
	now := time.Now()
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return nil, decimal.Zero, fmt.Errorf("%w: coupon is not valid at this time", ErrInvalid)
	}
	if c.UsageLimit != nil && c.CurrentUsageCount >= *c.UsageLimit {
		return nil, decimal.Zero, fmt.Errorf("%w: coupon usage limit reached", ErrInvalid)
	}
	if c.UsageLimitPerUser > 0 {
		var used int64
		if err := s.db.WithContext(ctx).Model(&storage.CouponRedemption{}).
			Where("coupon_id = ? AND user_id = ?", c.ID, userID).Count(&used).Error; err != nil {
			return nil, decimal.Zero, err
		}
		if used >= int64(c.UsageLimitPerUser) {
			return nil, decimal.Zero, fmt.Errorf("%w: you have already used this coupon", ErrInvalid)
		}
	}
	if subtotal.LessThan(c.MinimumOrderAmount) {
		return nil, decimal.Zero, fmt.Errorf("%w: order minimum of %s not met", ErrInvalid, c.MinimumOrderAmount.StringFixed(2))
	}
	if !marketApplicable(&c, marketID) {
		return nil, decimal.Zero, fmt.Errorf("%w: coupon not valid in this market", ErrInvalid)
	}
	discount := ComputeDiscount(&c, subtotal)
	if discount.Sign() <= 0 {
		return nil, decimal.Zero, fmt.Errorf("%w: coupon yields no discount", ErrInvalid)
	}
	return &c, discount, nil
}

func marketApplicable(c *storage.Coupon, marketID uint64) bool {
	if len(c.ApplicableMarkets) == 0 {
		return true
	}
	var ids []uint64
	if err := json.Unmarshal(c.ApplicableMarkets, &ids); err != nil || len(ids) == 0 {
		return true
	}
	for _, id := range ids {
		if id == marketID {
			return true
		}
	}
	return false
}

// Redeem 在订单事务内核销优惠券：累加总用量并记核销行。
// 用量累加带上限条件，并发把券用尽时落败方整单回滚。
func (s *CouponService) Redeem(tx *gorm.DB, couponID, userID uint64, orderID *uint64) error {
	res := tx.Model(&storage.Coupon{}).
		Where("id = ? AND (usage_limit IS NULL OR current_usage_count < usage_limit)", couponID).
		UpdateColumn("current_usage_count", gorm.Expr("current_usage_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: coupon usage limit reached", ErrInvalid)
	}
	return tx.Create(&storage.CouponRedemption{
		CouponID: couponID,
		UserID:   userID,
		OrderID:  orderID,
	}).Error
}
