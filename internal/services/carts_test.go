package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

func dec(t *testing.T, v string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v)
	require.NoError(t, err)
	return d
}

func usMarket(t *testing.T) *storage.Market {
	t.Helper()
	return &storage.Market{
		Code: "US", Currency: "USD",
		TaxRate:               dec(t, "0.08"),
		ShippingBaseCost:      dec(t, "5.99"),
		FreeShippingThreshold: dec(t, "50.00"),
	}
}

func TestComputeTotalsFreeShippingAtThreshold(t *testing.T) {
	totals := ComputeTotals(dec(t, "50.00"), usMarket(t), decimal.Zero)
	require.True(t, totals.Shipping.IsZero(), "达到免邮门槛应免运费")
	require.Equal(t, "4.00", totals.Tax.StringFixed(2))
	require.Equal(t, "54.00", totals.Total.StringFixed(2))
}

func TestComputeTotalsBelowThreshold(t *testing.T) {
	totals := ComputeTotals(dec(t, "49.99"), usMarket(t), decimal.Zero)
	require.Equal(t, "5.99", totals.Shipping.StringFixed(2))
	require.Equal(t, "4.00", totals.Tax.StringFixed(2)) // 49.99*0.08=3.9992 → 4.00
	require.Equal(t, "59.98", totals.Total.StringFixed(2))
}

func TestComputeTotalsWithCouponDiscount(t *testing.T) {
	// WELCOME10：满 50 打九折（10% off），折扣在税后从合计中扣除
	coupon := &storage.Coupon{
		Code:               "WELCOME10",
		DiscountType:       "percentage",
		DiscountValue:      dec(t, "10"),
		MinimumOrderAmount: dec(t, "50.00"),
	}
	subtotal := dec(t, "50.00")
	discount := ComputeDiscount(coupon, subtotal)
	require.Equal(t, "5.00", discount.StringFixed(2))

	totals := ComputeTotals(subtotal, usMarket(t), discount)
	require.Equal(t, "49.00", totals.Total.StringFixed(2))
}

func TestComputeTotalsNeverNegative(t *testing.T) {
	totals := ComputeTotals(dec(t, "10.00"), usMarket(t), dec(t, "100.00"))
	require.True(t, totals.Total.IsZero())
}

func TestComputeDiscountPercentageCap(t *testing.T) {
	coupon := &storage.Coupon{
		DiscountType:          "percentage",
		DiscountValue:         dec(t, "50"),
		MaximumDiscountAmount: decimal.NewNullDecimal(dec(t, "20.00")),
	}
	discount := ComputeDiscount(coupon, dec(t, "200.00"))
	require.Equal(t, "20.00", discount.StringFixed(2), "折扣应被最高减免封顶")
}

func TestComputeDiscountFixedAmountCappedToSubtotal(t *testing.T) {
	coupon := &storage.Coupon{
		DiscountType:  "fixed_amount",
		DiscountValue: dec(t, "30.00"),
	}
	require.Equal(t, "30.00", ComputeDiscount(coupon, dec(t, "80.00")).StringFixed(2))
	require.Equal(t, "15.00", ComputeDiscount(coupon, dec(t, "15.00")).StringFixed(2))
}

func TestComputeDiscountUnknownTypeYieldsZero(t *testing.T) {
	coupon := &storage.Coupon{DiscountType: "mystery", DiscountValue: dec(t, "10")}
	require.True(t, ComputeDiscount(coupon, dec(t, "100.00")).IsZero())
}

func TestRecomputeWithShippingAppliesDiscountAfterTax(t *testing.T) {
	base := Totals{Subtotal: dec(t, "50.00")}
	out := recomputeWithShipping(base, usMarket(t), decimal.Zero, dec(t, "5.00"))
	require.Equal(t, "4.00", out.Tax.StringFixed(2))
	require.Equal(t, "49.00", out.Total.StringFixed(2))

	// 运费不为零时并入合计
	out = recomputeWithShipping(base, usMarket(t), dec(t, "5.99"), decimal.Zero)
	require.Equal(t, "59.99", out.Total.StringFixed(2))
}

func TestOrderTransitions(t *testing.T) {
	require.True(t, transitionAllowed("pending", "confirmed"))
	require.True(t, transitionAllowed("confirmed", "cancelled"))
	require.True(t, transitionAllowed("shipped", "delivered"))
	require.False(t, transitionAllowed("shipped", "cancelled"), "已发货不可取消")
	require.False(t, transitionAllowed("delivered", "processing"))
	require.False(t, transitionAllowed("cancelled", "confirmed"))
}

func TestCouponMarketApplicability(t *testing.T) {
	// 空白名单对所有市场生效
	c := &storage.Coupon{}
	require.True(t, marketApplicable(c, 1))
	c.ApplicableMarkets = []byte(`[2,3]`)
	require.False(t, marketApplicable(c, 1))
	require.True(t, marketApplicable(c, 3))
}
