package adapters

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestGatewaySimulatedOutcomes(t *testing.T) {
	g := NewPaymentGateway("", 0, 0, 0)
	ctx := context.Background()

	res, err := g.Charge(ctx, ChargeRequest{
		Reference: "ref-1", Amount: decimal.NewFromInt(54), Currency: "USD", MethodToken: "tok_4242",
	})
	require.NoError(t, err)
	require.Equal(t, PaymentAuthorized, res.Status)
	require.NotEmpty(t, res.TransactionID)

	res, err = g.Charge(ctx, ChargeRequest{
		Reference: "ref-2", Amount: decimal.NewFromInt(54), Currency: "USD", MethodToken: "tok_0000",
	})
	require.NoError(t, err)
	require.Equal(t, PaymentDeclined, res.Status)

	res, err = g.Charge(ctx, ChargeRequest{
		Reference: "ref-3", Amount: decimal.NewFromInt(54), Currency: "USD", MethodToken: "tok_9999",
	})
	require.NoError(t, err)
	require.Equal(t, PaymentError, res.Status)

	res, err = g.Charge(ctx, ChargeRequest{
		Reference: "ref-4", Amount: decimal.Zero, Currency: "USD", MethodToken: "tok_4242",
	})
	require.NoError(t, err)
	require.Equal(t, PaymentDeclined, res.Status)
}

func TestFraudCheckerLevels(t *testing.T) {
	f := NewFraudChecker()
	ctx := context.Background()

	low := f.Assess(ctx, FraudInput{Amount: decimal.NewFromInt(50), LifetimeOrders: 3})
	require.Equal(t, "low", low.Level)
	require.False(t, low.Blocked)

	med := f.Assess(ctx, FraudInput{
		Amount: decimal.NewFromInt(1200), LifetimeOrders: 0,
	})
	require.Equal(t, "medium", med.Level)
	require.Contains(t, med.Reasons, "high_order_amount")
	require.Contains(t, med.Reasons, "first_order_high_amount")

	high := f.Assess(ctx, FraudInput{
		Amount: decimal.NewFromInt(1200), LifetimeOrders: 0,
		OrdersToday: 6, ShippingCountry: "IN", MarketCountry: "US",
	})
	require.Equal(t, "high", high.Level)
	require.True(t, high.Blocked)
	require.InDelta(t, 1.0, high.Score, 1e-9)
}

func TestRatesProviderBuiltInTable(t *testing.T) {
	p := NewRatesProvider("", 0)
	ctx := context.Background()

	same, err := p.Rate(ctx, "USD", "USD")
	require.NoError(t, err)
	require.True(t, same.Equal(decimal.NewFromInt(1)))

	inr, err := p.Rate(ctx, "USD", "INR")
	require.NoError(t, err)
	require.True(t, inr.GreaterThan(decimal.NewFromInt(80)))

	_, err = p.Rate(ctx, "USD", "XYZ")
	require.Error(t, err)
}

func TestGatewayRefundSimulated(t *testing.T) {
	g := NewPaymentGateway("", 0, 0, 0)
	res, err := g.Refund(context.Background(), "txn_abc", decimal.NewFromInt(54))
	require.NoError(t, err)
	require.Equal(t, PaymentAuthorized, res.Status)
	require.Equal(t, "txn_abc", res.TransactionID)
}
