package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func newCheckoutFixture(t *testing.T) (*CheckoutService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	svc := NewCheckoutService(rdb, 2*time.Hour, nil, nil, nil, nil)
	return svc, mr
}

func seedSession(t *testing.T, svc *CheckoutService, sess *CheckoutSession) {
	t.Helper()
	require.NoError(t, svc.save(context.Background(), sess))
}

func TestCheckoutGetEnforcesOwnership(t *testing.T) {
	svc, _ := newCheckoutFixture(t)
	seedSession(t, svc, &CheckoutSession{ID: "s1", UserID: 7, State: StateCartReview})

	got, err := svc.Get(context.Background(), 7, "s1")
	require.NoError(t, err)
	require.Equal(t, StateCartReview, got.State)

	_, err = svc.Get(context.Background(), 8, "s1")
	require.ErrorIs(t, err, ErrNotFound, "他人会话应表现为不存在")
}

func TestCheckoutExpiredSessionIsGone(t *testing.T) {
	svc, mr := newCheckoutFixture(t)
	seedSession(t, svc, &CheckoutSession{ID: "s1", UserID: 7, State: StateCartReview})

	mr.FastForward(3 * time.Hour)
	_, err := svc.Get(context.Background(), 7, "s1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCheckoutStepOrderEnforced(t *testing.T) {
	svc, _ := newCheckoutFixture(t)
	seedSession(t, svc, &CheckoutSession{ID: "s1", UserID: 7, State: StateCartReview})

	// 跳过 cart_review 直接进 shipping 应被拒绝
	_, err := svc.SetShipping(context.Background(), 7, "s1", 1, "standard")
	require.ErrorIs(t, err, ErrState)

	sess, err := svc.ConfirmCart(context.Background(), 7, "s1")
	require.NoError(t, err)
	require.Equal(t, StateShipping, sess.State)

	// cart_review 不能重复确认
	_, err = svc.ConfirmCart(context.Background(), 7, "s1")
	require.ErrorIs(t, err, ErrState)
}

func TestCheckoutAbandon(t *testing.T) {
	svc, _ := newCheckoutFixture(t)
	ctx := context.Background()
	seedSession(t, svc, &CheckoutSession{ID: "s1", UserID: 7, State: StatePayment})

	require.NoError(t, svc.Abandon(ctx, 7, "s1"))
	sess, err := svc.Get(ctx, 7, "s1")
	require.NoError(t, err)
	require.Equal(t, StateAbandoned, sess.State)

	// 不存在的会话放弃也算成功
	require.NoError(t, svc.Abandon(ctx, 7, "missing"))
}

func TestCheckoutDeclineReturnsToPayment(t *testing.T) {
	svc, _ := newCheckoutFixture(t)
	ctx := context.Background()
	seedSession(t, svc, &CheckoutSession{ID: "s1", UserID: 7, State: StateConfirmation, PaymentMethodID: 3})

	sess, err := svc.Get(ctx, 7, "s1")
	require.NoError(t, err)
	require.NoError(t, svc.ReturnToPayment(ctx, sess, "card declined"))

	got, err := svc.Get(ctx, 7, "s1")
	require.NoError(t, err)
	require.Equal(t, StatePayment, got.State)
	require.Equal(t, "card declined", got.PaymentError)
}

func TestCheckoutMarkCompletedKeepsShortWindow(t *testing.T) {
	svc, mr := newCheckoutFixture(t)
	ctx := context.Background()
	sess := &CheckoutSession{ID: "s1", UserID: 7, State: StateConfirmation}
	seedSession(t, svc, sess)

	require.NoError(t, svc.MarkCompleted(ctx, sess, 42))
	got, err := svc.Get(ctx, 7, "s1")
	require.NoError(t, err)
	require.Equal(t, StateCompleted, got.State)
	require.Equal(t, uint64(42), got.OrderID)

	// 完成态不可再放弃
	require.ErrorIs(t, svc.Abandon(ctx, 7, "s1"), ErrState)

	mr.FastForward(20 * time.Minute)
	_, err = svc.Get(ctx, 7, "s1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCheckoutSessionRoundTrip(t *testing.T) {
	sess := CheckoutSession{
		ID: "abc", UserID: 1, MarketID: 2, CartID: 3,
		State: StatePayment, CouponCode: "WELCOME10",
	}
	raw, err := json.Marshal(&sess)
	require.NoError(t, err)
	var back CheckoutSession
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Equal(t, sess.State, back.State)
	require.Equal(t, sess.CouponCode, back.CouponCode)
}
