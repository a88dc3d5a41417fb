package services

// 结算状态机，会话存 Redis 并以键 TTL 实现自动过期：
// cart_review → shipping → payment → confirmation → completed，
// 任一步可 abandoned；过期会话读取即 404。步骤乱序返回 ErrState。

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// 结算步骤状态。
const (
	StateCartReview   = "cart_review"
	StateShipping     = "shipping"
	StatePayment      = "payment"
	StateConfirmation = "confirmation"
	StateCompleted    = "completed"
	StateAbandoned    = "abandoned"
)

// CheckoutSession 为存于 Redis 的结算会话快照。
type CheckoutSession struct {
	ID       string `json:"id"`
	UserID   uint64 `json:"user_id"`
	MarketID uint64 `json:"market_id"`
	CartID   uint64 `json:"cart_id"`
	State    string `json:"state"`

	AddressID          uint64 `json:"address_id,omitempty"`
	ShippingMethodCode string `json:"shipping_method_code,omitempty"`
	PaymentMethodID    uint64 `json:"payment_method_id,omitempty"`
	CouponCode         string `json:"coupon_code,omitempty"`
	CouponID           uint64 `json:"coupon_id,omitempty"`
	PaymentError       string `json:"payment_error,omitempty"`

	Totals  Totals `json:"totals"`
	OrderID uint64 `json:"order_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CheckoutService 驱动结算状态机。
type CheckoutService struct {
	rdb       *redis.Client
	ttl       time.Duration
	carts     *CartService
	coupons   *CouponService
	markets   *MarketService
	addresses *AddressService
}

func NewCheckoutService(rdb *redis.Client, ttl time.Duration, carts *CartService, coupons *CouponService, markets *MarketService, addresses *AddressService) *CheckoutService {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &CheckoutService{rdb: rdb, ttl: ttl, carts: carts, coupons: coupons, markets: markets, addresses: addresses}
}

func checkoutKey(id string) string { return "checkout:" + id }

// Start 从非空购物车开启结算会话。
func (s *CheckoutService) Start(ctx context.Context, userID, marketID uint64) (*CheckoutSession, error) {
	cart, err := s.carts.Active(ctx, userID, marketID)
	if err != nil {
		return nil, err
	}
	items, err := s.carts.Items(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrInvalid)
	}
	now := time.Now()
	sess := &CheckoutSession{
		ID:       uuid.NewString(),
		UserID:   userID,
		MarketID: marketID,
		CartID:   cart.ID,
		State:    StateCartReview,
		Totals: Totals{
			Subtotal: cart.Subtotal,
			Shipping: cart.ShippingCost,
			Tax:      cart.TaxAmount,
			Discount: cart.DiscountAmount,
			Total:    cart.TotalAmount,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get 读取会话并校验归属；键不存在视为已过期。
func (s *CheckoutService) Get(ctx context.Context, userID uint64, id string) (*CheckoutSession, error) {
	raw, err := s.rdb.Get(ctx, checkoutKey(id)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: checkout session expired or not found", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var sess CheckoutSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, fmt.Errorf("%w: checkout session expired or not found", ErrNotFound)
	}
	return &sess, nil
}

func (s *CheckoutService) save(ctx context.Context, sess *CheckoutSession) error {
	sess.UpdatedAt = time.Now()
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	// TTL 每次写入重置，停留在任一步超时都会过期
	return s.rdb.Set(ctx, checkoutKey(sess.ID), raw, s.ttl).Err()
}

func requireState(sess *CheckoutSession, want string) error {
	if sess.State != want {
		return fmt.Errorf("%w: expected step %s, session is in %s", ErrState, want, sess.State)
	}
	return nil
}

// ConfirmCart 确认购物车内容，cart_review → shipping。
func (s *CheckoutService) ConfirmCart(ctx context.Context, userID uint64, id string) (*CheckoutSession, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := requireState(sess, StateCartReview); err != nil {
		return nil, err
	}
	sess.State = StateShipping
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// SetShipping 选择地址与配送方式，shipping → payment。
// 运费取配送方式基础价；达到免邮门槛（方式级优先，缺省市场级）则免邮。
func (s *CheckoutService) SetShipping(ctx context.Context, userID uint64, id string, addressID uint64, methodCode string) (*CheckoutSession, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := requireState(sess, StateShipping); err != nil {
		return nil, err
	}
	if _, err := s.addresses.Get(ctx, userID, addressID); err != nil {
		return nil, fmt.Errorf("%w: shipping address not found", ErrInvalid)
	}
	method, err := s.markets.ShippingMethodByCode(ctx, sess.MarketID, methodCode)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown shipping method %q", ErrInvalid, methodCode)
	}
	market, err := s.markets.ByID(ctx, sess.MarketID)
	if err != nil {
		return nil, err
	}

	shipping := method.BaseCost
	threshold := market.FreeShippingThreshold
	if method.FreeShippingThreshold.Valid {
		threshold = method.FreeShippingThreshold.Decimal
	}
	if threshold.IsPositive() && sess.Totals.Subtotal.GreaterThanOrEqual(threshold) {
		shipping = decimal.Zero
	}

	sess.AddressID = addressID
	sess.ShippingMethodCode = method.Code
	sess.Totals = recomputeWithShipping(sess.Totals, market, shipping, sess.Totals.Discount)
	sess.State = StatePayment
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// SetPayment 选择支付方式并可选应用优惠券，payment → confirmation。
func (s *CheckoutService) SetPayment(ctx context.Context, userID uint64, id string, paymentMethodID uint64, couponCode string) (*CheckoutSession, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := requireState(sess, StatePayment); err != nil {
		return nil, err
	}
	market, err := s.markets.ByID(ctx, sess.MarketID)
	if err != nil {
		return nil, err
	}

	discount := decimal.Zero
	sess.CouponCode = ""
	sess.CouponID = 0
	if couponCode != "" {
		coupon, d, err := s.coupons.Validate(ctx, couponCode, userID, sess.MarketID, sess.Totals.Subtotal)
		if err != nil {
			return nil, err
		}
		discount = d
		sess.CouponCode = coupon.Code
		sess.CouponID = coupon.ID
	}

	sess.PaymentMethodID = paymentMethodID
	sess.PaymentError = ""
	sess.Totals = recomputeWithShipping(sess.Totals, market, sess.Totals.Shipping, discount)
	sess.State = StateConfirmation
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// recomputeWithShipping 以既有小计、指定运费与折扣重算金额。
func recomputeWithShipping(t Totals, m *storage.Market, shipping, discount decimal.Decimal) Totals {
	tax := t.Subtotal.Mul(m.TaxRate).Round(2)
	total := t.Subtotal.Add(shipping).Add(tax).Sub(discount)
	if total.Sign() < 0 {
		total = decimal.Zero
	}
	return Totals{
		Subtotal: t.Subtotal,
		Shipping: shipping.Round(2),
		Tax:      tax,
		Discount: discount.Round(2),
		Total:    total.Round(2),
	}
}

// RequireConfirmed 返回处于 confirmation 步的会话，供下单使用。
func (s *CheckoutService) RequireConfirmed(ctx context.Context, userID uint64, id string) (*CheckoutSession, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := requireState(sess, StateConfirmation); err != nil {
		return nil, err
	}
	return sess, nil
}

// ReturnToPayment 在扣款被拒后把会话退回 payment 步，保留拒付原因供前端展示。
func (s *CheckoutService) ReturnToPayment(ctx context.Context, sess *CheckoutSession, reason string) error {
	sess.State = StatePayment
	sess.PaymentError = reason
	return s.save(ctx, sess)
}

// MarkCompleted 在订单落库后收尾：记录订单号并保留短期可查。
func (s *CheckoutService) MarkCompleted(ctx context.Context, sess *CheckoutSession, orderID uint64) error {
	sess.State = StateCompleted
	sess.OrderID = orderID
	sess.UpdatedAt = time.Now()
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	// 完成态保留 15 分钟便于客户端轮询，随后自然过期
	return s.rdb.Set(ctx, checkoutKey(sess.ID), raw, 15*time.Minute).Err()
}

// Abandon 主动放弃结算。幂等：过期或不存在也返回成功。
func (s *CheckoutService) Abandon(ctx context.Context, userID uint64, id string) error {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil
	}
	if sess.State == StateCompleted {
		return fmt.Errorf("%w: completed checkout cannot be abandoned", ErrState)
	}
	sess.State = StateAbandoned
	raw, merr := json.Marshal(sess)
	if merr != nil {
		return merr
	}
	return s.rdb.Set(ctx, checkoutKey(id), raw, 15*time.Minute).Err()
}
