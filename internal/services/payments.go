package services

// 支付：支付方式管理与扣款。扣款以 reference 为幂等键，
// Redis SetNX 抢占 + 交易表唯一索引双保险，重试不会二次扣款。

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/adapters"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// PaymentService 管理支付方式与交易。
type PaymentService struct {
	db      *gorm.DB
	rdb     *redis.Client
	gateway *adapters.PaymentGateway
}

func NewPaymentService(db *gorm.DB, rdb *redis.Client, gateway *adapters.PaymentGateway) *PaymentService {
	return &PaymentService{db: db, rdb: rdb, gateway: gateway}
}

// PaymentMethodInput 为绑定支付方式的请求字段。只接受网关令牌，
// 不经手卡号明文。
type PaymentMethodInput struct {
	MethodType  string
	Token       string
	Label       string
	LastFour    string
	ExpiryMonth int
	ExpiryYear  int
	IsDefault   bool
}

// AddMethod 绑定支付方式。
func (s *PaymentService) AddMethod(ctx context.Context, userID uint64, in PaymentMethodInput) (*storage.PaymentMethod, error) {
	if in.Token == "" {
		return nil, fmt.Errorf("%w: gateway token is required", ErrInvalid)
	}
	switch in.MethodType {
	case "card", "upi", "wallet":
	default:
		return nil, fmt.Errorf("%w: method_type must be card, upi or wallet", ErrInvalid)
	}
	m := &storage.PaymentMethod{
		UserID:      userID,
		MethodType:  in.MethodType,
		Token:       in.Token,
		Label:       in.Label,
		LastFour:    in.LastFour,
		ExpiryMonth: in.ExpiryMonth,
		ExpiryYear:  in.ExpiryYear,
		IsDefault:   in.IsDefault,
		IsActive:    true,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.IsDefault {
			if err := tx.Model(&storage.PaymentMethod{}).
				Where("user_id = ?", userID).Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(m).Error
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Methods 返回用户启用的支付方式。
func (s *PaymentService) Methods(ctx context.Context, userID uint64) ([]storage.PaymentMethod, error) {
	var out []storage.PaymentMethod
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("is_default DESC, created_at DESC").Find(&out).Error
	return out, err
}

// Method 返回本人名下的支付方式。
func (s *PaymentService) Method(ctx context.Context, userID, methodID uint64) (*storage.PaymentMethod, error) {
	var m storage.PaymentMethod
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND is_active = ?", methodID, userID, true).First(&m).Error; err != nil {
		return nil, ErrNotFound
	}
	return &m, nil
}

// RemoveMethod 解绑支付方式（软删除）。
func (s *PaymentService) RemoveMethod(ctx context.Context, userID, methodID uint64) error {
	res := s.db.WithContext(ctx).Model(&storage.PaymentMethod{}).
		Where("id = ? AND user_id = ? AND is_active = ?", methodID, userID, true).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// NewReference 生成扣款幂等键；客户端重试时必须复用同一键。
func NewReference() string { return "pay_" + uuid.NewString() }

// ChargeCheckout 在下单前按结算会话金额扣款。订单尚不存在，
// 交易先以 reference 落库，授权成功后由 BindOrder 挂接订单。
// 同一 reference 的重复调用返回首次交易结果。
func (s *PaymentService) ChargeCheckout(ctx context.Context, userID, methodID uint64, amount decimal.Decimal, currency, reference string) (*storage.PaymentTransaction, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: payment reference is required", ErrInvalid)
	}
	method, err := s.Method(ctx, userID, methodID)
	if err != nil {
		return nil, err
	}

	acquired, err := s.rdb.SetNX(ctx, "payment:ref:"+reference, "1", 24*time.Hour).Result()
	if err != nil {
		return nil, err
	}
	if !acquired {
		var existing storage.PaymentTransaction
		if err := s.db.WithContext(ctx).Where("reference = ?", reference).First(&existing).Error; err != nil {
			return nil, fmt.Errorf("%w: payment with this reference is still in progress", ErrConflict)
		}
		return &existing, nil
	}

	result, err := s.gateway.Charge(ctx, adapters.ChargeRequest{
		Reference:   reference,
		Amount:      amount,
		Currency:    currency,
		MethodToken: method.Token,
	})
	if err != nil {
		return nil, err
	}
	txn := &storage.PaymentTransaction{
		UserID:        userID,
		Amount:        amount,
		Currency:      currency,
		Status:        result.Status,
		Reference:     reference,
		FailureReason: result.Reason,
	}
	if err := s.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, err
	}
	if result.Status == adapters.PaymentError {
		// 故障不占用幂等键，放开重试
		_ = s.rdb.Del(ctx, "payment:ref:"+reference).Err()
	}
	return txn, nil
}

// BindOrder 在订单落库后把预扣交易挂到订单并同步支付状态。
func (s *PaymentService) BindOrder(ctx context.Context, userID uint64, txn *storage.PaymentTransaction, order *storage.Order, methodID uint64) error {
	method, err := s.Method(ctx, userID, methodID)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(txn).Update("order_id", order.ID).Error; err != nil {
			return err
		}
		return tx.Model(order).Updates(map[string]any{
			"payment_status":    "paid",
			"status":            "confirmed",
			"payment_method":    method.MethodType,
			"payment_reference": txn.Reference,
		}).Error
	})
	if err != nil {
		return err
	}
	txn.OrderID = &order.ID
	order.PaymentStatus = "paid"
	order.Status = "confirmed"
	return nil
}

// ChargeOrder 对订单扣款。同一 reference 的重复调用返回首次交易结果。
func (s *PaymentService) ChargeOrder(ctx context.Context, userID, orderID, methodID uint64, reference string) (*storage.PaymentTransaction, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: payment reference is required", ErrInvalid)
	}
	var order storage.Order
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error; err != nil {
		return nil, ErrNotFound
	}
	if order.PaymentStatus == "paid" {
		return nil, fmt.Errorf("%w: order is already paid", ErrState)
	}
	method, err := s.Method(ctx, userID, methodID)
	if err != nil {
		return nil, err
	}
	var market storage.Market
	if err := s.db.WithContext(ctx).Where("id = ?", order.MarketID).First(&market).Error; err != nil {
		return nil, err
	}

	// 幂等抢占：占不到锁说明同 reference 已处理或正在处理
	acquired, err := s.rdb.SetNX(ctx, "payment:ref:"+reference, "1", 24*time.Hour).Result()
	if err != nil {
		return nil, err
	}
	if !acquired {
		var existing storage.PaymentTransaction
		if err := s.db.WithContext(ctx).Where("reference = ?", reference).First(&existing).Error; err != nil {
			return nil, fmt.Errorf("%w: payment with this reference is still in progress", ErrConflict)
		}
		return &existing, nil
	}

	result, err := s.gateway.Charge(ctx, adapters.ChargeRequest{
		Reference:   reference,
		Amount:      order.TotalAmount,
		Currency:    market.Currency,
		MethodToken: method.Token,
	})
	if err != nil {
		return nil, err
	}

	txn := &storage.PaymentTransaction{
		OrderID:       &order.ID,
		UserID:        userID,
		Amount:        order.TotalAmount,
		Currency:      market.Currency,
		Status:        result.Status,
		Reference:     reference,
		FailureReason: result.Reason,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		switch result.Status {
		case adapters.PaymentAuthorized:
			return tx.Model(&order).Updates(map[string]any{
				"payment_status":    "paid",
				"status":            "confirmed",
				"payment_method":    method.MethodType,
				"payment_reference": reference,
			}).Error
		case adapters.PaymentDeclined:
			return tx.Model(&order).Update("payment_status", "failed").Error
		default:
			return nil // 网关故障保持 pending，允许换 reference 重试
		}
	})
	if err != nil {
		return nil, err
	}
	if result.Status == adapters.PaymentError {
		// 故障不占用幂等键，放开重试
		_ = s.rdb.Del(ctx, "payment:ref:"+reference).Err()
	}
	return txn, nil
}

// Transactions 返回本人交易记录。
func (s *PaymentService) Transactions(ctx context.Context, userID uint64, page, perPage int) ([]storage.PaymentTransaction, int64, error) {
	q := s.db.WithContext(ctx).Model(&storage.PaymentTransaction{}).Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []storage.PaymentTransaction
	err := q.Order("created_at DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&out).Error
	return out, total, err
}

// Gateways 返回启用的支付网关清单。
func (s *PaymentService) Gateways(ctx context.Context) ([]storage.PaymentGateway, error) {
	var out []storage.PaymentGateway
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&out).Error
	return out, err
}

// EnsureGateways 种入默认网关记录。
func (s *PaymentService) EnsureGateways(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&storage.PaymentGateway{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	gws := []storage.PaymentGateway{
		{
			Name: "Stripe", Code: "stripe",
			SupportedMethods:    []byte(`["card","wallet"]`),
			SupportedCurrencies: []byte(`["USD","EUR","GBP"]`),
			IsActive:            true,
		},
		{
			Name: "Razorpay", Code: "razorpay",
			SupportedMethods:    []byte(`["card","upi","wallet"]`),
			SupportedCurrencies: []byte(`["INR"]`),
			IsActive:            true,
		},
	}
	for i := range gws {
		if err := s.db.WithContext(ctx).Create(&gws[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Refund 对已授权交易发起退款（下单失败的冲正或订单取消的支付侧收尾）。
func (s *PaymentService) Refund(ctx context.Context, userID uint64, transactionID uint64) (*storage.PaymentTransaction, error) {
	var txn storage.PaymentTransaction
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", transactionID, userID).First(&txn).Error; err != nil {
		return nil, ErrNotFound
	}
	if err := s.refund(ctx, &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// RefundOrderPayment 冲正订单名下的授权交易。
// 找不到授权交易视为无事可做（订单从未真正扣到款）。
func (s *PaymentService) RefundOrderPayment(ctx context.Context, userID, orderID uint64) error {
	var txn storage.PaymentTransaction
	err := s.db.WithContext(ctx).
		Where("order_id = ? AND user_id = ? AND status = ?", orderID, userID, adapters.PaymentAuthorized).
		Order("created_at DESC").First(&txn).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	return s.refund(ctx, &txn)
}

func (s *PaymentService) refund(ctx context.Context, txn *storage.PaymentTransaction) error {
	if txn.Status != adapters.PaymentAuthorized {
		return fmt.Errorf("%w: only authorized transactions can be refunded", ErrState)
	}
	result, err := s.gateway.Refund(ctx, txn.Reference, txn.Amount)
	if err != nil {
		return err
	}
	if result.Status != adapters.PaymentAuthorized {
		return fmt.Errorf("%w: refund rejected by gateway", ErrConflict)
	}
	if err := s.db.WithContext(ctx).Model(txn).Update("status", "refunded").Error; err != nil {
		return err
	}
	txn.Status = "refunded"
	return nil
}
