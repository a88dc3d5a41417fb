package services

// 订单：从已确认的结算会话一次事务落库（行项快照、扣库存、
// 核销券、转换购物车、欺诈留痕），以及后续的履约状态流转。

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/adapters"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/metrics"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// 订单履约状态的合法迁移。
var orderTransitions = map[string][]string{
	"pending":    {"confirmed", "cancelled"},
	"confirmed":  {"processing", "cancelled"},
	"processing": {"shipped"},
	"shipped":    {"delivered", "returned"},
	"delivered":  {"returned"},
}

// OrderService 管理订单生命周期。
type OrderService struct {
	db       *gorm.DB
	node     *snowflake.Node
	fraud    *adapters.FraudChecker
	coupons  *CouponService
	payments *PaymentService
}

func NewOrderService(db *gorm.DB, node *snowflake.Node, fraud *adapters.FraudChecker, coupons *CouponService, payments *PaymentService) *OrderService {
	return &OrderService{db: db, node: node, fraud: fraud, coupons: coupons, payments: payments}
}

// PlaceFromCheckout 基于 confirmation 步的会话创建订单。
// 高风险订单被拦截并留痕，返回 ErrForbidden。
func (s *OrderService) PlaceFromCheckout(ctx context.Context, sess *CheckoutSession) (*storage.Order, error) {
	var addr storage.ShippingAddress
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", sess.AddressID, sess.UserID).First(&addr).Error; err != nil {
		return nil, fmt.Errorf("%w: shipping address no longer exists", ErrInvalid)
	}
	var market storage.Market
	if err := s.db.WithContext(ctx).Where("id = ?", sess.MarketID).First(&market).Error; err != nil {
		return nil, ErrNotFound
	}

	assessment, err := s.assessRisk(ctx, sess, &addr, &market)
	if err != nil {
		return nil, err
	}

	addrJSON, err := json.Marshal(&addr)
	if err != nil {
		return nil, err
	}
	order := &storage.Order{
		OrderNumber:     "TV-" + s.node.Generate().String(),
		UserID:          sess.UserID,
		MarketID:        sess.MarketID,
		Subtotal:        sess.Totals.Subtotal,
		TaxAmount:       sess.Totals.Tax,
		ShippingCost:    sess.Totals.Shipping,
		DiscountAmount:  sess.Totals.Discount,
		TotalAmount:     sess.Totals.Total,
		Status:          "pending",
		PaymentStatus:   "pending",
		ShippingAddress: addrJSON,
		ShippingMethod:  sess.ShippingMethodCode,
		CouponCode:      sess.CouponCode,
		OrderDate:       time.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart storage.Cart
		if err := tx.Where("id = ? AND status = ?", sess.CartID, "active").First(&cart).Error; err != nil {
			return fmt.Errorf("%w: cart already converted or missing", ErrState)
		}
		var items []storage.CartItem
		if err := tx.Where("cart_id = ?", cart.ID).Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("%w: cart is empty", ErrInvalid)
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for _, item := range items {
			var product storage.Product
			if err := tx.Where("id = ?", item.ProductID).First(&product).Error; err != nil {
				return err
			}
			if err := DecrementStock(tx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("%w: %s is out of stock", ErrConflict, product.Name)
			}
			if err := tx.Create(&storage.OrderItem{
				OrderID:         order.ID,
				ProductID:       item.ProductID,
				ProductName:     product.Name,
				Quantity:        item.Quantity,
				SelectedColor:   item.SelectedColor,
				SelectedSize:    item.SelectedSize,
				UnitPrice:       item.UnitPrice,
				TotalPrice:      item.TotalPrice,
				DiscountApplied: item.DiscountApplied,
				Status:          "pending",
			}).Error; err != nil {
				return err
			}
		}
		if sess.CouponID != 0 {
			if err := s.coupons.Redeem(tx, sess.CouponID, sess.UserID, &order.ID); err != nil {
				return err
			}
		}
		if err := TouchAddressUsage(tx, addr.ID); err != nil {
			return err
		}
		if err := MarkCartConverted(tx, cart.ID); err != nil {
			return err
		}
		if assessment != nil {
			signals, _ := json.Marshal(assessment.Reasons)
			decision := "approve"
			if assessment.Level == "medium" {
				decision = "review"
			}
			if err := tx.Create(&storage.FraudRecord{
				UserID:    sess.UserID,
				OrderID:   &order.ID,
				RiskScore: assessment.Score,
				Decision:  decision,
				Signals:   signals,
			}).Error; err != nil {
				return err
			}
		}
		return tx.Create(&storage.Notification{
			UserID:             sess.UserID,
			Type:               "order_update",
			Title:              "Order placed",
			Message:            "Order " + order.OrderNumber + " has been placed",
			RelatedContentID:   &order.ID,
			RelatedContentType: "order",
		}).Error
	})
	if err != nil {
		return nil, err
	}
	metrics.OrdersCreated.Inc()
	return order, nil
}

// assessRisk 评估欺诈风险；blocked 时落拦截记录并拒单。
func (s *OrderService) assessRisk(ctx context.Context, sess *CheckoutSession, addr *storage.ShippingAddress, market *storage.Market) (*adapters.FraudAssessment, error) {
	var lifetime, today int64
	if err := s.db.WithContext(ctx).Model(&storage.Order{}).
		Where("user_id = ?", sess.UserID).Count(&lifetime).Error; err != nil {
		return nil, err
	}
	dayStart := time.Now().Truncate(24 * time.Hour)
	if err := s.db.WithContext(ctx).Model(&storage.Order{}).
		Where("user_id = ? AND created_at > ?", sess.UserID, dayStart).Count(&today).Error; err != nil {
		return nil, err
	}
	assessment := s.fraud.Assess(ctx, adapters.FraudInput{
		Amount:          sess.Totals.Total,
		Currency:        market.Currency,
		OrdersToday:     today,
		LifetimeOrders:  lifetime,
		ShippingCountry: strings.ToLower(addr.Country),
		MarketCountry:   strings.ToLower(market.Name),
	})
	if assessment.Blocked {
		signals, _ := json.Marshal(assessment.Reasons)
		_ = s.db.WithContext(ctx).Create(&storage.FraudRecord{
			UserID:    sess.UserID,
			RiskScore: assessment.Score,
			Decision:  "decline",
			Signals:   signals,
		}).Error
		return nil, fmt.Errorf("%w: order flagged by fraud screening", ErrForbidden)
	}
	return assessment, nil
}

// Get 返回本人订单及行项。
func (s *OrderService) Get(ctx context.Context, userID, orderID uint64) (*storage.Order, []storage.OrderItem, error) {
	var order storage.Order
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error; err != nil {
		return nil, nil, ErrNotFound
	}
	var items []storage.OrderItem
	if err := s.db.WithContext(ctx).Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return nil, nil, err
	}
	return &order, items, nil
}

// List 分页返回本人订单，可按状态过滤。
func (s *OrderService) List(ctx context.Context, userID uint64, status string, page, perPage int) ([]storage.Order, int64, error) {
	q := s.db.WithContext(ctx).Model(&storage.Order{}).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []storage.Order
	err := q.Order("created_at DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&out).Error
	return out, total, err
}

// UpdateStatus 按合法迁移推进履约状态；shipped 时要求运单号。
func (s *OrderService) UpdateStatus(ctx context.Context, userID, orderID uint64, next, trackingNumber string) (*storage.Order, error) {
	var order storage.Order
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error; err != nil {
		return nil, ErrNotFound
	}
	if !transitionAllowed(order.Status, next) {
		return nil, fmt.Errorf("%w: cannot move order from %s to %s", ErrState, order.Status, next)
	}
	updates := map[string]any{"status": next}
	now := time.Now()
	switch next {
	case "shipped":
		if trackingNumber == "" {
			return nil, fmt.Errorf("%w: tracking_number is required to mark shipped", ErrInvalid)
		}
		updates["shipped_date"] = &now
		updates["tracking_number"] = trackingNumber
	case "delivered":
		updates["delivered_date"] = &now
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Create(&storage.Notification{
			UserID:             userID,
			Type:               "order_update",
			Title:              "Order " + next,
			Message:            "Order " + order.OrderNumber + " is now " + next,
			RelatedContentID:   &order.ID,
			RelatedContentType: "order",
		}).Error
	})
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Where("id = ?", order.ID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func transitionAllowed(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Cancel 取消尚未发货的订单并回补库存。已支付订单先在网关冲正授权交易，
// 冲正失败则整个取消失败，不留下“已取消却已扣款”的订单。
func (s *OrderService) Cancel(ctx context.Context, userID, orderID uint64) (*storage.Order, error) {
	var order storage.Order
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error; err != nil {
		return nil, ErrNotFound
	}
	if !transitionAllowed(order.Status, "cancelled") {
		return nil, fmt.Errorf("%w: order in %s state cannot be cancelled", ErrState, order.Status)
	}
	if order.PaymentStatus == "paid" {
		if err := s.payments.RefundOrderPayment(ctx, userID, order.ID); err != nil {
			return nil, fmt.Errorf("refund payment for order %s: %w", order.OrderNumber, err)
		}
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []storage.OrderItem
		if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
			return err
		}
		for _, item := range items {
			if err := RestoreStock(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		updates := map[string]any{"status": "cancelled"}
		if order.PaymentStatus == "paid" {
			updates["payment_status"] = "refunded"
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Create(&storage.Notification{
			UserID:             userID,
			Type:               "order_update",
			Title:              "Order cancelled",
			Message:            "Order " + order.OrderNumber + " has been cancelled",
			RelatedContentID:   &order.ID,
			RelatedContentType: "order",
		}).Error
	})
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Where("id = ?", order.ID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}
