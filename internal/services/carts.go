package services

// 购物车：每个 (user, market) 至多一个 active 购物车；
// 同商品同颜色同尺码重复加购合并数量；金额列在每次变更后重算。

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// CartService 管理购物车及其行项。
type CartService struct{ db *gorm.DB }

func NewCartService(db *gorm.DB) *CartService { return &CartService{db: db} }

// Totals 为一次金额重算的结果，全部保留两位小数。
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping_cost"`
	Tax      decimal.Decimal `json:"tax_amount"`
	Discount decimal.Decimal `json:"discount_amount"`
	Total    decimal.Decimal `json:"total_amount"`
}

// ComputeTotals 计算订单金额：
// 运费在小计达到免邮门槛时为零，否则取基础运费；
// 税额按小计乘市场税率；合计 = 小计 + 运费 + 税 − 折扣。
func ComputeTotals(subtotal decimal.Decimal, m *storage.Market, discount decimal.Decimal) Totals {
	shipping := m.ShippingBaseCost
	if m.FreeShippingThreshold.IsPositive() && subtotal.GreaterThanOrEqual(m.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(m.TaxRate).Round(2)
	total := subtotal.Add(shipping).Add(tax).Sub(discount)
	if total.Sign() < 0 {
		total = decimal.Zero
	}
	return Totals{
		Subtotal: subtotal.Round(2),
		Shipping: shipping.Round(2),
		Tax:      tax,
		Discount: discount.Round(2),
		Total:    total.Round(2),
	}
}

// Active 返回用户在该市场的 active 购物车，缺失时创建。
func (s *CartService) Active(ctx context.Context, userID, marketID uint64) (*storage.Cart, error) {
	var cart storage.Cart
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND market_id = ? AND status = ?", userID, marketID, "active").
		First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	cart = storage.Cart{UserID: userID, MarketID: marketID, Status: "active"}
	if err := s.db.WithContext(ctx).Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// Items 返回购物车行项。
func (s *CartService) Items(ctx context.Context, cartID uint64) ([]storage.CartItem, error) {
	var items []storage.CartItem
	err := s.db.WithContext(ctx).Where("cart_id = ?", cartID).Order("created_at ASC").Find(&items).Error
	return items, err
}

// AddItem 加购商品。单价取加购时的生效价格快照。
func (s *CartService) AddItem(ctx context.Context, userID, marketID, productID uint64, qty int, color, size string) (*storage.Cart, error) {
	if qty < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalid)
	}
	var product storage.Product
	if err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", productID, true).First(&product).Error; err != nil {
		return nil, ErrNotFound
	}
	if !product.IsInStock || product.StockQuantity < qty {
		return nil, fmt.Errorf("%w: insufficient stock for %s", ErrConflict, product.Name)
	}
	cart, err := s.Active(ctx, userID, marketID)
	if err != nil {
		return nil, err
	}
	unit := product.CurrentPrice()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing storage.CartItem
		findErr := tx.Where("cart_id = ? AND product_id = ? AND selected_color = ? AND selected_size = ?",
			cart.ID, productID, color, size).First(&existing).Error
		switch findErr {
		case nil:
			existing.Quantity += qty
			existing.TotalPrice = existing.UnitPrice.Mul(decimal.NewFromInt(int64(existing.Quantity))).Round(2)
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
		case gorm.ErrRecordNotFound:
			item := storage.CartItem{
				CartID:        cart.ID,
				ProductID:     productID,
				Quantity:      qty,
				SelectedColor: color,
				SelectedSize:  size,
				UnitPrice:     unit,
				TotalPrice:    unit.Mul(decimal.NewFromInt(int64(qty))).Round(2),
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		default:
			return findErr
		}
		return s.recalc(tx, cart, decimal.Zero)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateItem 调整行项数量；数量为 0 时删除该行。
func (s *CartService) UpdateItem(ctx context.Context, userID, marketID, itemID uint64, qty int) (*storage.Cart, error) {
	if qty < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", ErrInvalid)
	}
	cart, err := s.Active(ctx, userID, marketID)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item storage.CartItem
		if err := tx.Where("id = ? AND cart_id = ?", itemID, cart.ID).First(&item).Error; err != nil {
			return ErrNotFound
		}
		if qty == 0 {
			if err := tx.Delete(&item).Error; err != nil {
				return err
			}
		} else {
			item.Quantity = qty
			item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(qty))).Round(2)
			if err := tx.Save(&item).Error; err != nil {
				return err
			}
		}
		return s.recalc(tx, cart, decimal.Zero)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem 删除行项。
func (s *CartService) RemoveItem(ctx context.Context, userID, marketID, itemID uint64) (*storage.Cart, error) {
	return s.UpdateItem(ctx, userID, marketID, itemID, 0)
}

// Clear 清空购物车。
func (s *CartService) Clear(ctx context.Context, userID, marketID uint64) (*storage.Cart, error) {
	cart, err := s.Active(ctx, userID, marketID)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&storage.CartItem{}).Error; err != nil {
			return err
		}
		return s.recalc(tx, cart, decimal.Zero)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// ApplyDiscount 以给定折扣额重算购物车金额（结算流程使用）。
func (s *CartService) ApplyDiscount(ctx context.Context, cart *storage.Cart, discount decimal.Decimal) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.recalc(tx, cart, discount)
	})
}

// recalc 在事务内重算购物车金额列。
func (s *CartService) recalc(tx *gorm.DB, cart *storage.Cart, discount decimal.Decimal) error {
	var market storage.Market
	if err := tx.Where("id = ?", cart.MarketID).First(&market).Error; err != nil {
		return err
	}
	var items []storage.CartItem
	if err := tx.Where("cart_id = ?", cart.ID).Find(&items).Error; err != nil {
		return err
	}
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.TotalPrice)
	}
	totals := ComputeTotals(subtotal, &market, discount)
	cart.Subtotal = totals.Subtotal
	cart.ShippingCost = totals.Shipping
	cart.TaxAmount = totals.Tax
	cart.DiscountAmount = totals.Discount
	cart.TotalAmount = totals.Total
	return tx.Model(cart).Updates(map[string]any{
		"subtotal":        totals.Subtotal,
		"shipping_cost":   totals.Shipping,
		"tax_amount":      totals.Tax,
		"discount_amount": totals.Discount,
		"total_amount":    totals.Total,
	}).Error
}

// MarkCartConverted 在下单成功后把购物车置为 converted。
func MarkCartConverted(tx *gorm.DB, cartID uint64) error {
	return tx.Model(&storage.Cart{}).Where("id = ?", cartID).Update("status", "converted").Error
}
