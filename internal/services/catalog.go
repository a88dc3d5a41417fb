package services

// 商品目录：按市场浏览、搜索与库存查询。实时库存经商家适配器确认。

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/adapters"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// CatalogService 提供商品与商家的读取接口。
type CatalogService struct {
	db       *gorm.DB
	merchant *adapters.MerchantConnector
}

func NewCatalogService(db *gorm.DB, merchant *adapters.MerchantConnector) *CatalogService {
	return &CatalogService{db: db, merchant: merchant}
}

// ProductFilter 控制商品列表筛选。
type ProductFilter struct {
	MarketID   uint64
	MerchantID uint64
	Category   string
	Brand      string
	Query      string
	InStock    bool
	OnSale     bool
	// 价格区间按生效价（促销价优先）过滤，零值表示不限制
	PriceMin decimal.Decimal
	PriceMax decimal.Decimal
}

func (s *CatalogService) productQuery(ctx context.Context, f ProductFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&storage.Product{}).Where("products.is_active = ?", true)
	if f.MarketID != 0 {
		q = q.Joins("JOIN merchants ON merchants.id = products.merchant_id").
			Where("merchants.market_id = ? AND merchants.is_active = ?", f.MarketID, true)
	}
	if f.MerchantID != 0 {
		q = q.Where("products.merchant_id = ?", f.MerchantID)
	}
	if f.Category != "" {
		q = q.Where("products.category = ?", strings.ToLower(f.Category))
	}
	if f.Brand != "" {
		q = q.Where("products.brand = ?", f.Brand)
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where("products.name LIKE ? OR products.description LIKE ? OR products.brand LIKE ?", like, like, like)
	}
	if f.InStock {
		q = q.Where("products.is_in_stock = ?", true)
	}
	if f.OnSale {
		q = q.Where("products.sale_price IS NOT NULL AND products.sale_price > 0")
	}
	const effectivePrice = "COALESCE(NULLIF(products.sale_price, 0), products.original_price)"
	if f.PriceMin.IsPositive() {
		q = q.Where(effectivePrice+" >= ?", f.PriceMin)
	}
	if f.PriceMax.IsPositive() {
		q = q.Where(effectivePrice+" <= ?", f.PriceMax)
	}
	return q
}

// Products 分页返回商品。
func (s *CatalogService) Products(ctx context.Context, f ProductFilter, page, perPage int) ([]storage.Product, int64, error) {
	q := s.productQuery(ctx, f)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []storage.Product
	err := q.Order("products.created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).Find(&out).Error
	return out, total, err
}

// Product 返回单个商品详情。
func (s *CatalogService) Product(ctx context.Context, productID uint64) (*storage.Product, error) {
	var p storage.Product
	if err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", productID, true).First(&p).Error; err != nil {
		return nil, ErrNotFound
	}
	return &p, nil
}

// Stock 查询商品库存；支持实时库存的商家走适配器。
func (s *CatalogService) Stock(ctx context.Context, productID uint64) (*adapters.StockStatus, error) {
	p, err := s.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	var m storage.Merchant
	if err := s.db.WithContext(ctx).Where("id = ?", p.MerchantID).First(&m).Error; err != nil {
		return nil, err
	}
	if !m.SupportsRealTimeInventory {
		return &adapters.StockStatus{SKU: p.SKU, Available: p.IsInStock, Quantity: p.StockQuantity}, nil
	}
	return s.merchant.CheckStock(ctx, m.Code, p.SKU, p.StockQuantity)
}

// Merchants 返回市场下启用的商家。
func (s *CatalogService) Merchants(ctx context.Context, marketID uint64) ([]storage.Merchant, error) {
	var out []storage.Merchant
	err := s.db.WithContext(ctx).
		Where("market_id = ? AND is_active = ?", marketID, true).
		Order("name ASC").Find(&out).Error
	return out, err
}

// DecrementStock 在下单事务内扣减库存；不足时返回 ErrConflict。
func DecrementStock(tx *gorm.DB, productID uint64, qty int) error {
	res := tx.Model(&storage.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, qty).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	// 降到零时同步下架标记
	return tx.Model(&storage.Product{}).
		Where("id = ? AND stock_quantity <= 0", productID).
		UpdateColumn("is_in_stock", false).Error
}

// RestoreStock 在取消订单时回补库存。
func RestoreStock(tx *gorm.DB, productID uint64, qty int) error {
	if err := tx.Model(&storage.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", qty)).Error; err != nil {
		return err
	}
	return tx.Model(&storage.Product{}).
		Where("id = ? AND stock_quantity > 0", productID).
		UpdateColumn("is_in_stock", true).Error
}
