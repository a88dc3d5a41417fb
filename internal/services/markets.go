package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// MarketService 管理市场（国家站点）与配送方式。
type MarketService struct{ db *gorm.DB }

func NewMarketService(db *gorm.DB) *MarketService { return &MarketService{db: db} }

// List 返回全部启用的市场。
func (s *MarketService) List(ctx context.Context) ([]storage.Market, error) {
	var out []storage.Market
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("code ASC").Find(&out).Error
	return out, err
}

// ByCode 按市场代码查找。
func (s *MarketService) ByCode(ctx context.Context, code string) (*storage.Market, error) {
	var m storage.Market
	err := s.db.WithContext(ctx).
		Where("code = ? AND is_active = ?", strings.ToUpper(code), true).First(&m).Error
	if err != nil {
		return nil, ErrNotFound
	}
	return &m, nil
}

// ByID 按主键查找启用的市场。
func (s *MarketService) ByID(ctx context.Context, id uint64) (*storage.Market, error) {
	var m storage.Market
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&m).Error; err != nil {
		return nil, ErrNotFound
	}
	return &m, nil
}

// ShippingMethods 返回市场下启用的配送方式。
func (s *MarketService) ShippingMethods(ctx context.Context, marketID uint64) ([]storage.ShippingMethod, error) {
	var out []storage.ShippingMethod
	err := s.db.WithContext(ctx).
		Where("market_id = ? AND is_active = ?", marketID, true).
		Order("base_cost ASC").Find(&out).Error
	return out, err
}

// ShippingMethodByCode 返回市场下指定代码的配送方式。
func (s *MarketService) ShippingMethodByCode(ctx context.Context, marketID uint64, code string) (*storage.ShippingMethod, error) {
	var m storage.ShippingMethod
	err := s.db.WithContext(ctx).
		Where("market_id = ? AND code = ? AND is_active = ?", marketID, code, true).First(&m).Error
	if err != nil {
		return nil, ErrNotFound
	}
	return &m, nil
}

// EnsureDefaults 为空库种入默认市场与配送方式，便于本地联调。
func (s *MarketService) EnsureDefaults(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&storage.Market{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	dec := func(v string) decimal.Decimal {
		d, _ := decimal.NewFromString(v)
		return d
	}
	markets := []storage.Market{
		{
			Code: "US", Name: "United States", Currency: "USD", CurrencySymbol: "$",
			TaxRate: dec("0.08"), ShippingBaseCost: dec("5.99"), FreeShippingThreshold: dec("50.00"),
			PaymentMethods:  []byte(`["card","wallet"]`),
			ShippingOptions: []byte(`["standard","express"]`),
			IsActive:        true,
		},
		{
			Code: "IN", Name: "India", Currency: "INR", CurrencySymbol: "₹",
			TaxRate: dec("0.18"), ShippingBaseCost: dec("99.00"), FreeShippingThreshold: dec("1999.00"),
			PaymentMethods:  []byte(`["card","upi","wallet"]`),
			ShippingOptions: []byte(`["standard","express"]`),
			IsActive:        true,
		},
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range markets {
			if err := tx.Create(&markets[i]).Error; err != nil {
				return err
			}
			methods := []storage.ShippingMethod{
				{
					MarketID: markets[i].ID, Name: "Standard", Code: "standard",
					BaseCost:        markets[i].ShippingBaseCost,
					MinDeliveryDays: 4, MaxDeliveryDays: 7, IsActive: true,
				},
				{
					MarketID: markets[i].ID, Name: "Express", Code: "express",
					BaseCost:        markets[i].ShippingBaseCost.Mul(decimal.NewFromInt(2)).Round(2),
					MinDeliveryDays: 1, MaxDeliveryDays: 2, IsActive: true, IsExpress: true,
				},
			}
			for j := range methods {
				if err := tx.Create(&methods[j]).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
