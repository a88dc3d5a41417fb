package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/adapters"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// CurrencyService 提供币种换算。汇率按窗口缓存在 currency_exchanges 表，
// 窗口内复用，过窗后经汇率源刷新。
type CurrencyService struct {
	db       *gorm.DB
	provider *adapters.RatesProvider
	window   time.Duration
}

func NewCurrencyService(db *gorm.DB, provider *adapters.RatesProvider) *CurrencyService {
	return &CurrencyService{db: db, provider: provider, window: time.Hour}
}

// Rate 返回 from→to 的当前汇率。
func (s *CurrencyService) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == "" || to == "" {
		return decimal.Zero, fmt.Errorf("%w: from and to currencies are required", ErrInvalid)
	}
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	var row storage.CurrencyExchange
	err := s.db.WithContext(ctx).
		Where("from_currency = ? AND to_currency = ? AND valid_until > ?", from, to, time.Now()).
		Order("fetched_at DESC").First(&row).Error
	if err == nil {
		return row.Rate, nil
	}
	if err != gorm.ErrRecordNotFound {
		return decimal.Zero, err
	}

	rate, err := s.provider.Rate(ctx, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	now := time.Now()
	_ = s.db.WithContext(ctx).Create(&storage.CurrencyExchange{
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         rate,
		FetchedAt:    now,
		ValidUntil:   now.Add(s.window),
	}).Error
	return rate, nil
}

// Conversion 为一次换算的响应载荷。
type Conversion struct {
	From      string          `json:"from"`
	To        string          `json:"to"`
	Rate      decimal.Decimal `json:"rate"`
	Amount    decimal.Decimal `json:"amount"`
	Converted decimal.Decimal `json:"converted"`
}

// Convert 按当前汇率换算金额，结果保留两位小数。
func (s *CurrencyService) Convert(ctx context.Context, from, to string, amount decimal.Decimal) (*Conversion, error) {
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: amount cannot be negative", ErrInvalid)
	}
	rate, err := s.Rate(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &Conversion{
		From:      strings.ToUpper(from),
		To:        strings.ToUpper(to),
		Rate:      rate,
		Amount:    amount,
		Converted: amount.Mul(rate).Round(2),
	}, nil
}
