package adapters

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// StockStatus 为商家侧的库存回执。
type StockStatus struct {
	SKU       string `json:"sku"`
	Available bool   `json:"available"`
	Quantity  int    `json:"quantity"`
}

// MerchantConnector 对接商家库存接口；模拟模式下按本地库存字段回答。
type MerchantConnector struct {
	client  *resty.Client
	baseURL string
}

func NewMerchantConnector(baseURL string, timeout time.Duration) *MerchantConnector {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &MerchantConnector{client: client, baseURL: baseURL}
}

// CheckStock 查询商家侧库存；远端不可达时信任本地数量。
func (m *MerchantConnector) CheckStock(ctx context.Context, merchantCode, sku string, localQty int) (*StockStatus, error) {
	if m.baseURL == "" {
		return &StockStatus{SKU: sku, Available: localQty > 0, Quantity: localQty}, nil
	}
	var out StockStatus
	resp, err := m.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"merchant": merchantCode, "sku": sku}).
		SetResult(&out).
		Get("/v1/merchants/{merchant}/stock/{sku}")
	if err != nil || resp.StatusCode() != 200 {
		return &StockStatus{SKU: sku, Available: localQty > 0, Quantity: localQty}, nil
	}
	return &out, nil
}
