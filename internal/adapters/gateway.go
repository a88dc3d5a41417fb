package adapters

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// 支付结果状态。
const (
	PaymentAuthorized = "authorized"
	PaymentDeclined   = "declined"
	PaymentError      = "error"
)

// ChargeRequest 为一次扣款请求。
type ChargeRequest struct {
	Reference   string          `json:"reference"` // 幂等键
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	MethodToken string          `json:"method_token"`
	Gateway     string          `json:"gateway"`
}

// ChargeResult 为网关返回的扣款结果。
type ChargeResult struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// PaymentGateway 对接支付网关；未配置 BaseURL 时使用内置模拟网关。
type PaymentGateway struct {
	client  *resty.Client
	baseURL string
}

// NewPaymentGateway 构造网关客户端。
func NewPaymentGateway(baseURL string, timeout time.Duration, retries int, backoff time.Duration) *PaymentGateway {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(backoff).
		SetHeader("Content-Type", "application/json")
	return &PaymentGateway{client: client, baseURL: baseURL}
}

// Charge 发起扣款。模拟模式下结果由支付令牌尾号决定：
// 以 "0000" 结尾拒付、以 "9999" 结尾网关故障、其余授权成功。
func (g *PaymentGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if g.baseURL == "" {
		return g.simulate(req), nil
	}
	var out ChargeResult
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/v1/charges")
	if err != nil {
		logrus.WithError(err).WithField("reference", req.Reference).Error("gateway charge failed")
		return &ChargeResult{Status: PaymentError, Reason: "gateway unreachable"}, nil
	}
	if resp.StatusCode() >= 500 {
		return &ChargeResult{Status: PaymentError, Reason: "gateway error"}, nil
	}
	return &out, nil
}

func (g *PaymentGateway) simulate(req ChargeRequest) *ChargeResult {
	switch {
	case req.Amount.Sign() <= 0:
		return &ChargeResult{Status: PaymentDeclined, Reason: "invalid amount"}
	case strings.HasSuffix(req.MethodToken, "0000"):
		return &ChargeResult{Status: PaymentDeclined, Reason: "card declined"}
	case strings.HasSuffix(req.MethodToken, "9999"):
		return &ChargeResult{Status: PaymentError, Reason: "processor unavailable"}
	default:
		return &ChargeResult{Status: PaymentAuthorized, TransactionID: "txn_" + uuid.NewString()}
	}
}

// Refund 模拟/转发退款；退款默认成功。
func (g *PaymentGateway) Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (*ChargeResult, error) {
	if g.baseURL == "" {
		return &ChargeResult{Status: PaymentAuthorized, TransactionID: transactionID}, nil
	}
	var out ChargeResult
	_, err := g.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"transaction_id": transactionID, "amount": amount}).
		SetResult(&out).
		Post("/v1/refunds")
	if err != nil {
		return &ChargeResult{Status: PaymentError, Reason: "gateway unreachable"}, nil
	}
	return &out, nil
}
