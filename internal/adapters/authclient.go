package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// ErrTokenInvalid 表示令牌被用户服务判定无效，或核验调用超时。
// 核验超时一律按无效处理，宁可拒绝不可放行。
var ErrTokenInvalid = errors.New("token invalid or verification timed out")

// AuthClient 调用用户服务核验令牌。其他服务在本地校验签名失败
// 或需要会话吊销状态时使用。
type AuthClient struct {
	client *resty.Client
}

// NewAuthClient 构造核验客户端；verifyURL 为用户服务的核验端点。
func NewAuthClient(verifyURL string, timeout time.Duration) *AuthClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	client := resty.New().
		SetBaseURL(verifyURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &AuthClient{client: client}
}

type verifyResponse struct {
	Valid  bool   `json:"valid"`
	UserID uint64 `json:"user_id"`
}

// Verify 核验令牌并返回用户 ID。网络错误与超时均返回 ErrTokenInvalid。
func (c *AuthClient) Verify(ctx context.Context, token string) (uint64, error) {
	var out verifyResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetResult(&out).
		Post("")
	if err != nil {
		logrus.WithError(err).Warn("token verification call failed")
		return 0, ErrTokenInvalid
	}
	if resp.StatusCode() != 200 || !out.Valid || out.UserID == 0 {
		return 0, ErrTokenInvalid
	}
	return out.UserID, nil
}
