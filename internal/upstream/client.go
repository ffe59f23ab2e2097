package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnexpectedStatus 上游返回了非 2xx 状态码（无论响应体内容如何，一律视为失败）。
var ErrUnexpectedStatus = errors.New("upstream returned non-2xx status")

// Result 上游对一次投递的业务应答。
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Client 负责把采集到的邮箱地址投递给上游订阅后端。
type Client struct {
	endpoint   string
	httpClient *http.Client
	log        *zap.Logger
}

// New 创建上游投递客户端。
//
// timeout 为 0 表示不限制请求时长——挂起的上游请求会一直占用调用方，
// 这是沿袭原始行为的已知缺陷，部署时建议显式配置超时。
func New(endpoint string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Deliver 向上游端点发送一次投递：POST 表单字段 email，
// 附带 X-Requested-With 头，期望 JSON 应答 {success, message?}。
//
// 返回错误的情况：传输层错误、非 2xx 状态（ErrUnexpectedStatus）、
// 应答体无法解析。业务层面的拒绝（success=false）不是错误，
// 由返回的 Result 表达。
func (c *Client) Deliver(ctx context.Context, email string) (*Result, error) {
	form := url.Values{}
	form.Set("email", email)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("upstream delivery failed",
			zap.String("endpoint", c.endpoint),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.log.Warn("upstream returned error status",
			zap.String("endpoint", c.endpoint),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode upstream response: %w", err)
	}

	c.log.Debug("upstream delivery completed",
		zap.Bool("success", result.Success),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &result, nil
}
