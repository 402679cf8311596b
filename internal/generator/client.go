// Package generator 调用上游俳句生成服务。
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"haiku-api/internal/domain"
)

const (
	DefaultTimeout = 30 * time.Second
	// 响应体上限
	maxReplyBytes = 1 << 20
)

// Draft 生成结果（未入库）
type Draft struct {
	Text    string `json:"text"`
	IsFunny bool   `json:"isFunny"`
}

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// HTTPClient 可选；设置后忽略 Timeout
	HTTPClient *http.Client
	Log        *zap.Logger
}

type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	log      *zap.Logger
}

type request struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
}

type reply struct {
	Haiku   *string `json:"haiku"`
	IsFunny *bool   `json:"is_funny"`
}

// New 地址或 key 缺失/非法 → CONFIGURATION_ERROR
func New(o Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(o.BaseURL), "/")
	if base == "" {
		return nil, domain.Configuration("generator base url is not set")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, domain.Configuration("generator base url %q is not an absolute url", o.BaseURL)
	}
	key := strings.TrimSpace(o.APIKey)
	if key == "" {
		return nil, domain.Configuration("generator api key is not set")
	}
	hc := o.HTTPClient
	if hc == nil {
		timeout := o.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	log := o.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		endpoint: base + "/generate",
		apiKey:   key,
		http:     hc,
		log:      log.Named("generator"),
	}, nil
}

// Generate 只请求一次，不重试；失败一律 UPSTREAM_ERROR，非 2xx 时带上 Status
func (c *Client) Generate(ctx context.Context, content string, maxTokens int, temperature float32) (Draft, error) {
	body, err := json.Marshal(request{Prompt: content, MaxTokens: maxTokens, Temperature: temperature})
	if err != nil {
		return Draft{}, domain.Internal("encode generation request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Draft{}, domain.Internal("build generation request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		var netErr net.Error
		switch {
		case errors.Is(err, context.Canceled):
			c.log.Warn("generation cancelled", zap.Error(err))
			return Draft{}, domain.Upstream(0, "generation request cancelled", err)
		case errors.As(err, &netErr) && netErr.Timeout():
			c.log.Warn("generation timed out", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
			return Draft{}, domain.Upstream(0, "generation request timed out", err)
		}
		c.log.Error("generation request failed", zap.Error(err))
		return Draft{}, domain.Upstream(0, "generation request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return Draft{}, domain.Upstream(0, "read generation response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("generation service returned non-2xx",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(raw, 512)),
		)
		return Draft{}, domain.Upstream(resp.StatusCode,
			fmt.Sprintf("generation service returned status %d", resp.StatusCode), nil)
	}

	var r reply
	if err := json.Unmarshal(raw, &r); err != nil {
		return Draft{}, domain.Upstream(0, "malformed generation response", err)
	}
	if r.Haiku == nil || r.IsFunny == nil {
		return Draft{}, domain.Upstream(0, "malformed generation response: missing haiku or is_funny", nil)
	}
	c.log.Debug("generated", zap.Duration("elapsed", time.Since(start)), zap.Int("chars", len(*r.Haiku)))
	return Draft{Text: *r.Haiku, IsFunny: *r.IsFunny}, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
