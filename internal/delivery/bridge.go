package delivery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"pedidobot/internal/config"
	"pedidobot/internal/services"
)

const (
	defaultBridgeTimeout = 30 * time.Second
	bridgeRetryCount     = 2
	bridgeRetryWait      = 300 * time.Millisecond
	bridgeRetryMaxWait   = 3 * time.Second
	userAgent            = "pedidobot/0.1.0"
)

// BridgeClient posts messages to the WhatsApp bridge.
type BridgeClient struct {
	baseURL string
	http    *resty.Client
}

// NewBridgeClient builds a client for baseURL. An empty token disables auth.
func NewBridgeClient(baseURL, token string, timeout time.Duration) *BridgeClient {
	if timeout <= 0 {
		timeout = defaultBridgeTimeout
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(strings.TrimSpace(baseURL), "/")).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetRetryCount(bridgeRetryCount).
		SetRetryWaitTime(bridgeRetryWait).
		SetRetryMaxWaitTime(bridgeRetryMaxWait).
		AddRetryCondition(shouldRetry)
	if token = strings.TrimSpace(token); token != "" {
		httpClient.SetAuthToken(token)
	}
	return &BridgeClient{baseURL: baseURL, http: httpClient}
}

// NewBridgeClientFromConfig uses the [gateway] bridge settings.
func NewBridgeClientFromConfig(cfg *config.Config) *BridgeClient {
	return NewBridgeClient(
		cfg.Gateway.BridgeURL,
		cfg.Gateway.BridgeToken,
		time.Duration(cfg.Gateway.RequestTimeout)*time.Second,
	)
}

// WithRetry overrides the retry policy. attempts counts the first try.
func (c *BridgeClient) WithRetry(attempts int, wait, maxWait time.Duration) *BridgeClient {
	if attempts < 1 {
		attempts = 1
	}
	c.http.SetRetryCount(attempts - 1).SetRetryWaitTime(wait).SetRetryMaxWaitTime(maxWait)
	return c
}

func shouldRetry(resp *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

type textMessage struct {
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
}

// SendText implements Replier.
func (c *BridgeClient) SendText(ctx context.Context, channelID, text string) error {
	if strings.TrimSpace(channelID) == "" {
		return services.Wrap(services.ErrValidation, "delivery", "send text", "channel id required", nil)
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(textMessage{ChannelID: channelID, Text: text}).
		Post("/messages/text")
	return checkResponse("send text", resp, err)
}

// SendDocument implements Replier.
func (c *BridgeClient) SendDocument(ctx context.Context, channelID string, doc Document) error {
	if strings.TrimSpace(channelID) == "" {
		return services.Wrap(services.ErrValidation, "delivery", "send document", "channel id required", nil)
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetFile("file", doc.Path).
		SetFormData(map[string]string{
			"channel_id": channelID,
			"file_name":  doc.FileName,
			"mime":       doc.Mime,
			"caption":    doc.Caption,
		}).
		Post("/messages/document")
	return checkResponse("send document", resp, err)
}

// Ping checks that the bridge answers its health endpoint.
func (c *BridgeClient) Ping(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/healthz")
	return checkResponse("ping", resp, err)
}

func checkResponse(op string, resp *resty.Response, err error) error {
	if err != nil {
		return services.Wrap(services.ErrIO, "delivery", op, "bridge unreachable", err)
	}
	if resp.IsError() {
		body := strings.TrimSpace(resp.String())
		if len(body) > 200 {
			body = body[:200]
		}
		return services.Wrap(services.ErrIO, "delivery", op, fmt.Sprintf("bridge returned %d: %s", resp.StatusCode(), body), nil)
	}
	return nil
}

// BaseURL returns the configured bridge address.
func (c *BridgeClient) BaseURL() string { return c.baseURL }
