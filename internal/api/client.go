package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/buyerdesk/pkg/models"
)

// Config defines transport client settings.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration // per-request timeout, default 15s
	Rate    float64       // requests per second, default 10
	Burst   int           // default 20
}

// Client is a thin HTTP wrapper over the support messaging endpoints. It
// issues authenticated requests and maps status codes to typed errors; it
// never retries (the polling cadence is the retry policy) and never caches.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewClient builds a client for the given backend.
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("api: base URL required")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("api: bearer token required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rps := cfg.Rate
	if rps <= 0 {
		rps = 10
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 20
	}
	return &Client{
		baseURL: base,
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger.With().Str("component", "api").Logger(),
	}, nil
}

// ListConversations fetches the admin's full conversation list.
func (c *Client) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	var out struct {
		Conversations []models.Conversation `json:"conversations"`
	}
	if err := c.do(ctx, http.MethodGet, "/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

// GetMyChat fetches the buyer's own thread.
func (c *Client) GetMyChat(ctx context.Context) (*models.Chat, error) {
	var out struct {
		Chat models.Chat `json:"chat"`
	}
	if err := c.do(ctx, http.MethodGet, "/my-chat", nil, &out); err != nil {
		return nil, err
	}
	return &out.Chat, nil
}

// GetConversation fetches one buyer's full thread (admin view).
func (c *Client) GetConversation(ctx context.Context, buyerID string) (*models.Chat, error) {
	var out struct {
		Chat models.Chat `json:"chat"`
	}
	if err := c.do(ctx, http.MethodGet, "/conversation/"+url.PathEscape(buyerID), nil, &out); err != nil {
		return nil, err
	}
	return &out.Chat, nil
}

// SendMessage posts a message. buyerID addresses the target thread and is
// required for admin senders; buyers leave it empty to reach "my chat".
func (c *Client) SendMessage(ctx context.Context, content, buyerID string) (*models.Message, error) {
	in := struct {
		Content string `json:"content"`
		BuyerID string `json:"buyerId,omitempty"`
	}{Content: content, BuyerID: buyerID}
	var out struct {
		Message models.Message `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/send-message", in, &out); err != nil {
		return nil, err
	}
	return &out.Message, nil
}

// MarkRead marks all counter-party messages in a chat as read. Idempotent.
func (c *Client) MarkRead(ctx context.Context, chatID string) error {
	in := struct {
		ChatID string `json:"chatId"`
	}{ChatID: chatID}
	return c.do(ctx, http.MethodPut, "/mark-read", in, nil)
}

// UnreadCount is the buyer-facing lightweight poll.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		UnreadCount int `json:"unreadCount"`
	}
	if err := c.do(ctx, http.MethodGet, "/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

// DeleteConversation removes a buyer's conversation from the admin list.
// The buyer-side chat survives.
func (c *Client) DeleteConversation(ctx context.Context, buyerID string) error {
	return c.do(ctx, http.MethodDelete, "/conversation/"+url.PathEscape(buyerID), nil, nil)
}

// ClearChat empties a thread for both parties; the chat entity persists.
func (c *Client) ClearChat(ctx context.Context, chatID string) error {
	return c.do(ctx, http.MethodPost, "/"+url.PathEscape(chatID)+"/clear", nil, nil)
}

// do runs one request: rate-limit, stamp auth and a request id, execute,
// check status, decode. Any non-2xx becomes an *APIError.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("api: rate limiter: %w", err)
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("api: failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Str("request_id", requestID).Str("path", path).Err(err).Msg("request failed")
		return fmt.Errorf("api: failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw)), RequestID: requestID}
		c.logger.Warn().Str("request_id", requestID).Str("path", path).Int("status", resp.StatusCode).Msg("request rejected")
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("api: failed to decode response: %w", err)
		}
	}
	return nil
}
