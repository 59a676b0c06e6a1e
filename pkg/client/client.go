// Package client is the polling SDK used by marketplace front ends and
// marketctl. It talks to the /v1 HTTP API with a Firebase ID token.
package client

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

	"github.com/cenkalti/backoff/v4"

	"secondlife/internal/domain/entity"
)

// TokenSource returns a fresh ID token for every request.
type TokenSource func(ctx context.Context) (string, error)

// StaticToken is a TokenSource for a token obtained out of band.
func StaticToken(token string) TokenSource {
	return func(context.Context) (string, error) { return token, nil }
}

type Config struct {
	BaseURL         string
	Token           TokenSource
	Timeout         time.Duration
	RetryMaxElapsed time.Duration
}

type Client struct {
	baseURL string
	token   TokenSource
	http    *http.Client
	retry   time.Duration
}

func New(conf Config) *Client {
	if conf.Timeout == 0 {
		conf.Timeout = 10 * time.Second
	}
	if conf.RetryMaxElapsed == 0 {
		conf.RetryMaxElapsed = 15 * time.Second
	}
	tr := &http.Transport{
		DialContext:     (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}
	return &Client{
		baseURL: strings.TrimRight(conf.BaseURL, "/"),
		token:   conf.Token,
		http:    &http.Client{Transport: tr, Timeout: conf.Timeout},
		retry:   conf.RetryMaxElapsed,
	}
}

// APIError is a non-2xx answer carrying the server's error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do sends one request. With retry set, network failures and 5xx answers
// are retried with exponential backoff; 4xx answers never are.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}, retry bool) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != nil {
			token, err := c.token(ctx)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("get token: %w", err))
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			if resp.StatusCode >= 500 {
				return fmt.Errorf("server error %d", resp.StatusCode)
			}
			return backoff.Permanent(fmt.Errorf("decode %s %s: %w", method, path, err))
		}

		if resp.StatusCode >= 300 {
			apiErr := &APIError{Status: resp.StatusCode}
			if env.Error != nil {
				apiErr.Code, apiErr.Message = env.Error.Code, env.Error.Message
			}
			if resp.StatusCode >= 500 {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}
		if out != nil && len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, out); err != nil {
				return backoff.Permanent(fmt.Errorf("decode %s %s: %w", method, path, err))
			}
		}
		return nil
	}

	if !retry {
		err := operation()
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return perm.Err
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = c.retry
	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

type SendMessageRequest struct {
	ProductID  string             `json:"product_id"`
	BuyerID    string             `json:"buyer_id"`
	SellerID   string             `json:"seller_id"`
	Content    string             `json:"content,omitempty"`
	Type       entity.MessageType `json:"type,omitempty"`
	ImageURL   string             `json:"image_url,omitempty"`
	ClientID   string             `json:"client_id,omitempty"`
	SenderName string             `json:"sender_name,omitempty"`
}

// SendMessage is not retried: a lost answer is resolved by the Outbox
// when the message shows up in a later poll.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*entity.Message, error) {
	var m entity.Message
	if err := c.do(ctx, http.MethodPost, "/v1/messages", nil, req, &m, false); err != nil {
		return nil, err
	}
	return &m, nil
}

// Messages lists every message the caller takes part in, oldest first.
func (c *Client) Messages(ctx context.Context) ([]*entity.Message, error) {
	var msgs []*entity.Message
	err := c.do(ctx, http.MethodGet, "/v1/messages", nil, nil, &msgs, true)
	return msgs, err
}

func (c *Client) Inbox(ctx context.Context) ([]*entity.Conversation, error) {
	var rows []*entity.Conversation
	err := c.do(ctx, http.MethodGet, "/v1/messages/inbox", nil, nil, &rows, true)
	return rows, err
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		UnreadCount int `json:"unread_count"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/messages/unread-count", nil, nil, &out, true)
	return out.UnreadCount, err
}

type ConversationView struct {
	Key        string              `json:"key"`
	ProductID  string              `json:"product_id"`
	BuyerID    string              `json:"buyer_id"`
	SellerID   string              `json:"seller_id"`
	BuyerName  string              `json:"buyer_name"`
	SellerName string              `json:"seller_name"`
	Messages   []*entity.Message   `json:"messages"`
	Workflow   entity.WorkflowView `json:"workflow"`
}

// Conversation fetches a thread; the server marks it read for the caller.
func (c *Client) Conversation(ctx context.Context, productID, buyerID, sellerID string) (*ConversationView, error) {
	q := url.Values{"productId": {productID}, "buyerId": {buyerID}, "sellerId": {sellerID}}
	var view ConversationView
	if err := c.do(ctx, http.MethodGet, "/v1/messages/conversation", q, nil, &view, true); err != nil {
		return nil, err
	}
	return &view, nil
}

// TouchActivity is the presence heartbeat.
func (c *Client) TouchActivity(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/v1/users/me/activity", nil, nil, nil, false)
}

type ConfirmSaleResult struct {
	Product          *entity.Product `json:"product"`
	Message          *entity.Message `json:"message"`
	AlreadyConfirmed bool            `json:"already_confirmed"`
}

// ConfirmSale is idempotent on the server, so it is safe to retry.
func (c *Client) ConfirmSale(ctx context.Context, productID, buyerID string) (*ConfirmSaleResult, error) {
	body := map[string]string{"product_id": productID, "buyer_id": buyerID}
	var res ConfirmSaleResult
	if err := c.do(ctx, http.MethodPost, "/v1/sales/confirm", nil, body, &res, true); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CreateReview(ctx context.Context, productID string, rating int, comment string) (*entity.Review, error) {
	body := map[string]interface{}{"product_id": productID, "rating": rating, "comment": comment}
	var r entity.Review
	if err := c.do(ctx, http.MethodPost, "/v1/reviews", nil, body, &r, false); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) ReviewExists(ctx context.Context, productID, buyerID string) (bool, error) {
	var out struct {
		Exists bool `json:"exists"`
	}
	q := url.Values{"productId": {productID}, "buyerId": {buyerID}}
	err := c.do(ctx, http.MethodGet, "/v1/reviews/check", q, nil, &out, true)
	return out.Exists, err
}
