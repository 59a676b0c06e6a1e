package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondlife/internal/domain/entity"
)

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   map[string]string{"code": code, "message": message},
	})
}

func newTestClient(url string) *Client {
	return New(Config{BaseURL: url, Token: StaticToken("tok"), RetryMaxElapsed: 2 * time.Second})
}

func TestUnreadCount_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if atomic.AddInt32(&calls, 1) == 1 {
			writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "try later")
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]int{"unread_count": 3})
	}))
	defer srv.Close()

	n, err := newTestClient(srv.URL).UnreadCount(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestConversation_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "product-bike", r.URL.Query().Get("productId"))
		writeError(w, http.StatusForbidden, "FORBIDDEN", "not a participant")
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Conversation(context.Background(), "product-bike", "buyer-1", "seller-1")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "FORBIDDEN", apiErr.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSendMessage_PostsBodyOnce(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)

		var req SendMessageRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Content == "boom" {
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "boom")
			return
		}
		writeEnvelope(w, http.StatusCreated, entity.Message{ID: "m1", ClientID: req.ClientID, Content: req.Content})
	}))
	defer srv.Close()
	c := newTestClient(srv.URL)

	m, err := c.SendMessage(context.Background(), SendMessageRequest{ProductID: "p", BuyerID: "b", SellerID: "s", Content: "Bonjour", ClientID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, "c1", m.ClientID)

	_, err = c.SendMessage(context.Background(), SendMessageRequest{ProductID: "p", BuyerID: "b", SellerID: "s", Content: "boom"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestConfirmSale_DecodesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"product":           entity.Product{ID: "product-bike", Status: entity.ProductStatusSold},
			"already_confirmed": true,
		})
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).ConfirmSale(context.Background(), "product-bike", "buyer-1")

	require.NoError(t, err)
	assert.True(t, res.AlreadyConfirmed)
	assert.Equal(t, entity.ProductStatusSold, res.Product.Status)
}
