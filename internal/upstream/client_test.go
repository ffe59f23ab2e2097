package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDeliverSuccess(t *testing.T) {
	var gotContentType, gotRequestedWith, gotEmail string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotRequestedWith = r.Header.Get("X-Requested-With")
		assert.NoError(t, r.ParseForm())
		gotEmail = r.PostFormValue("email")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"message":"Welcome aboard!"}`))
	}))
	defer server.Close()

	client := New(server.URL, 5*time.Second, zap.NewNop())
	result, err := client.Deliver(context.Background(), "user@example.com")

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Welcome aboard!", result.Message)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "XMLHttpRequest", gotRequestedWith)
	assert.Equal(t, "user@example.com", gotEmail)
}

func TestDeliverBusinessRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false,"message":"Already subscribed"}`))
	}))
	defer server.Close()

	client := New(server.URL, 5*time.Second, zap.NewNop())
	result, err := client.Deliver(context.Background(), "user@example.com")

	// 业务拒绝不是传输错误
	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Already subscribed", result.Message)
}

func TestDeliverNon2xxIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 响应体声称成功，但状态码优先
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := New(server.URL, 5*time.Second, zap.NewNop())
	result, err := client.Deliver(context.Background(), "user@example.com")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestDeliverMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := New(server.URL, 5*time.Second, zap.NewNop())
	result, err := client.Deliver(context.Background(), "user@example.com")

	assert.Nil(t, result)
	assert.Error(t, err)
}

func TestDeliverTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // 立即关闭，模拟连接失败

	client := New(server.URL, time.Second, zap.NewNop())
	result, err := client.Deliver(context.Background(), "user@example.com")

	assert.Nil(t, result)
	assert.Error(t, err)
}

func TestDeliverContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := New(server.URL, 0, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Deliver(ctx, "user@example.com")
	assert.Error(t, err)
}
