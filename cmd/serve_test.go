package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soprim/pricebot/pkg/whatsapp"
)

type stubHandler struct {
	calls atomic.Int32
	last  atomic.Value
}

func (s *stubHandler) Handle(_ context.Context, msg whatsapp.InboundMessage) error {
	s.last.Store(msg)
	s.calls.Add(1)
	return nil
}

func TestRouter_Health(t *testing.T) {
	router := newRouter(&stubHandler{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_Webhook(t *testing.T) {
	h := &stubHandler{}
	router := newRouter(h)

	form := url.Values{}
	form.Set("MessageSid", "SM1")
	form.Set("From", "whatsapp:+5215512345678")
	form.Set("Body", "precio de paracetamol")

	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	// Handling is asynchronous; wait for the goroutine.
	require.Eventually(t, func() bool {
		return h.calls.Load() == 1
	}, time.Second, 10*time.Millisecond)

	msg := h.last.Load().(whatsapp.InboundMessage)
	assert.Equal(t, "+5215512345678", msg.From)
	assert.Equal(t, "precio de paracetamol", msg.Body)
}

func TestRouter_WebhookMissingFrom(t *testing.T) {
	h := &stubHandler{}
	router := newRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader("Body=hola"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Zero(t, h.calls.Load())
}
