package whatsapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, token, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "AC123", sid)
		assert.Equal(t, "secret", token)
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "whatsapp:+14155238886", r.PostFormValue("From"))
		assert.Equal(t, "whatsapp:+5215512345678", r.PostFormValue("To"))
		assert.Equal(t, "IBUPROFENO 400 MG: $45.00", r.PostFormValue("Body"))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM001","status":"queued"}`))
	}))
	defer srv.Close()

	c := NewClient("AC123", "secret", "+14155238886", WithBaseURL(srv.URL))

	resp, err := c.SendText(context.Background(), "+5215512345678", "IBUPROFENO 400 MG: $45.00")
	require.NoError(t, err)
	assert.Equal(t, "SM001", resp.SID)
	assert.Equal(t, "queued", resp.Status)
}

func TestSendTextRetriesOn503(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM002","status":"queued"}`))
	}))
	defer srv.Close()

	c := NewClient("AC123", "secret", "+14155238886",
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
	)

	resp, err := c.SendText(context.Background(), "+5215512345678", "hola")
	require.NoError(t, err)
	assert.Equal(t, "SM002", resp.SID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSendTextPermanentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid number"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient("AC123", "secret", "+14155238886", WithBaseURL(srv.URL))

	_, err := c.SendText(context.Background(), "garbage", "hola")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestSendProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "https://cdn.example.com/ibu400.jpg", r.PostFormValue("MediaUrl"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM003","status":"queued"}`))
	}))
	defer srv.Close()

	c := NewClient("AC123", "secret", "+14155238886", WithBaseURL(srv.URL))

	resp, err := c.SendProduct(context.Background(), "+5215512345678", "IBUPROFENO 400 MG", "https://cdn.example.com/ibu400.jpg")
	require.NoError(t, err)
	assert.Equal(t, "SM003", resp.SID)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "whatsapp:+521551234", FormatNumber("+521551234"))
	assert.Equal(t, "whatsapp:+521551234", FormatNumber("whatsapp:+521551234"))
	assert.Equal(t, "", FormatNumber("  "))
	assert.Equal(t, "+521551234", StripNumber("whatsapp:+521551234"))
}

func TestParseInbound(t *testing.T) {
	form := url.Values{}
	form.Set("MessageSid", "SM123")
	form.Set("From", "whatsapp:+5215512345678")
	form.Set("ProfileName", "Maria")
	form.Set("Body", "precio de paracetamol")
	form.Set("NumMedia", "2")
	form.Set("MediaUrl0", "https://api.twilio.com/media/0")
	form.Set("MediaUrl1", "https://api.twilio.com/media/1")

	r := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	msg, err := ParseInbound(r)
	require.NoError(t, err)
	assert.Equal(t, "SM123", msg.MessageSID)
	assert.Equal(t, "+5215512345678", msg.From)
	assert.Equal(t, "Maria", msg.ProfileName)
	assert.Equal(t, "precio de paracetamol", msg.Body)
	require.True(t, msg.HasMedia())
	assert.Len(t, msg.MediaURLs, 2)
}

func TestParseInboundMissingFrom(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader("Body=hola"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	_, err := ParseInbound(r)
	assert.Error(t, err)
}
