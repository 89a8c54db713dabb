// Package whatsapp provides a Twilio-backed client for sending WhatsApp
// messages and parsing inbound webhook deliveries.
package whatsapp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the outbound messaging operations.
type Client interface {
	// SendText delivers a plain text message to the given number.
	SendText(ctx context.Context, to, body string) (*SendResponse, error)
	// SendProduct delivers a text message with an attached media URL,
	// typically a product image.
	SendProduct(ctx context.Context, to, body, mediaURL string) (*SendResponse, error)
}

// SendResponse is the parsed Twilio message resource.
type SendResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	http       *http.Client
}

// NewClient creates a Twilio WhatsApp client sending from the given number.
func NewClient(accountSID, authToken, from string, opts ...Option) Client {
	c := &httpClient{
		accountSID: accountSID,
		authToken:  authToken,
		from:       FormatNumber(from),
		baseURL:    "https://api.twilio.com",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) SendText(ctx context.Context, to, body string) (*SendResponse, error) {
	form := url.Values{}
	form.Set("From", c.from)
	form.Set("To", FormatNumber(to))
	form.Set("Body", body)
	return c.send(ctx, form)
}

func (c *httpClient) SendProduct(ctx context.Context, to, body, mediaURL string) (*SendResponse, error) {
	form := url.Values{}
	form.Set("From", c.from)
	form.Set("To", FormatNumber(to))
	form.Set("Body", body)
	form.Set("MediaUrl", mediaURL)
	return c.send(ctx, form)
}

func (c *httpClient) send(ctx context.Context, form url.Values) (*SendResponse, error) {
	endpoint := c.baseURL + "/2010-04-01/Accounts/" + c.accountSID + "/Messages.json"

	respBody, status, err := c.retryDo(ctx, endpoint, form)
	if err != nil {
		return nil, eris.Wrap(err, "whatsapp: send message")
	}
	if status < 200 || status >= 300 {
		return nil, eris.Errorf("whatsapp: twilio returned %d: %s", status, string(respBody))
	}

	var resp SendResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, eris.Wrap(err, "whatsapp: parse send response")
	}
	return &resp, nil
}

func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo posts the form with exponential backoff on transient failures.
// The body is rebuilt each attempt because form posts are not replayable
// through Request.Clone alone.
func (c *httpClient) retryDo(ctx context.Context, endpoint string, form url.Values) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, 0, eris.Wrap(err, "whatsapp: create request")
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.SetBasicAuth(c.accountSID, c.authToken)

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close() //nolint:errcheck
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "whatsapp: read response")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("whatsapp: twilio returned %d", resp.StatusCode)
			select {
			case <-ctx.Done():
				return nil, resp.StatusCode, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

// FormatNumber ensures the "whatsapp:" channel prefix Twilio expects.
func FormatNumber(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "whatsapp:") {
		return raw
	}
	return "whatsapp:" + raw
}

// StripNumber removes the channel prefix, leaving the E.164 number.
func StripNumber(raw string) string {
	return strings.TrimPrefix(strings.TrimSpace(raw), "whatsapp:")
}
