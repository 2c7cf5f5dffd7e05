package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-onboarding/pkg/logger"
	"github.com/goliatone/go-onboarding/pkg/model"
)

const (
	// DefaultBaseURL points at the hosted onboarding API.
	DefaultBaseURL = "https://fe-hometask-api.qa.vault.tryvault.com"
	// DefaultTimeout bounds every request when no http.Client is supplied.
	DefaultTimeout = 10 * time.Second

	corporationPath = "/corporation-number/"
	profilePath     = "/profile-details"
	maxBodyBytes    = 1 << 20
	// RequestIDHeader carries a per-request identifier.
	RequestIDHeader = "X-Request-ID"
)

var (
	// ErrBaseURLRequired is returned by New when the base URL is blank.
	ErrBaseURLRequired = errors.New("client: base url is required")

	messagePolicyOnce sync.Once
	messagePolicy     *bluemonday.Policy
)

// CorporationResult is the body returned by the corporation-number lookup.
type CorporationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// StatusError reports a non-2xx response. Message holds the sanitized
// `message` field of the body when one was present.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("client: %s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("client: %s: status %d", e.Op, e.StatusCode)
}

// Client talks to the onboarding API: the corporation lookup and the profile
// write. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New constructs a client for baseURL. A trailing slash is ignored.
func New(baseURL string, options ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, ErrBaseURLRequired
	}

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  "go-onboarding",
		logger:     logger.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

// BaseURL reports the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LookupCorporation asks the service whether number is a known corporation.
// The number is embedded in the path verbatim.
func (c *Client) LookupCorporation(ctx context.Context, number string) (CorporationResult, error) {
	req, err := c.newRequest(ctx, http.MethodGet, corporationPath+number, nil)
	if err != nil {
		return CorporationResult{}, fmt.Errorf("client: lookup corporation: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CorporationResult{}, fmt.Errorf("client: lookup corporation: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return CorporationResult{}, fmt.Errorf("client: lookup corporation: read body: %w", err)
	}

	if !isSuccess(resp.StatusCode) {
		return CorporationResult{}, &StatusError{
			Op:         "lookup corporation",
			StatusCode: resp.StatusCode,
			Message:    messageFrom(body),
		}
	}

	var result CorporationResult
	if err := json.Unmarshal(body, &result); err != nil {
		return CorporationResult{}, fmt.Errorf("client: lookup corporation: decode: %w", err)
	}
	result.Message = SanitizeMessage(result.Message)

	c.logger.Debug("corporation lookup completed", map[string]any{
		"number": number,
		"valid":  result.Valid,
		"status": resp.StatusCode,
	})
	return result, nil
}

// SubmitProfile posts the profile as JSON. Any 2xx response is a success and
// its body is ignored.
func (c *Client) SubmitProfile(ctx context.Context, data model.FormData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("client: submit profile: encode: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, profilePath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("client: submit profile: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: submit profile: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		return &StatusError{
			Op:         "submit profile",
			StatusCode: resp.StatusCode,
			Message:    messageFrom(body),
		}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	c.logger.Info("profile submitted", map[string]any{
		"status":     resp.StatusCode,
		"request_id": req.Header.Get(RequestIDHeader),
	})
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, uuid.NewString())
	return req, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func messageFrom(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return SanitizeMessage(payload.Message)
}

// SanitizeMessage strips markup from service-provided text so it can be shown
// verbatim in a terminal.
func SanitizeMessage(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	// the strict policy entity-escapes what it keeps; terminals want plain text
	return strings.TrimSpace(html.UnescapeString(messageSanitizer().Sanitize(trimmed)))
}

func messageSanitizer() *bluemonday.Policy {
	messagePolicyOnce.Do(func() {
		messagePolicy = bluemonday.StrictPolicy()
	})
	return messagePolicy
}
