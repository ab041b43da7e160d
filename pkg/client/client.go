// Package client calls the delivery prediction service.
//
// The client POSTs one request and returns the raw JSON body untouched;
// interpreting it is the job of package normalize. Calls use a fixed timeout
// and are never retried: a timeout or transport failure is reported to the
// user as is.
//
//	c := client.New(client.Config{BaseURL: "http://0.0.0.0:8000"})
//	raw, err := c.Predict(ctx, prediction.Request{PostalCode: "05050", ProductID: "LIV-004", Quantity: 3})
//	if errors.Is(err, client.ErrTimeout) {
//	    ...
//	}
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

	"github.com/google/uuid"

	apperrors "github.com/imartinezt/logistica-front/pkg/errors"
	"github.com/imartinezt/logistica-front/pkg/observability"
	"github.com/imartinezt/logistica-front/pkg/prediction"
)

// Defaults of the prediction service.
const (
	DefaultBaseURL  = "http://0.0.0.0:8000"
	DefaultEndpoint = "/api/v1/fee/predict"
	DefaultTimeout  = 30 * time.Second
)

// RequestIDHeader carries the per-call identifier.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of a failed response is quoted in errors.
const maxErrorBody = 512

var (
	// ErrNetwork is returned for transport failures and non-2xx responses.
	ErrNetwork = errors.New("network error")

	// ErrTimeout is returned when the service does not answer in time.
	ErrTimeout = errors.New("timeout")
)

// Config configures a Client.
type Config struct {
	BaseURL  string
	Endpoint string
	Timeout  time.Duration
	// Headers are added to every request.
	Headers map[string]string
}

// Client is a prediction service client. It is safe for concurrent use.
type Client struct {
	http     *http.Client
	url      string
	headers  map[string]string
	newReqID func() string
}

// New creates a client, filling unset fields with the defaults.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		url:      strings.TrimRight(cfg.BaseURL, "/") + "/" + strings.TrimLeft(cfg.Endpoint, "/"),
		headers:  cfg.Headers,
		newReqID: uuid.NewString,
	}
}

// URL returns the full prediction endpoint.
func (c *Client) URL() string {
	return c.url
}

// payload is the wire form of a prediction request.
type payload struct {
	PostalCode  string `json:"codigo_postal"`
	ProductID   string `json:"sku_id"`
	Quantity    int    `json:"cantidad"`
	PurchasedAt string `json:"fecha_compra"`
}

// Validate checks req the way the service expects it.
func Validate(req prediction.Request) error {
	if err := apperrors.ValidatePostalCode(req.PostalCode); err != nil {
		return err
	}
	if err := apperrors.ValidateProductID(req.ProductID); err != nil {
		return err
	}
	return apperrors.ValidateQuantity(req.Quantity)
}

// Predict validates req, sends it and returns the raw response body. An empty
// purchase timestamp is set to the current time.
//
// Errors carry the TIMEOUT or NETWORK_ERROR code and wrap ErrTimeout or
// ErrNetwork respectively; invalid requests fail with INVALID_INPUT before
// any call is made.
func (c *Client) Predict(ctx context.Context, req prediction.Request) ([]byte, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	if req.PurchasedAt == "" {
		req.PurchasedAt = time.Now().Format("2006-01-02T15:04:05")
	}

	body, err := json.Marshal(payload{
		PostalCode:  req.PostalCode,
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		PurchasedAt: req.PurchasedAt,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "encode request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "build request for %s", c.url)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	if httpReq.Header.Get(RequestIDHeader) == "" {
		httpReq.Header.Set(RequestIDHeader, c.newReqID())
	}

	host, path := httpReq.URL.Host, httpReq.URL.Path
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodPost, host, path)
	start := time.Now()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		hooks.OnError(ctx, http.MethodPost, host, path, err)
		return nil, classify(err, c.url)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, http.MethodPost, host, path, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err, c.url)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.Wrap(apperrors.ErrCodeNetwork,
			fmt.Errorf("%w: status %d", ErrNetwork, resp.StatusCode),
			"Error %d: %s", resp.StatusCode, truncate(data, maxErrorBody))
	}
	return data, nil
}

func classify(err error, target string) error {
	if isTimeout(err) {
		return apperrors.Wrap(apperrors.ErrCodeTimeout, fmt.Errorf("%w: %v", ErrTimeout, err),
			"prediction service at %s did not answer in time", target)
	}
	return apperrors.Wrap(apperrors.ErrCodeNetwork, fmt.Errorf("%w: %v", ErrNetwork, err),
		"cannot reach prediction service at %s", target)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue) && ue.Timeout()
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
