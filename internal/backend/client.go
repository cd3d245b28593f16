package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"finitefield.org/listing-console/internal/listing"
	"finitefield.org/listing-console/internal/schedule"
)

const (
	// DefaultBaseURL points at the backend started locally.
	DefaultBaseURL = "http://localhost:5000/api"
	// DefaultTimeout bounds every request.
	DefaultTimeout = 30 * time.Second

	instrumentationName = "finitefield.org/listing-console/internal/backend"
)

const (
	opFetchProduct   = "fetch_amazon_product"
	opRegister       = "register_to_rakuten"
	opUpdate         = "update_rakuten_product"
	opCategories     = "get_rakuten_categories"
	opBatch          = "batch_process"
	opHealth         = "health_check"
	healthyStatus    = "healthy"
	maxErrorBodySize = 1 << 16
)

// ErrInvalidBaseURL is returned by SetBaseURL for URLs without an http(s) scheme and host.
var ErrInvalidBaseURL = errors.New("backend: base URL must be an absolute http(s) URL")

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Clock      schedule.Clock
	Logger     *zap.Logger
}

// Client issues calls against the listing backend and unwraps its response envelope.
type Client struct {
	mu      sync.RWMutex
	baseURL string

	timeout time.Duration
	rest    *resty.Client
	clock   schedule.Clock
	logger  *zap.Logger
	tracer  trace.Tracer
	calls   metric.Int64Counter
	latency metric.Float64Histogram
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Status  string          `json:"status"`
}

// New constructs a Client. Zero-valued options fall back to the defaults.
func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = schedule.RealClock()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	baseURL := normalizeBaseURL(opts.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	var rest *resty.Client
	if opts.HTTPClient != nil {
		rest = resty.NewWithClient(opts.HTTPClient)
	} else {
		rest = resty.New()
	}
	rest.SetHeader("Accept", "application/json")
	rest.SetLogger(logger.Named("resty").Sugar())

	meter := otel.Meter(instrumentationName)
	calls, err := meter.Int64Counter("backend.requests",
		metric.WithDescription("Backend API calls by operation and outcome."))
	if err != nil {
		logger.Warn("backend: create request counter", zap.Error(err))
	}
	latency, err := meter.Float64Histogram("backend.request.duration",
		metric.WithDescription("Backend API call latency."),
		metric.WithUnit("ms"))
	if err != nil {
		logger.Warn("backend: create latency histogram", zap.Error(err))
	}

	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		rest:    rest,
		clock:   clock,
		logger:  logger,
		tracer:  otel.Tracer(instrumentationName),
		calls:   calls,
		latency: latency,
	}
}

// BaseURL returns the endpoint prefix currently in use.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL rewrites the endpoint prefix in place; subsequent calls use the new value.
func (c *Client) SetBaseURL(raw string) error {
	normalized := normalizeBaseURL(raw)
	parsed, err := url.Parse(normalized)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return ErrInvalidBaseURL
	}
	c.mu.Lock()
	c.baseURL = normalized
	c.mu.Unlock()
	c.logger.Info("backend base URL updated", zap.String("base_url", normalized))
	return nil
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// FetchAmazonProduct retrieves product data for an ASIN. The identifier is trimmed and
// uppercased before it is sent.
func (c *Client) FetchAmazonProduct(ctx context.Context, asin string) (listing.ProductData, error) {
	var product listing.ProductData
	body := map[string]string{"asin": listing.NormalizeASIN(asin)}
	if err := c.call(ctx, opFetchProduct, http.MethodPost, "/amazon/product", body, &product); err != nil {
		return listing.ProductData{}, err
	}
	return product, nil
}

// RegisterToRakuten registers the product on the marketplace.
func (c *Client) RegisterToRakuten(ctx context.Context, product listing.ProductData) ([]listing.ResultItem, error) {
	var raw json.RawMessage
	if err := c.call(ctx, opRegister, http.MethodPost, "/rakuten/register", product, &raw); err != nil {
		return nil, err
	}
	return listing.DecodeResults(raw)
}

// UpdateRakutenProduct updates an already registered item identified by its item URL.
func (c *Client) UpdateRakutenProduct(ctx context.Context, itemURL string, product listing.ProductData) ([]listing.ResultItem, error) {
	body := struct {
		ItemURL     string              `json:"itemUrl"`
		ProductData listing.ProductData `json:"productData"`
	}{ItemURL: itemURL, ProductData: product}
	var raw json.RawMessage
	if err := c.call(ctx, opUpdate, http.MethodPut, "/rakuten/update", body, &raw); err != nil {
		return nil, err
	}
	return listing.DecodeResults(raw)
}

// GetRakutenCategories lists marketplace categories. Any failure degrades to
// DefaultCategories; the lookup is not critical enough to fail the caller.
func (c *Client) GetRakutenCategories(ctx context.Context) []listing.Category {
	var categories []listing.Category
	if err := c.call(ctx, opCategories, http.MethodGet, "/rakuten/categories", nil, &categories); err != nil {
		c.logger.Warn("backend: categories unavailable, using defaults", zap.Error(err))
		return DefaultCategories()
	}
	if len(categories) == 0 {
		return DefaultCategories()
	}
	return categories
}

// BatchProcess fetches and registers every ASIN in one backend call.
func (c *Client) BatchProcess(ctx context.Context, asins []string) ([]listing.ResultItem, error) {
	body := map[string][]string{"asinList": asins}
	var raw json.RawMessage
	if err := c.call(ctx, opBatch, http.MethodPost, "/batch/process", body, &raw); err != nil {
		return nil, err
	}
	return listing.DecodeResults(raw)
}

// HealthCheck reports whether the backend answers healthy. It never returns an error.
func (c *Client) HealthCheck(ctx context.Context) bool {
	raw, err := c.do(ctx, opHealth, http.MethodGet, "/health", nil)
	if err != nil {
		c.logger.Debug("backend: health check failed", zap.Error(err))
		return false
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false
	}
	if env.Status == healthyStatus {
		return true
	}
	var data struct {
		Status string `json:"status"`
	}
	if len(env.Data) > 0 && json.Unmarshal(env.Data, &data) == nil {
		return data.Status == healthyStatus
	}
	return false
}

// call performs the request and unwraps the envelope into out.
func (c *Client) call(ctx context.Context, op, method, path string, body, out any) error {
	raw, err := c.do(ctx, op, method, path, body)
	if err != nil {
		return err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("backend: %s: decode response: %w", op, err)
	}
	if !env.Success {
		return &ApplicationError{Op: op, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("backend: %s: decode data: %w", op, err)
	}
	return nil
}

// do issues one HTTP request raced against the client timeout. The timeout timer is stopped
// on every return path.
func (c *Client) do(ctx context.Context, op, method, path string, body any) ([]byte, error) {
	endpoint := c.resolve(path)
	ctx, span := c.tracer.Start(ctx, "backend."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", endpoint),
		))
	defer span.End()
	start := time.Now()

	reqCtx, cancel := context.WithCancel(ctx)
	var timedOut atomic.Bool
	timer := c.clock.AfterFunc(c.timeout, func() {
		timedOut.Store(true)
		cancel()
	})
	defer func() {
		timer.Stop()
		cancel()
	}()

	req := c.rest.R().SetContext(reqCtx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Execute(method, endpoint)

	var result []byte
	if err != nil {
		err = c.classify(ctx, op, endpoint, err, timedOut.Load())
	} else {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode()))
		if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
			err = statusError(op, resp.StatusCode(), resp.Body())
		} else {
			result = resp.Body()
		}
	}

	c.record(ctx, op, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("backend request failed",
			zap.String("operation", op),
			zap.String("method", method),
			zap.String("url", endpoint),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

func (c *Client) classify(ctx context.Context, op, endpoint string, err error, timedOut bool) error {
	if timedOut {
		return &TimeoutError{Op: op, After: c.timeout}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("backend: %s: %w", op, ctxErr)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &ConnectivityError{Op: op, URL: endpoint, Err: urlErr.Err}
	}
	return err
}

func (c *Client) record(ctx context.Context, op string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case isTimeout(err):
		outcome = "timeout"
	default:
		outcome = "error"
	}
	attrs := metric.WithAttributes(attribute.String("operation", op), attribute.String("outcome", outcome))
	if c.calls != nil {
		c.calls.Add(ctx, 1, attrs)
	}
	if c.latency != nil {
		c.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
	}
}

func (c *Client) resolve(path string) string {
	return c.BaseURL() + "/" + strings.TrimPrefix(path, "/")
}

func statusError(op string, status int, body []byte) error {
	var payload struct {
		Message string `json:"message"`
	}
	if len(body) > maxErrorBodySize {
		body = body[:maxErrorBodySize]
	}
	msg := ""
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		msg = strings.TrimSpace(payload.Message)
	}
	return &HTTPStatusError{Op: op, Status: status, Message: msg}
}

func isTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

func normalizeBaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}
