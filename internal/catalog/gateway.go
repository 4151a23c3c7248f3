package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/httpclient"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/tracing"
)

// DefaultBaseURL is the provider's sync endpoint.
const DefaultBaseURL = "https://api-sg.aliexpress.com/sync"

const maxBodyBytes = 10 << 20

// RawResponse is a decoded provider body. Numbers are json.Number.
type RawResponse map[string]any

var (
	gatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_gateway_requests_total",
		Help: "Provider calls by operation and outcome",
	}, []string{"method", "outcome"})

	gatewayDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_gateway_request_duration_seconds",
		Help:    "Provider call latency",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"method"})
)

// GatewayConfig configures the provider client.
type GatewayConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	RateBurst     int
	Breaker       httpclient.CircuitBreakerConfig
}

// Gateway issues signed GETs to the provider.
type Gateway struct {
	client  *httpclient.CircuitBreakerClient
	baseURL string
	timeout time.Duration
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewGateway builds a gateway with no automatic retry.
func NewGateway(cfg GatewayConfig, logger *slog.Logger) *Gateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker = httpclient.DefaultCircuitBreakerConfig("catalog")
	}

	hc := httpclient.DefaultConfig()
	hc.Timeout = cfg.Timeout
	hc.MaxRetries = 0
	hc.RatePerSecond = cfg.RatePerSecond
	hc.RateBurst = cfg.RateBurst

	return &Gateway{
		client:  httpclient.NewCircuitBreakerClient(httpclient.New(hc), cfg.Breaker, logger),
		baseURL: cfg.BaseURL,
		timeout: cfg.Timeout,
		logger:  logger,
		tracer:  tracing.Tracer("catalog"),
	}
}

// Call sends params and decodes the reply. A caller that goes away does not
// cancel the call. Non-2xx and network failures are *domain.TransportError;
// a 2xx body that is not a JSON object yields an empty response.
func (g *Gateway) Call(ctx context.Context, params url.Values) (RawResponse, error) {
	method := params.Get("method")
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
	defer cancel()

	ctx, span := g.tracer.Start(ctx, "catalog.call", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("catalog.method", method)))
	defer span.End()

	raw, outcome, err := g.do(ctx, params)

	gatewayRequests.WithLabelValues(method, outcome).Inc()
	gatewayDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		g.logger.WarnContext(ctx, "catalog call failed",
			slog.String("method", method),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return raw, nil
}

func (g *Gateway) do(ctx context.Context, params url.Values) (RawResponse, string, error) {
	resp, err := g.client.Get(ctx, g.baseURL+"?"+params.Encode())
	if err != nil {
		var se *httpclient.StatusError
		if errors.As(err, &se) {
			return nil, "http_error", &domain.TransportError{Status: se.StatusCode, Body: se.Body, Err: err}
		}
		if errors.Is(err, httpclient.ErrCircuitOpen) {
			return nil, "breaker_open", &domain.TransportError{Err: err}
		}
		return nil, "network_error", &domain.TransportError{Err: err}
	}

	if !httpclient.IsSuccess(resp.StatusCode) {
		se := httpclient.ReadStatusError(resp)
		return nil, "http_error", &domain.TransportError{Status: se.StatusCode, Body: se.Body, Err: se}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "network_error", &domain.TransportError{Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	raw, err := decodeRaw(body)
	if err != nil {
		g.logger.WarnContext(ctx, "catalog returned a non-object body", slog.String("error", err.Error()))
		return RawResponse{}, "malformed", nil
	}
	return raw, "ok", nil
}

// decodeRaw parses body as a JSON object, returning *domain.MalformedResponseError
// otherwise.
func decodeRaw(body []byte) (RawResponse, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &domain.MalformedResponseError{Snippet: snippet(body), Err: err}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &domain.MalformedResponseError{Snippet: snippet(body), Err: fmt.Errorf("top level is %T", v)}
	}
	return RawResponse(obj), nil
}

// DecodeRaw parses a stored body. Used for cached responses.
func DecodeRaw(body []byte) (RawResponse, error) {
	return decodeRaw(body)
}

func snippet(b []byte) string {
	const n = 200
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
