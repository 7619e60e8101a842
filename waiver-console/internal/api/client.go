// Package api is the HTTP boundary to the knowledge backend. Every response
// passes a narrow structural check here before it reaches the rest of the
// console; anything that fails it comes back as ErrMalformed.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const maxErrorBody = 512

var (
	backendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Total number of requests sent to the knowledge backend",
		},
		[]string{"endpoint", "status"},
	)
	backendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "backend_request_duration_seconds",
			Help: "Duration of requests sent to the knowledge backend",
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(backendRequestsTotal)
	prometheus.MustRegister(backendRequestDuration)
}

// DocumentCache holds the last document listing payload.
type DocumentCache interface {
	Get(ctx context.Context) ([]byte, bool)
	Set(ctx context.Context, payload []byte)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	// MediaURL is where uploaded files are served from. Defaults to
	// BaseURL + "/media".
	MediaURL string
	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
	Documents  DocumentCache
}

// Client talks to the backend's ask, explain, upload and documents endpoints.
type Client struct {
	baseURL  string
	mediaURL string
	http     *http.Client
	logger   *zap.Logger
	validate *validator.Validate
	docs     DocumentCache
}

// New builds a Client from cfg.
func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	media := strings.TrimRight(cfg.MediaURL, "/")
	if media == "" {
		media = base + "/media"
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  base,
		mediaURL: media,
		http:     hc,
		logger:   logger.Named("api"),
		validate: validator.New(),
		docs:     cfg.Documents,
	}
}

type requestIDKey struct{}

// WithRequestID attaches a correlation id that is sent as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Ask runs a query in execute mode.
func (c *Client) Ask(ctx context.Context, query string, f Filters) (*AskResult, error) {
	body, err := c.postQuery(ctx, "ask", query, f)
	if err != nil {
		return nil, err
	}
	var env askEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decoding ask response: %v", ErrMalformed, err)
	}
	if err := c.validate.Struct(env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	sources := env.Sources
	if sources == nil {
		sources = []Source{}
	}
	return &AskResult{Answer: *env.Answer, Sources: sources, Graph: env.Graph}, nil
}

// Explain runs a query in explain mode and returns the backend's plan.
func (c *Client) Explain(ctx context.Context, query string, f Filters) (*Plan, error) {
	body, err := c.postQuery(ctx, "explain", query, f)
	if err != nil {
		return nil, err
	}
	return decodePlan(body)
}

// decodePlan accepts {"plan": ...}, {"execution_plan": ...} or a bare plan.
func decodePlan(body []byte) (*Plan, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: explain response is not JSON", ErrMalformed)
	}
	v := gjson.ParseBytes(body)
	if v.IsObject() {
		var wrapped gjson.Result
		for _, key := range []string{"plan", "execution_plan"} {
			inner := v.Get(key)
			if !inner.Exists() {
				continue
			}
			wrapped = inner
			if inner.Type != gjson.Null {
				break
			}
		}
		if wrapped.Exists() {
			v = wrapped
		}
	}
	if !v.Exists() || v.Type == gjson.Null {
		return nil, fmt.Errorf("%w: explain response has no plan", ErrMalformed)
	}

	plan := &Plan{Raw: json.RawMessage(v.Raw)}
	if v.IsArray() {
		plan.Steps = []string{}
		v.ForEach(func(_, step gjson.Result) bool {
			if step.Type == gjson.String {
				plan.Steps = append(plan.Steps, step.Str)
				return true
			}
			var buf bytes.Buffer
			if err := json.Compact(&buf, []byte(step.Raw)); err != nil {
				plan.Steps = append(plan.Steps, step.Raw)
				return true
			}
			plan.Steps = append(plan.Steps, buf.String())
			return true
		})
	}
	return plan, nil
}

func (c *Client) postQuery(ctx context.Context, endpoint, query string, f Filters) ([]byte, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidRequest)
	}
	if err := c.validate.Struct(f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	req := queryRequest{Query: query}
	if !f.IsZero() {
		req.Filters = &f
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", ErrInvalidRequest, err)
	}
	return c.do(ctx, endpoint, http.MethodPost, "/api/"+endpoint+"/", bytes.NewReader(payload), "application/json")
}

// do sends one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, endpoint, method, path string, body io.Reader, contentType string) ([]byte, error) {
	start := time.Now()
	defer func() {
		backendRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		backendRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("%w: creating request: %v", ErrInvalidRequest, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if id := requestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		backendRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		backendRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("%w: reading response: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		backendRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		text := strings.TrimSpace(string(data))
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: text}
	}

	backendRequestsTotal.WithLabelValues(endpoint, "success").Inc()
	c.logger.Debug("backend call",
		zap.String("endpoint", endpoint),
		zap.String("request_id", requestID(ctx)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)
	return data, nil
}
