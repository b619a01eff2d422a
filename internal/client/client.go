package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/yasakei/xos/internal/infrastructure/resilience"
	"github.com/yasakei/xos/internal/infrastructure/tracing"
)

// Config configures a Client
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Logger       *zap.Logger
}

// DefaultConfig returns the client defaults for baseURL
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:      baseURL,
		Timeout:      30 * time.Second,
		RetryMax:     3,
		RetryWaitMin: 200 * time.Millisecond,
		RetryWaitMax: 5 * time.Second,
	}
}

// Client talks to a running VFS server
type Client struct {
	resty   *resty.Client
	breaker *resilience.Breaker
	baseURL string
	logger  *zap.Logger
}

type retryableKey struct{}

// New creates a client. Only GET requests are retried; mutations are sent
// once so a retry can never repeat a rename or create.
func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("client")

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = leveledLogger{logger.Sugar()}
	retryClient.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if retryable, _ := ctx.Value(retryableKey{}).(bool); !retryable {
			return false, nil
		}
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	rc := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "xos-vfsctl/1.0").
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	breaker := resilience.New("vfs-api", resilience.Settings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsClientError(err)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{resty: rc, breaker: breaker, baseURL: cfg.BaseURL, logger: logger}
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// request describes one API call
type request struct {
	method string
	path   string
	query  map[string]string
	body   any
	result any
}

// do sends r through the breaker. Non-2xx answers become *APIError.
func (c *Client) do(ctx context.Context, r request) (*resty.Response, error) {
	if r.method == http.MethodGet {
		ctx = context.WithValue(ctx, retryableKey{}, true)
	}

	var resp *resty.Response
	err := c.breaker.Do(func() error {
		req := c.resty.R().SetContext(ctx)
		if traceID := tracing.GetTraceID(ctx); traceID != "" {
			req.SetHeader(tracing.TraceHeader, string(traceID))
		}
		if r.query != nil {
			req.SetQueryParams(r.query)
		}
		if r.body != nil {
			req.SetHeader("Content-Type", "application/json").SetBody(r.body)
		}

		res, err := req.Execute(r.method, r.path)
		if err != nil {
			return fmt.Errorf("%s %s: %w", r.method, r.path, err)
		}
		resp = res

		if res.IsError() {
			return newAPIError(res)
		}
		if r.result != nil && len(res.Body()) > 0 {
			if err := sonic.Unmarshal(res.Body(), r.result); err != nil {
				return fmt.Errorf("%s %s: decode response: %w", r.method, r.path, err)
			}
		}
		return nil
	})

	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return nil, fmt.Errorf("server unavailable: %w", err)
	}
	return resp, err
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
