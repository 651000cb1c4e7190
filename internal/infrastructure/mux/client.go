package mux

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"muxlive/internal/core/domain"
	"muxlive/pkg/tracing"
	"muxlive/pkg/validation"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const (
	opCreate = "create_live_stream"
	opGet    = "get_live_stream"

	liveStreamsPath = "/video/v1/live-streams"
	maxErrorBody    = 64 * 1024
)

// Observer receives the outcome of every remote call.
type Observer interface {
	ObserveRemoteCall(operation string, duration time.Duration, err error)
}

type Config struct {
	BaseURL        string
	IngestURL      string
	TokenID        string
	TokenSecret    string
	RequestTimeout time.Duration
	RetryMax       int
	RetryWaitMin   time.Duration
	RetryWaitMax   time.Duration
}

// retryLogger adapts zap to retryablehttp.LeveledLogger.
type retryLogger struct {
	log *zap.SugaredLogger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, keysAndValues...)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warnw(msg, keysAndValues...)
}

// Client is a minimal Mux Video API client covering live streams.
type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string
	ingestURL  string
	tokenID    string
	secret     string
	observer   Observer
	logger     *zap.SugaredLogger
}

func NewClient(cfg Config, observer Observer, logger *zap.SugaredLogger) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.RequestTimeout
	retryClient.RetryMax = cfg.RetryMax
	if cfg.RetryWaitMin > 0 {
		retryClient.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		retryClient.RetryWaitMax = cfg.RetryWaitMax
	}
	retryClient.Logger = retryLogger{log: logger.Named("mux.http")}
	// Hand the last response back so the platform's error body can be decoded.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		httpClient: retryClient,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		ingestURL:  cfg.IngestURL,
		tokenID:    cfg.TokenID,
		secret:     cfg.TokenSecret,
		observer:   observer,
		logger:     logger,
	}
}

func (c *Client) CreateLiveStream(ctx context.Context, params domain.CreateParams) (*domain.LiveStream, error) {
	ctx, span := tracing.TraceRemoteCall(ctx, opCreate, "")
	defer span.End()

	var env liveStreamEnvelope
	err := c.observe(opCreate, func() error {
		return c.do(ctx, http.MethodPost, liveStreamsPath, newCreateRequest(params), &env)
	})
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("create live stream: %w", err)
	}

	ls := env.Data.toDomain(c.ingestURL)
	span.SetAttributes(tracing.StreamIDKey.String(string(ls.ID)), tracing.StatusKey.String(string(ls.Status)))
	return ls, nil
}

func (c *Client) GetLiveStream(ctx context.Context, id domain.LiveStreamID) (*domain.LiveStream, error) {
	if err := validation.ValidateLiveStreamID(string(id)); err != nil {
		return nil, fmt.Errorf("get live stream %q: %w: %s", id, domain.ErrInvalidStreamID, err)
	}

	ctx, span := tracing.TraceRemoteCall(ctx, opGet, string(id))
	defer span.End()

	var env liveStreamEnvelope
	err := c.observe(opGet, func() error {
		return c.do(ctx, http.MethodGet, liveStreamsPath+"/"+url.PathEscape(string(id)), nil, &env)
	})
	if err != nil {
		tracing.RecordError(ctx, err)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("get live stream %s: %w: %w", id, domain.ErrStreamNotFound, err)
		}
		return nil, fmt.Errorf("get live stream %s: %w", id, err)
	}

	ls := env.Data.toDomain(c.ingestURL)
	span.SetAttributes(tracing.StatusKey.String(string(ls.Status)))
	return ls, nil
}

func (c *Client) observe(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	if c.observer != nil {
		c.observer.ObserveRemoteCall(op, time.Since(start), err)
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload interface{}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.tokenID, c.secret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err == nil {
		apiErr.Type = env.Error.Type
		apiErr.Messages = env.Error.Messages
	}
	return apiErr
}
