package pen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/GriffinCanCode/PenBox/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/PenBox/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// RemoteConfig configures the remote record API store
type RemoteConfig struct {
	BaseURL string
	Token   string
	Table   string
	Timeout time.Duration

	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// DefaultRemoteConfig returns retry and timeout defaults for baseURL
func DefaultRemoteConfig(baseURL string) RemoteConfig {
	return RemoteConfig{
		BaseURL:      baseURL,
		Table:        "pens",
		Timeout:      10 * time.Second,
		RetryMax:     3,
		RetryWaitMin: 200 * time.Millisecond,
		RetryWaitMax: 5 * time.Second,
	}
}

type recordList struct {
	Records []*Pen `json:"records"`
}

type recordOne struct {
	Record *Pen `json:"record"`
}

// RemoteRepository stores pens in a hosted table behind a REST record API:
//
//	GET    {base}/tables/{table}/records
//	POST   {base}/tables/{table}/records
//	GET    {base}/tables/{table}/records/{id}
//	PUT    {base}/tables/{table}/records/{id}
//	DELETE {base}/tables/{table}/records/{id}
//
// Transient failures are retried by the transport; repeated failures open
// the circuit breaker so callers fail fast with ErrUnavailable.
type RemoteRepository struct {
	client  *resty.Client
	breaker *resilience.Breaker
	table   string
	logger  *zap.Logger
}

// NewRemoteRepository creates a remote store client
func NewRemoteRepository(cfg RemoteConfig, logger *zap.Logger) *RemoteRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Table == "" {
		cfg.Table = "pens"
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = nil

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "PenBox-Store/1.0").
		SetTransport(retryClient.StandardClient().Transport)
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	breaker := resilience.New("pen-store", resilience.Settings{
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalid)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &RemoteRepository{client: client, breaker: breaker, table: cfg.Table, logger: logger}
}

// Breaker exposes the circuit breaker for status reporting
func (r *RemoteRepository) Breaker() *resilience.Breaker {
	return r.breaker
}

// List returns all pens in the table
func (r *RemoteRepository) List(ctx context.Context) ([]*Pen, error) {
	var out recordList
	if err := r.do(ctx, http.MethodGet, r.collection(), nil, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// Get returns one pen
func (r *RemoteRepository) Get(ctx context.Context, penID id.PenID) (*Pen, error) {
	var out recordOne
	if err := r.do(ctx, http.MethodGet, r.record(penID), nil, &out); err != nil {
		return nil, err
	}
	if out.Record == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, penID)
	}
	return out.Record, nil
}

// Insert creates a record
func (r *RemoteRepository) Insert(ctx context.Context, p *Pen) error {
	return r.do(ctx, http.MethodPost, r.collection(), recordOne{Record: p}, nil)
}

// Update fetches the record, applies fn and writes it back. The record API
// has no transactions, so concurrent writers to one pen may lose updates.
func (r *RemoteRepository) Update(ctx context.Context, penID id.PenID, fn func(*Pen)) (*Pen, error) {
	p, err := r.Get(ctx, penID)
	if err != nil {
		return nil, err
	}
	fn(p)
	p.ID = penID

	if err := r.do(ctx, http.MethodPut, r.record(penID), recordOne{Record: p}, nil); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a record
func (r *RemoteRepository) Delete(ctx context.Context, penID id.PenID) error {
	return r.do(ctx, http.MethodDelete, r.record(penID), nil, nil)
}

// Close is a no-op; the HTTP transport keeps no session state
func (r *RemoteRepository) Close() error {
	return nil
}

func (r *RemoteRepository) collection() string {
	return "/tables/" + r.table + "/records"
}

func (r *RemoteRepository) record(penID id.PenID) string {
	return r.collection() + "/" + string(penID)
}

// do performs one request through the breaker and decodes the body into out
func (r *RemoteRepository) do(ctx context.Context, method, path string, body, out any) error {
	_, err := resilience.Execute(r.breaker, func() (struct{}, error) {
		req := r.client.R().SetContext(ctx)
		tracing.Inject(ctx, req.Header)

		if body != nil {
			data, err := sonic.Marshal(body)
			if err != nil {
				return struct{}{}, fmt.Errorf("%w: encode record: %v", ErrInvalid, err)
			}
			req.SetHeader("Content-Type", "application/json").SetBody(data)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			return struct{}{}, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
		}

		switch status := resp.StatusCode(); {
		case status == http.StatusNotFound:
			return struct{}{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		case status == http.StatusBadRequest || status == http.StatusConflict || status == http.StatusUnprocessableEntity:
			return struct{}{}, fmt.Errorf("%w: remote rejected record: %s", ErrInvalid, resp.String())
		case resp.IsError():
			return struct{}{}, fmt.Errorf("%w: %s %s: status %d", ErrUnavailable, method, path, status)
		}

		if out != nil && len(resp.Body()) > 0 {
			if err := sonic.Unmarshal(resp.Body(), out); err != nil {
				return struct{}{}, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, path, err)
			}
		}
		return struct{}{}, nil
	})

	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		r.logger.Debug("pen store request rejected", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
