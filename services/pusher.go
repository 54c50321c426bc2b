package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"leadprep/models"
	"leadprep/storage"
	"leadprep/utils"
)

// DefaultPushTimeout bounds each webhook request.
const DefaultPushTimeout = 10 * time.Second

// ErrInvalidEndpoint is returned when the webhook URL is missing or not http(s).
var ErrInvalidEndpoint = errors.New("invalid webhook URL")

// HTTPDoer is the interface for executing HTTP requests. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is a webhook response outside the 2xx range.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("webhook returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// PusherOptions tune delivery. Zero values mean one request at a time,
// no spacing, DefaultPushTimeout and no ledger.
type PusherOptions struct {
	Timeout     time.Duration
	Concurrency int
	Interval    time.Duration
	Recorder    storage.PushRecorder
}

// Pusher posts each row of a cleaned file to a webhook.
type Pusher struct {
	store  storage.Store
	client HTTPDoer
	opts   PusherOptions
	logger *utils.Logger
}

// NewPusher creates a Pusher. A nil client uses http.DefaultClient; the
// per-request timeout is applied through the request context either way.
func NewPusher(store storage.Store, client HTTPDoer, opts PusherOptions, logger *utils.Logger) *Pusher {
	if client == nil {
		client = http.DefaultClient
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultPushTimeout
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Pusher{store: store, client: client, opts: opts, logger: logger}
}

// Push delivers every row of key to endpoint. A row that fails is recorded in
// the result and passed to onFailure (if non-nil), and the batch carries on.
// The error is non-nil only when the file cannot be read, the endpoint is
// invalid or ctx ends; the result is returned in the last case too.
func (p *Pusher) Push(ctx context.Context, key, endpoint string, onFailure func(models.PushFailure)) (*models.PushResult, error) {
	if err := validateEndpoint(endpoint); err != nil {
		return nil, err
	}

	table, err := p.store.Read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("push: %w", err)
	}

	res := &models.PushResult{
		RunID:     uuid.NewString(),
		Key:       key,
		Endpoint:  endpoint,
		StartedAt: time.Now(),
	}
	p.logger.Info("[push] %s: sending %d rows (run %s)", key, len(table.Records), res.RunID)

	var mu sync.Mutex
	pool := utils.NewWorkerPool(p.opts.Concurrency, p.opts.Interval)

	var submitErr error
	for i := range table.Records {
		if submitErr = ctx.Err(); submitErr != nil {
			break
		}
		row := table.RowMap(i)
		line := i + 2 // header is line 1

		submitErr = pool.Submit(ctx, func() {
			err := p.post(ctx, endpoint, row)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				res.Succeeded++
				return
			}
			f := models.PushFailure{Line: line, Row: row, Err: err}
			res.Failures = append(res.Failures, f)
			p.logger.Warn("[push] row %d (%s) failed: %v", line, row["Email"], err)
			if onFailure != nil {
				onFailure(f)
			}
		})
		if submitErr != nil {
			break
		}
		res.Attempted++
	}
	pool.Wait()

	sort.Slice(res.Failures, func(i, j int) bool { return res.Failures[i].Line < res.Failures[j].Line })
	res.Finished = time.Now()

	p.logger.Info("[push] %s: %d/%d rows pushed, %d failed in %v",
		key, res.Succeeded, res.Attempted, res.Failed(), res.Finished.Sub(res.StartedAt).Round(time.Millisecond))

	if p.opts.Recorder != nil {
		if err := p.opts.Recorder.Record(ctx, res); err != nil {
			p.logger.Error("[push] recording run %s: %v", res.RunID, err)
		}
	}

	if submitErr != nil {
		return res, fmt.Errorf("push: stopped after %d of %d rows: %w", res.Attempted, len(table.Records), submitErr)
	}
	return res, nil
}

// post sends one row and treats anything but a 2xx response as a failure.
func (p *Pusher) post(ctx context.Context, endpoint string, row map[string]string) error {
	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	return nil
}

func validateEndpoint(endpoint string) error {
	if strings.TrimSpace(endpoint) == "" {
		return fmt.Errorf("push: %w: empty", ErrInvalidEndpoint)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("push: %w: %v", ErrInvalidEndpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("push: %w: %q", ErrInvalidEndpoint, endpoint)
	}
	return nil
}
