package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openeduhub/kidra/internal/domain"
	"github.com/openeduhub/kidra/internal/logger"
	"github.com/openeduhub/kidra/internal/metrics"
	"github.com/openeduhub/kidra/internal/utils"
)

const (
	contentTypeJSON = "application/json"
	contentTypeText = "text/plain; charset=utf-8"

	// maxResponseBytes caps what is buffered from a backend.
	maxResponseBytes = 64 << 20
)

// UsageRecorder is notified after every successful forward.
type UsageRecorder interface {
	RecordUse(ctx context.Context, service string) error
}

// Response is a successful backend answer.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Options configures a Client.
type Options struct {
	Timeout time.Duration    // per-request outbound timeout
	Metrics *metrics.Metrics // optional
	Usage   UsageRecorder    // optional
}

// Client relays request bodies to backend post addresses.
// It holds no per-request state and is safe for concurrent use.
type Client struct {
	http    *http.Client
	timeout time.Duration
	logger  logger.Logger
	metrics *metrics.Metrics
	usage   UsageRecorder
}

// New creates a forwarding client. httpClient may be nil.
func New(httpClient *http.Client, opts Options, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		http:    httpClient,
		timeout: opts.Timeout,
		logger:  log,
		metrics: opts.Metrics,
		usage:   opts.Usage,
	}
}

// Forward POSTs body to d.PostAddress() and returns the backend's answer.
// A non-2xx answer is returned as *BackendError, a transport failure wraps ErrBackendUnavailable.
func (c *Client) Forward(ctx context.Context, d domain.ServiceDescriptor, body []byte) (Response, error) {
	payload, contentType, err := adaptRequest(d, body)
	if err != nil {
		return Response{}, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.PostAddress(), bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("failed to build request for %s: %w", d.Name, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentTypeJSON)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveForward(d.Name, metrics.OutcomeUnavailable, time.Since(start))
		c.logger.Warn("backend unreachable",
			logger.String("service", d.Name),
			logger.String("address", d.PostAddress()),
			logger.Error(err))
		return Response{}, fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, d.Name, err)
	}
	defer utils.Close(resp.Body)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.metrics.ObserveForward(d.Name, metrics.OutcomeUnavailable, time.Since(start))
		return Response{}, fmt.Errorf("%w: %s: reading response: %v", ErrBackendUnavailable, d.Name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.ObserveForward(d.Name, metrics.OutcomeBackendError, time.Since(start))
		c.logger.Debug("backend returned error",
			logger.String("service", d.Name),
			logger.Int("status", resp.StatusCode))
		return Response{}, &BackendError{
			Service: d.Name,
			Status:  resp.StatusCode,
			Detail:  extractDetail(raw),
		}
	}

	c.metrics.ObserveForward(d.Name, metrics.OutcomeOK, time.Since(start))
	c.recordUse(ctx, d.Name)

	out := Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        applyDefaults(raw, d.ResponseDefaults),
	}
	if out.ContentType == "" {
		out.ContentType = contentTypeJSON
	}
	return out, nil
}

func (c *Client) recordUse(ctx context.Context, service string) {
	if c.usage == nil {
		return
	}
	// detached from the caller's cancellation
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := c.usage.RecordUse(ctx, service); err != nil {
		c.logger.Debug("failed to record usage",
			logger.String("service", service),
			logger.Error(err))
	}
}

// adaptRequest returns the outbound payload and its content type.
// Services with a RawTextField receive that field as plain text instead of JSON.
func adaptRequest(d domain.ServiceDescriptor, body []byte) ([]byte, string, error) {
	if d.RawTextField == "" {
		return body, contentTypeJSON, nil
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, "", fmt.Errorf("%w: %s expects a JSON object", ErrBadRequest, d.Name)
	}
	text, ok := fields[d.RawTextField].(string)
	if !ok {
		return nil, "", fmt.Errorf("%w: %s requires a string field %q", ErrBadRequest, d.Name, d.RawTextField)
	}
	return []byte(text), contentTypeText, nil
}

// applyDefaults sets missing keys of a JSON object body.
// Bodies that are not JSON objects, or already carry every key, are returned unchanged.
func applyDefaults(body []byte, defaults map[string]any) []byte {
	if len(defaults) == 0 {
		return body
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return body
	}

	changed := false
	for k, v := range defaults {
		if _, ok := obj[k]; !ok {
			obj[k] = v
			changed = true
		}
	}
	if !changed {
		return body
	}

	out, err := json.Marshal(obj)
	if err != nil {
		return body
	}
	return out
}

// extractDetail pulls the "detail" value out of a backend error body.
// Numbers are kept as json.Number so large integers survive the relay.
func extractDetail(body []byte) any {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.Decode(new(any)) != io.EOF {
		return strings.TrimSpace(string(body))
	}
	if obj, ok := v.(map[string]any); ok {
		if detail, ok := obj["detail"]; ok {
			return detail
		}
	}
	return v
}
