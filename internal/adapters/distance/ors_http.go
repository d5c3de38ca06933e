package distance

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
	"strconv"
	"strings"
	"time"
)

const (
	defaultORSBaseURL = "https://api.openrouteservice.org"
	orsProfile        = "driving-hgv"
	metersPerMile     = 1609.344
	orsMaxAttempts    = 4
	orsMaxRetryAfter  = 5 * time.Second
)

// orsStatusError is a non-2xx answer from OpenRouteService.
type orsStatusError struct {
	Code       int
	Body       string
	retryAfter time.Duration
}

func (e *orsStatusError) Error() string {
	return fmt.Sprintf("openrouteservice answered %d: %s", e.Code, e.Body)
}

func (e *orsStatusError) transient() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// orsClient signs, sends and retries calls for the truck-profile oracle and
// the geocoder.
type orsClient struct {
	http    *http.Client
	apiKey  string
	baseURL string
	backoff time.Duration
}

func newORSClient(apiKey, baseURL string) (*orsClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openrouteservice: api key is empty")
	}
	if baseURL == "" {
		baseURL = defaultORSBaseURL
	}
	return &orsClient{
		http:    &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		backoff: 200 * time.Millisecond,
	}, nil
}

// postJSON sends in as the body of a POST to path and decodes the answer into out.
func (o *orsClient) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("ors %s: encode body: %w", path, err)
	}
	return o.call(ctx, http.MethodPost, path, nil, payload, out)
}

// getJSON issues a GET with the given query and decodes the answer into out.
func (o *orsClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return o.call(ctx, http.MethodGet, path, query, nil, out)
}

// call retries network failures, 429 and 5xx with doubling backoff. A
// Retry-After header overrides the backoff when it is short enough to wait on.
func (o *orsClient) call(ctx context.Context, method, path string, query url.Values, payload []byte, out any) error {
	target := o.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	wait := o.backoff
	var err error
	for attempt := 1; attempt <= orsMaxAttempts; attempt++ {
		var resp *http.Response
		resp, err = o.send(ctx, method, target, payload)
		if err == nil {
			defer resp.Body.Close()
			if derr := json.NewDecoder(resp.Body).Decode(out); derr != nil {
				return fmt.Errorf("ors %s: decode answer: %w", path, derr)
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		pause, retry := o.retryable(err, wait)
		if !retry || attempt == orsMaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
		wait *= 2
	}
	return fmt.Errorf("ors %s %s: %w", method, path, err)
}

func (o *orsClient) retryable(err error, wait time.Duration) (time.Duration, bool) {
	var se *orsStatusError
	if errors.As(err, &se) {
		if !se.transient() {
			return 0, false
		}
		if se.retryAfter > 0 && se.retryAfter <= orsMaxRetryAfter {
			return se.retryAfter, true
		}
		return wait, true
	}
	var ne net.Error
	return wait, errors.As(err, &ne)
}

func (o *orsClient) send(ctx context.Context, method, target string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json, application/geo+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := o.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusBadRequest {
		return resp, nil
	}
	defer resp.Body.Close()
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	se := &orsStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(detail))}
	if secs, perr := strconv.Atoi(resp.Header.Get("Retry-After")); perr == nil && secs >= 0 {
		se.retryAfter = time.Duration(secs) * time.Second
	}
	return nil, se
}
