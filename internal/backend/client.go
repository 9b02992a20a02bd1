// Package backend executes HTTP calls against the wrapped media services
// through one generic, retrying client parametrized by a per-backend
// Descriptor.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Client is the shared request executor for one backend. It injects the
// auth credential, enforces the per-attempt timeout, retries transient
// failures with exponential backoff, and classifies every failure into the
// error taxonomy. Connections are pooled per backend; the pool is the only
// shared state and the transport synchronizes it internally, so a Client is
// safe for concurrent use.
type Client struct {
	desc       Descriptor
	httpClient *http.Client
}

// NewClient builds a client for one backend descriptor, filling in defaults
// for the auth header, status path, timeout, and retry policy.
func NewClient(desc Descriptor) *Client {
	if desc.AuthHeader == "" {
		desc.AuthHeader = "X-Api-Key"
	}
	if desc.StatusPath == "" {
		desc.StatusPath = "/system/status"
	}
	if desc.Timeout <= 0 {
		desc.Timeout = 30 * time.Second
	}
	desc.Retry = desc.Retry.withDefaults()

	return &Client{
		desc: desc,
		httpClient: &http.Client{
			Timeout: desc.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Name returns the descriptor name.
func (c *Client) Name() string {
	return c.desc.Name
}

// URL returns the backend's base address including the API prefix.
func (c *Client) URL() string {
	return strings.TrimRight(c.desc.BaseURL, "/") + c.desc.Prefix
}

// Do executes the request, retrying transport failures and retryable
// statuses per the descriptor's policy. It returns either a Response or
// exactly one *Error describing the last failure and the attempts made.
// Retries are strictly sequential; cancelling ctx halts them immediately.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	policy := c.desc.Retry

	var bodyData []byte
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Message: fmt.Sprintf("encode request body: %v", err)}
		}
		bodyData = data
	}

	var lastErr *Error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		status, header, body, err := c.roundTrip(ctx, req, bodyData)

		if err == nil && status < 400 {
			return &Response{
				Status:   status,
				Body:     body,
				Elapsed:  time.Since(start),
				Attempts: attempt,
			}, nil
		}

		if err != nil {
			lastErr = &Error{Kind: KindNetwork, Message: err.Error(), Attempts: attempt}
			if ctx.Err() != nil {
				return nil, lastErr
			}
		} else {
			lastErr = &Error{
				Kind:     classifyStatus(status),
				Message:  errorMessage(status, body),
				Status:   status,
				Attempts: attempt,
			}
			if !policy.retryable(status) {
				return nil, lastErr
			}
		}

		if attempt == policy.MaxAttempts {
			break
		}

		delay := policy.Delay(attempt)
		if policy.JitterBound > 0 {
			delay += rand.N(policy.JitterBound)
		}
		if header != nil {
			if hint, ok := retryAfterDelay(header); ok {
				delay = hint
			}
		}
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}

		if c.desc.Debug {
			fmt.Fprintf(os.Stderr, "[backend] %s attempt %d/%d failed (%s), retrying in %s\n",
				c.desc.Name, attempt, policy.MaxAttempts, lastErr.Kind, delay)
		}

		select {
		case <-ctx.Done():
			return nil, &Error{
				Kind:     KindNetwork,
				Message:  fmt.Sprintf("cancelled while waiting to retry: %v", ctx.Err()),
				Attempts: attempt,
			}
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}

// roundTrip performs one attempt. The response body is always read to the
// end and closed so the underlying connection returns to the pool clean.
func (c *Client) roundTrip(ctx context.Context, req Request, bodyData []byte) (int, http.Header, []byte, error) {
	var reader io.Reader
	if bodyData != nil {
		reader = bytes.NewReader(bodyData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.requestURL(req), reader)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("create request: %w", err)
	}

	if c.desc.AuthQuery == "" && c.desc.APIKey != "" {
		httpReq.Header.Set(c.desc.AuthHeader, c.desc.APIKey)
	}
	if bodyData != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	if c.desc.Debug {
		fmt.Fprintf(os.Stderr, "[backend] %s %s %s\n", c.desc.Name, req.Method, httpReq.URL.Path)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, resp.Header, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, resp.Header, body, nil
}

// requestURL joins base, prefix, path, and query, appending the credential
// as a query parameter for backends that authenticate that way. The
// caller's query values are never mutated.
func (c *Client) requestURL(req Request) string {
	full := strings.TrimRight(c.desc.BaseURL, "/") + c.desc.Prefix + req.Path

	query := req.Query
	if c.desc.AuthQuery != "" && c.desc.APIKey != "" {
		clone := url.Values{}
		for k, vs := range query {
			clone[k] = append([]string(nil), vs...)
		}
		clone.Set(c.desc.AuthQuery, c.desc.APIKey)
		query = clone
	}
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}

// retryAfterDelay reads a Retry-After hint, either delta-seconds or an
// HTTP-date. When present it is preferred over the computed backoff.
func retryAfterDelay(h http.Header) (time.Duration, bool) {
	v := h.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d, true
		}
		return 0, true
	}
	return 0, false
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

// TestConnection probes the backend's status endpoint.
func (c *Client) TestConnection(ctx context.Context) (*Response, error) {
	return c.Get(ctx, c.desc.StatusPath, nil)
}
