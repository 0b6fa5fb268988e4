// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package discovery

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultUserAgent   = "hap-discovery/0.1"
	defaultMaxBodySize = 1 << 20
)

// StatusError is returned by Fetch when the server responds with a
// status other than 200 OK.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch failed with status: %d", e.StatusCode)
}

// fetchOptions holds the internal configuration for the Fetch function.
type fetchOptions struct {
	retries            int
	retryWaitMin       time.Duration
	retryWaitMax       time.Duration
	allowLocalhost     bool
	userAgent          string
	insecureSkipVerify bool
	maxBodySize        int64
}

// FetchOption configures a Fetch operation.
type FetchOption func(*fetchOptions)

// FetchOpt contains options for the Fetch function.
var FetchOpt fetchOptionBuilder

// fetchOptionBuilder is the internal builder for FetchOption functions.
type fetchOptionBuilder struct{}

// WithRetries sets the number of retries for HTTP requests.
func (fetchOptionBuilder) WithRetries(retries int) FetchOption {
	return func(opts *fetchOptions) {
		opts.retries = retries
	}
}

// WithRetryWait sets the minimum and maximum wait between retries.
func (fetchOptionBuilder) WithRetryWait(minWait, maxWait time.Duration) FetchOption {
	return func(opts *fetchOptions) {
		opts.retryWaitMin = minWait
		opts.retryWaitMax = maxWait
	}
}

// WithLocalhost allows HTTP connections to localhost addresses.
func (fetchOptionBuilder) WithLocalhost(allow bool) FetchOption {
	return func(opts *fetchOptions) {
		opts.allowLocalhost = allow
	}
}

// WithUserAgent sets the User-Agent header for HTTP requests.
func (fetchOptionBuilder) WithUserAgent(userAgent string) FetchOption {
	return func(opts *fetchOptions) {
		opts.userAgent = userAgent
	}
}

// WithInsecureSkipVerify skips TLS certificate verification (for testing).
func (fetchOptionBuilder) WithInsecureSkipVerify(skip bool) FetchOption {
	return func(opts *fetchOptions) {
		opts.insecureSkipVerify = skip
	}
}

// WithMaxBodySize limits the number of bytes read from the response body.
func (fetchOptionBuilder) WithMaxBodySize(size int64) FetchOption {
	return func(opts *fetchOptions) {
		opts.maxBodySize = size
	}
}

// Fetch performs an HTTP GET request for a JSON document.
// It enforces HTTPS unless connecting to localhost, retries on
// transient failures and rejects empty or oversized bodies.
func Fetch(ctx context.Context, rawURL string, opts ...FetchOption) ([]byte, error) {
	options := &fetchOptions{
		retries:        2,
		retryWaitMin:   2 * time.Second,
		retryWaitMax:   5 * time.Second,
		userAgent:      defaultUserAgent,
		allowLocalhost: true,
		maxBodySize:    defaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(options)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	isLocalhost := strings.EqualFold(parsedURL.Hostname(), "localhost") ||
		parsedURL.Hostname() == "127.0.0.1" ||
		parsedURL.Hostname() == "::1"

	if !strings.EqualFold(parsedURL.Scheme, "https") && (!isLocalhost || !options.allowLocalhost) {
		return nil, errors.New("HTTPS scheme is required")
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = options.retries
	retryClient.RetryWaitMin = options.retryWaitMin
	retryClient.RetryWaitMax = options.retryWaitMax
	retryClient.Logger = retryLogger{log: logr.FromContextOrDiscard(ctx)}

	transport := retryClient.HTTPClient.Transport
	if options.insecureSkipVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	retryClient.HTTPClient.Transport = otelhttp.NewTransport(transport)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", options.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := retryClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, options.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if len(body) == 0 {
		return nil, errors.New("response body is empty")
	}
	if int64(len(body)) > options.maxBodySize {
		return nil, fmt.Errorf("response body exceeds %d bytes", options.maxBodySize)
	}

	return body, nil
}

// retryLogger adapts logr to the retryablehttp leveled logger.
type retryLogger struct {
	log logr.Logger
}

func (l retryLogger) Error(msg string, keysAndValues ...any) {
	l.log.Error(nil, msg, keysAndValues...)
}

func (l retryLogger) Warn(msg string, keysAndValues ...any) {
	l.log.Info(msg, keysAndValues...)
}

func (l retryLogger) Info(msg string, keysAndValues ...any) {
	l.log.V(1).Info(msg, keysAndValues...)
}

func (l retryLogger) Debug(msg string, keysAndValues ...any) {
	l.log.V(2).Info(msg, keysAndValues...)
}
