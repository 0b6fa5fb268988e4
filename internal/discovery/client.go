// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package discovery

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fluxcd/pkg/cache"
	"github.com/go-logr/logr"
	"golang.org/x/sync/singleflight"

	"github.com/controlplaneio-fluxcd/hap/pkg/hap"
)

const (
	defaultCacheSize          = 100
	defaultCacheTTL           = 15 * time.Minute
	defaultFetchTimeout       = 30 * time.Second
	defaultMinRefreshInterval = time.Minute
)

// Client fetches issuer documents. Key documents are cached per issuer.
// A Client is safe for concurrent use.
type Client struct {
	documents    *cache.LRU[*cachedDocument]
	ttl          time.Duration
	minRefresh   time.Duration
	fetchTimeout time.Duration
	scheme       string
	fetchOpts    []FetchOption
	group        singleflight.Group
	now          func() time.Time
}

// cachedDocument holds a key document along
// with the timestamp it was cached at.
type cachedDocument struct {
	doc       *hap.KeyDocument
	timestamp time.Time
}

// clientOptions holds the internal configuration for NewClient.
type clientOptions struct {
	cacheSize    int
	cacheTTL     time.Duration
	minRefresh   time.Duration
	fetchTimeout time.Duration
	plainHTTP    bool
	fetchOpts    []FetchOption
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

// ClientOpt contains options for NewClient.
var ClientOpt clientOptionBuilder

// clientOptionBuilder is the internal builder for ClientOption functions.
type clientOptionBuilder struct{}

// WithCacheSize sets the maximum number of issuers kept in the key document cache.
func (clientOptionBuilder) WithCacheSize(size int) ClientOption {
	return func(opts *clientOptions) {
		opts.cacheSize = size
	}
}

// WithCacheTTL sets how long a key document is served from the cache.
// A zero TTL disables caching.
func (clientOptionBuilder) WithCacheTTL(ttl time.Duration) ClientOption {
	return func(opts *clientOptions) {
		opts.cacheTTL = ttl
	}
}

// WithMinRefreshInterval sets how old a cached key document must be
// before Invalidate discards it.
func (clientOptionBuilder) WithMinRefreshInterval(d time.Duration) ClientOption {
	return func(opts *clientOptions) {
		opts.minRefresh = d
	}
}

// WithFetchTimeout bounds a key document fetch shared by concurrent callers.
func (clientOptionBuilder) WithFetchTimeout(timeout time.Duration) ClientOption {
	return func(opts *clientOptions) {
		opts.fetchTimeout = timeout
	}
}

// WithPlainHTTP builds http:// URLs instead of https://.
// Fetch only accepts them for localhost issuers.
func (clientOptionBuilder) WithPlainHTTP(plain bool) ClientOption {
	return func(opts *clientOptions) {
		opts.plainHTTP = plain
	}
}

// WithFetchOptions sets the options passed to every Fetch call.
func (clientOptionBuilder) WithFetchOptions(fetchOpts ...FetchOption) ClientOption {
	return func(opts *clientOptions) {
		opts.fetchOpts = append(opts.fetchOpts, fetchOpts...)
	}
}

// NewClient returns a Client configured with the given options.
func NewClient(opts ...ClientOption) (*Client, error) {
	o := &clientOptions{
		cacheSize:    defaultCacheSize,
		cacheTTL:     defaultCacheTTL,
		minRefresh:   defaultMinRefreshInterval,
		fetchTimeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}

	documents, err := cache.NewLRU[*cachedDocument](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create key document cache: %w", err)
	}

	scheme := "https"
	if o.plainHTTP {
		scheme = "http"
	}

	return &Client{
		documents:    documents,
		ttl:          o.cacheTTL,
		minRefresh:   o.minRefresh,
		fetchTimeout: o.fetchTimeout,
		scheme:       scheme,
		fetchOpts:    o.fetchOpts,
		now:          time.Now,
	}, nil
}

// KeyDocumentURL returns the well-known URL of the issuer's key document.
func (c *Client) KeyDocumentURL(issuer string) (string, error) {
	host, err := normalizeIssuer(issuer)
	if err != nil {
		return "", err
	}
	return c.scheme + "://" + host + hap.WellKnownPath, nil
}

// VerificationURL returns the issuer's verification endpoint for the claim ID.
func (c *Client) VerificationURL(issuer, id string) (string, error) {
	host, err := normalizeIssuer(issuer)
	if err != nil {
		return "", err
	}
	if !hap.IsValidID(id) && !hap.IsTestID(id) {
		return "", hap.InvalidClaimError(hap.ErrClaimIDInvalid)
	}
	return c.scheme + "://" + host + hap.VerifyPath + id, nil
}

// KeyDocument returns the issuer's key document from the cache or
// fetches it. Concurrent calls for the same issuer share one request,
// which is not bound to the context of any single caller.
func (c *Client) KeyDocument(ctx context.Context, issuer string) (*hap.KeyDocument, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("issuer", issuer)

	key, err := normalizeIssuer(issuer)
	if err != nil {
		return nil, err
	}

	// Cache-aside with a TTL check on the stored timestamp.
	if cached, err := c.documents.Get(key); err == nil && c.now().Sub(cached.timestamp) < c.ttl {
		log.V(1).Info("key document served from cache", "keys", len(cached.doc.Keys))
		return cached.doc, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		return c.fetchKeyDocument(fetchCtx, key)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to fetch key document for %s: %w", key, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		doc := res.Val.(*hap.KeyDocument)
		log.V(1).Info("key document fetched", "keys", len(doc.Keys), "shared", res.Shared)
		return doc, nil
	}
}

// PublicKeys returns the issuer's Ed25519 keys in published order.
func (c *Client) PublicKeys(ctx context.Context, issuer string) ([]hap.PublicKey, error) {
	doc, err := c.KeyDocument(ctx, issuer)
	if err != nil {
		return nil, err
	}
	return doc.PublicKeys()
}

// Invalidate marks the cached key document of the issuer as stale so
// that the next lookup fetches it again. Documents cached for less than
// the minimum refresh interval are kept, and Invalidate returns false.
func (c *Client) Invalidate(issuer string) bool {
	key, err := normalizeIssuer(issuer)
	if err != nil {
		return false
	}
	if cached, err := c.documents.Get(key); err == nil && cached.doc != nil &&
		c.now().Sub(cached.timestamp) < c.minRefresh {
		return false
	}
	_ = c.documents.Set(key, &cachedDocument{}) // Set() does not return errors.
	return true
}

// Verification fetches the issuer's verification response for the claim ID.
// Responses are never cached since they carry the revocation state.
func (c *Client) Verification(ctx context.Context, issuer, id string) (*hap.VerificationResponse, error) {
	rawURL, err := c.VerificationURL(issuer, id)
	if err != nil {
		return nil, err
	}

	logr.FromContextOrDiscard(ctx).V(1).Info("fetching verification response", "url", rawURL)

	data, err := Fetch(ctx, rawURL, c.fetchOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch verification response for %s: %w", id, err)
	}

	if err := ValidateVerificationResponse(data); err != nil {
		return nil, err
	}

	resp, err := hap.ParseVerificationResponse(data)
	if err != nil {
		return nil, err
	}

	if resp.Issuer != "" && !strings.EqualFold(resp.Issuer, issuer) {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrIssuerMismatch, resp.Issuer, issuer)
	}
	return resp, nil
}

func (c *Client) fetchKeyDocument(ctx context.Context, issuer string) (*hap.KeyDocument, error) {
	rawURL := c.scheme + "://" + issuer + hap.WellKnownPath

	logr.FromContextOrDiscard(ctx).V(1).Info("fetching key document", "url", rawURL)

	data, err := Fetch(ctx, rawURL, c.fetchOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch key document for %s: %w", issuer, err)
	}

	if err := ValidateKeyDocument(data); err != nil {
		return nil, err
	}

	doc, err := hap.ParseKeyDocument(data)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(doc.Issuer, issuer) {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrIssuerMismatch, doc.Issuer, issuer)
	}

	_ = c.documents.Set(issuer, &cachedDocument{doc: doc, timestamp: c.now()}) // Set() does not return errors.
	return doc, nil
}

// normalizeIssuer checks that the issuer is a bare host with an
// optional port and returns it in lower case.
func normalizeIssuer(issuer string) (string, error) {
	if issuer == "" || strings.ContainsAny(issuer, "/?#@ \\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidIssuer, issuer)
	}

	u, err := url.Parse("https://" + issuer)
	if err != nil || u.Host != issuer || u.Hostname() == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidIssuer, issuer)
	}
	return strings.ToLower(issuer), nil
}
