// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/controlplaneio-fluxcd/hap/pkg/hap"
)

type testIssuer struct {
	server     *httptest.Server
	host       string
	privateKey *hap.PrivateKey
	publicKey  *hap.PublicKey
	docCalls   atomic.Int32
	docDelay   atomic.Int64

	mu        sync.Mutex
	responses map[string]any
}

func newTestIssuer(t *testing.T) *testIssuer {
	t.Helper()
	ti := &testIssuer{responses: map[string]any{}}

	ti.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == hap.WellKnownPath:
			ti.docCalls.Add(1)
			time.Sleep(time.Duration(ti.docDelay.Load()))
			doc := hap.NewKeyDocument(ti.host)
			_ = doc.AddKey(ti.publicKey)
			doc.VA = json.RawMessage(`{"name":"Test VA","methods":["physical_mail"]}`)
			_ = json.NewEncoder(w).Encode(doc)
		case strings.HasPrefix(r.URL.Path, hap.VerifyPath):
			id := strings.TrimPrefix(r.URL.Path, hap.VerifyPath)
			ti.mu.Lock()
			resp, ok := ti.responses[id]
			ti.mu.Unlock()
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"valid":false,"error":"not found"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ti.server.Close)

	ti.host = strings.TrimPrefix(ti.server.URL, "http://")

	var err error
	ti.privateKey, ti.publicKey, err = hap.GenerateKeyPair(ti.host, "test-key")
	if err != nil {
		t.Fatal(err)
	}
	return ti
}

func (ti *testIssuer) setResponse(id string, resp any) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	ti.responses[id] = resp
}

func newTestClient(t *testing.T, opts ...ClientOption) *Client {
	t.Helper()

	opts = append([]ClientOption{
		ClientOpt.WithPlainHTTP(true),
		ClientOpt.WithFetchOptions(FetchOpt.WithRetries(0)),
	}, opts...)
	c, err := NewClient(opts...)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestClient_KeyDocument(t *testing.T) {
	t.Run("fetches and caches the document", func(t *testing.T) {
		g := NewWithT(t)
		ti := newTestIssuer(t)
		c := newTestClient(t)

		doc, err := c.KeyDocument(context.TODO(), ti.host)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(doc.Issuer).To(Equal(ti.host))
		g.Expect(doc.Keys).To(HaveLen(1))
		g.Expect(string(doc.VA)).To(ContainSubstring("Test VA"))

		keys, err := c.PublicKeys(context.TODO(), ti.host)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(keys).To(HaveLen(1))
		g.Expect(keys[0].Key).To(Equal(ti.publicKey.Key))
		g.Expect(ti.docCalls.Load()).To(BeEquivalentTo(1))
	})

	t.Run("refetches after the TTL", func(t *testing.T) {
		g := NewWithT(t)
		ti := newTestIssuer(t)
		c := newTestClient(t, ClientOpt.WithCacheTTL(time.Minute))
		now := time.Now()
		c.now = func() time.Time { return now }

		_, err := c.KeyDocument(context.TODO(), ti.host)
		g.Expect(err).ToNot(HaveOccurred())

		now = now.Add(30 * time.Second)
		_, err = c.KeyDocument(context.TODO(), ti.host)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(ti.docCalls.Load()).To(BeEquivalentTo(1))

		now = now.Add(time.Minute)
		_, err = c.KeyDocument(context.TODO(), ti.host)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(ti.docCalls.Load()).To(BeEquivalentTo(2))
	})

	t.Run("invalidates cached documents", func(t *testing.T) {
		g := NewWithT(t)
		ti := newTestIssuer(t)
		c := newTestClient(t)
		now := time.Now()
		c.now = func() time.Time { return now }

		_, err := c.KeyDocument(context.TODO(), ti.host)
		g.Expect(err).ToNot(HaveOccurred())

		now = now.Add(2 * time.Minute)
		g.Expect(c.Invalidate(ti.host)).To(BeTrue())
		_, err = c.KeyDocument(context.TODO(), ti.host)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(ti.docCalls.Load()).To(BeEquivalentTo(2))
	})

	t.Run("keeps recently fetched documents on invalidate", func(t *testing.T) {
		g := NewWithT(t)
		ti := newTestIssuer(t)
		c := newTestClient(t, ClientOpt.WithMinRefreshInterval(time.Minute))
		now := time.Now()
		c.now = func() time.Time { return now }

		_, err := c.KeyDocument(context.TODO(), ti.host)
		g.Expect(err).ToNot(HaveOccurred())

		for range 5 {
			now = now.Add(time.Second)
			g.Expect(c.Invalidate(ti.host)).To(BeFalse())
			_, err = c.KeyDocument(context.TODO(), ti.host)
			g.Expect(err).ToNot(HaveOccurred())
		}
		g.Expect(ti.docCalls.Load()).To(BeEquivalentTo(1))

		now = now.Add(time.Minute)
		g.Expect(c.Invalidate(ti.host)).To(BeTrue())
		_, err = c.KeyDocument(context.TODO(), ti.host)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(ti.docCalls.Load()).To(BeEquivalentTo(2))
	})

	t.Run("shared lookups ignore the deadline of other callers", func(t *testing.T) {
		g := NewWithT(t)
		ti := newTestIssuer(t)
		ti.docDelay.Store(int64(400 * time.Millisecond))
		c := newTestClient(t)

		shortCtx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		var wg sync.WaitGroup
		var shortErr, longErr error
		var longDoc *hap.KeyDocument
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, shortErr = c.KeyDocument(shortCtx, ti.host)
		}()
		go func() {
			defer wg.Done()
			// Join the fetch started by the caller with the short deadline.
			time.Sleep(20 * time.Millisecond)
			longDoc, longErr = c.KeyDocument(context.Background(), ti.host)
		}()
		wg.Wait()

		g.Expect(shortErr).To(MatchError(context.DeadlineExceeded))
		g.Expect(longErr).ToNot(HaveOccurred())
		g.Expect(longDoc.Issuer).To(Equal(ti.host))
		g.Expect(ti.docCalls.Load()).To(BeEquivalentTo(1))

		// The shared fetch populated the cache for later callers.
		_, err := c.KeyDocument(context.TODO(), ti.host)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(ti.docCalls.Load()).To(BeEquivalentTo(1))
	})

	t.Run("coalesces concurrent lookups", func(t *testing.T) {
		g := NewWithT(t)
		ti := newTestIssuer(t)
		ti.docDelay.Store(int64(100 * time.Millisecond))
		c := newTestClient(t)

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := c.KeyDocument(context.TODO(), ti.host)
				g.Expect(err).ToNot(HaveOccurred())
			}()
		}
		wg.Wait()

		g.Expect(ti.docCalls.Load()).To(BeNumerically("<", 10))
	})

	t.Run("rejects documents of another issuer", func(t *testing.T) {
		g := NewWithT(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"issuer":"evil.com","keys":[{"kid":"k","kty":"OKP","crv":"Ed25519","x":"11qYAYKxCrfVS_7TyWQHOg7hcvPapiMlrwIaaPcHURo"}]}`))
		}))
		defer server.Close()

		c := newTestClient(t)
		_, err := c.KeyDocument(context.TODO(), strings.TrimPrefix(server.URL, "http://"))
		g.Expect(err).To(MatchError(ErrIssuerMismatch))
	})

	t.Run("rejects documents that fail the schema", func(t *testing.T) {
		g := NewWithT(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"issuer":"x","keys":[]}`))
		}))
		defer server.Close()

		c := newTestClient(t)
		_, err := c.KeyDocument(context.TODO(), strings.TrimPrefix(server.URL, "http://"))
		g.Expect(err).To(MatchError(ErrInvalidDocument))
	})

	t.Run("rejects invalid issuers", func(t *testing.T) {
		g := NewWithT(t)
		c := newTestClient(t)

		for _, issuer := range []string{"", "https://my-va.com", "my-va.com/path", "user@my-va.com", "my va.com"} {
			_, err := c.KeyDocument(context.TODO(), issuer)
			g.Expect(err).To(MatchError(ErrInvalidIssuer), issuer)
		}
	})
}

func TestClient_URLs(t *testing.T) {
	g := NewWithT(t)

	c, err := NewClient()
	g.Expect(err).ToNot(HaveOccurred())

	u, err := c.KeyDocumentURL("My-VA.com")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(u).To(Equal("https://my-va.com/.well-known/hap.json"))

	u, err = c.VerificationURL("my-va.com", "hap_abc123XYZ9")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(u).To(Equal("https://my-va.com/api/v1/verify/hap_abc123XYZ9"))

	_, err = c.VerificationURL("my-va.com", "../../admin")
	g.Expect(err).To(MatchError(hap.ErrClaimIDInvalid))

	_, err = NewClient(ClientOpt.WithCacheSize(0))
	g.Expect(err).To(HaveOccurred())
}

func TestClient_Verification(t *testing.T) {
	t.Run("fetches and verifies the response", func(t *testing.T) {
		g := NewWithT(t)
		ti := newTestIssuer(t)
		c := newTestClient(t)

		claim, err := hap.NewHumanEffortClaim(hap.MethodPhysicalMail, hap.Target{Name: "Acme Corp", Domain: "acme.com"}, ti.host)
		g.Expect(err).ToNot(HaveOccurred())
		token, err := hap.SignJWS(claim, ti.privateKey)
		g.Expect(err).ToNot(HaveOccurred())

		ti.setResponse(claim.ID, map[string]any{
			"valid":            true,
			"id":               claim.ID,
			"claims":           claim,
			"jws":              token,
			"issuer":           ti.host,
			"revoked":          true,
			"revocationReason": "error",
			"revokedAt":        "2026-05-01T00:00:00Z",
		})

		resp, err := c.Verification(context.TODO(), ti.host, claim.ID)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(resp.Revocation().Revoked).To(BeTrue())
		g.Expect(resp.Revocation().Reason).To(Equal(hap.RevocationReasonError))

		keys, err := c.PublicKeys(context.TODO(), ti.host)
		g.Expect(err).ToNot(HaveOccurred())

		verified, err := resp.VerifyWith(keys)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(verified.Claim.ID).To(Equal(claim.ID))
	})

	t.Run("reports unknown claims", func(t *testing.T) {
		g := NewWithT(t)
		ti := newTestIssuer(t)
		c := newTestClient(t)

		_, err := c.Verification(context.TODO(), ti.host, "hap_test_ab12cd34")
		var statusErr *StatusError
		g.Expect(errors.As(err, &statusErr)).To(BeTrue())
		g.Expect(statusErr.StatusCode).To(Equal(http.StatusNotFound))
	})

	t.Run("rejects responses that fail the schema", func(t *testing.T) {
		g := NewWithT(t)
		ti := newTestIssuer(t)
		c := newTestClient(t)

		ti.setResponse("hap_test_ab12cd34", map[string]any{"valid": "yes"})
		_, err := c.Verification(context.TODO(), ti.host, "hap_test_ab12cd34")
		g.Expect(err).To(MatchError(ErrInvalidDocument))
	})

	t.Run("rejects responses of another issuer", func(t *testing.T) {
		g := NewWithT(t)
		ti := newTestIssuer(t)
		c := newTestClient(t)

		ti.setResponse("hap_test_ab12cd34", map[string]any{"valid": true, "issuer": "evil.com"})
		_, err := c.Verification(context.TODO(), ti.host, "hap_test_ab12cd34")
		g.Expect(err).To(MatchError(ErrIssuerMismatch))
	})
}
