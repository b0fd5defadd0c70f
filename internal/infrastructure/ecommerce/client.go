// Package ecommerce holds the marketplace adapters. Each adapter signs its own
// requests, pages through open orders and normalizes them into order bundles.
package ecommerce

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/orderdesk/backend/internal/domain/integration"
)

// maxResponseSize is the maximum allowed response size from a marketplace API (10MB)
const maxResponseSize = 10 * 1024 * 1024

const (
	defaultTimeoutSeconds = 30
	defaultPageSize       = 50
	// maxPages bounds a single Fetch so a misbehaving cursor cannot loop forever
	maxPages = 200
)

// chinaTime is the offset marketplace timestamps are expressed in
var chinaTime = time.FixedZone("CST", 8*60*60)

// requestTimeout picks the per-request timeout from the credentials
func requestTimeout(creds integration.MarketplaceCredentials) time.Duration {
	if creds.TimeoutSeconds > 0 {
		return time.Duration(creds.TimeoutSeconds) * time.Second
	}
	return defaultTimeoutSeconds * time.Second
}

// send executes req and returns the body of a 2xx response
func send(ctx context.Context, client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, &integration.UpstreamError{Kind: integration.ErrUpstream, Code: "TRANSPORT", Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", integration.ErrMalformedResponse, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := integration.ErrUpstream
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			kind = integration.ErrAuthFailed
		}
		return nil, &integration.UpstreamError{
			Kind:       kind,
			HTTPStatus: resp.StatusCode,
			Code:       http.StatusText(resp.StatusCode),
			Message:    snippet(body),
		}
	}
	return body, nil
}

// snippet trims an error body for diagnostics
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 256 {
		s = s[:256] + "..."
	}
	return s
}
