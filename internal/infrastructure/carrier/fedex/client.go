// Package fedex implements the carrier port against the FedEx REST APIs:
// OAuth client-credentials for tokens and Ship API for label creation.
package fedex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/orderdesk/backend/internal/domain/shipping"
	"github.com/orderdesk/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// ProductionBaseURL is the FedEx production API host
	ProductionBaseURL = "https://apis.fedex.com"
	// SandboxBaseURL is the FedEx test API host
	SandboxBaseURL = "https://apis-sandbox.fedex.com"

	oauthPath    = "/oauth/token"
	shipmentPath = "/ship/v1/shipments"

	// maxResponseSize caps carrier responses (10MB)
	maxResponseSize = 10 * 1024 * 1024
	defaultTimeout  = 30 * time.Second
)

// Config configures the client
type Config struct {
	// BaseURL is used when credentials carry none
	BaseURL string
	// Timeout bounds each carrier call
	Timeout time.Duration
	// Clock stamps token expiry; share the label service clock. Nil uses the wall clock.
	Clock shipping.Clock
}

// Client is the FedEx carrier client
type Client struct {
	http    *http.Client
	baseURL string
	timeout time.Duration
	clock   shipping.Clock
	logger  *zap.Logger
}

var _ shipping.CarrierClient = (*Client)(nil)

// NewClient creates a FedEx client. A nil httpClient uses http.DefaultClient.
func NewClient(httpClient *http.Client, cfg Config, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = SandboxBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = shipping.SystemClock{}
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		clock:   cfg.Clock,
		logger:  logger,
	}
}

// BaseURL returns the API host for creds
func (c *Client) BaseURL(creds shipping.CarrierCredentials) string {
	if creds.BaseURL != "" {
		return strings.TrimRight(creds.BaseURL, "/")
	}
	return c.baseURL
}

// Authenticate exchanges the API key and secret for a bearer token
func (c *Client) Authenticate(ctx context.Context, creds shipping.CarrierCredentials) (shipping.AuthToken, error) {
	ctx, span := telemetry.StartSpan(ctx, "fedex.authenticate", telemetry.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", creds.APIKey)
	form.Set("client_secret", creds.SecretKey)

	req, err := http.NewRequest(http.MethodPost, c.BaseURL(creds)+oauthPath, strings.NewReader(form.Encode()))
	if err != nil {
		return shipping.AuthToken{}, shared.NewInternalError("failed to build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	issuedAt := c.clock.Now()
	body, err := c.do(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return shipping.AuthToken{}, err
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return shipping.AuthToken{}, shared.NewMalformedResponseError("carrier token response is not JSON", err)
	}
	if tr.AccessToken == "" || tr.ExpiresIn <= 0 {
		return shipping.AuthToken{}, shared.NewMalformedResponseError("carrier token response has no token or expiry", nil)
	}

	telemetry.SetAttributes(span, "token.expires_in", tr.ExpiresIn)
	telemetry.SetOK(span)
	return shipping.AuthToken{
		AccessToken: tr.AccessToken,
		TokenType:   tr.TokenType,
		ExpiresAt:   issuedAt.Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}

// CreateShipment submits a shipment and returns the parsed confirmation
func (c *Client) CreateShipment(ctx context.Context, token shipping.AuthToken, creds shipping.CarrierCredentials, s shipping.Shipment) (*shipping.ShipmentConfirmation, error) {
	ctx, span := telemetry.StartSpan(ctx, "fedex.create_shipment",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute("shipment.kind", string(s.Kind())),
		telemetry.WithAttribute("shipment.service", s.Common().ServiceType.String()))
	defer span.End()

	payload, err := json.Marshal(buildShipRequest(s))
	if err != nil {
		return nil, shared.NewInternalError("failed to encode shipment", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.BaseURL(creds)+shipmentPath, bytes.NewReader(payload))
	if err != nil {
		return nil, shared.NewInternalError("failed to build shipment request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("X-locale", "en_US")

	body, err := c.do(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var sr shipResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, shared.NewMalformedResponseError("carrier shipment response is not JSON", err)
	}
	conf := sr.toConfirmation()
	if conf == nil {
		return nil, shared.NewMalformedResponseError("carrier returned no shipment output", nil)
	}

	telemetry.SetAttributes(span, "shipment.tracking_number", conf.MasterTrackingNumber)
	telemetry.SetOK(span)
	c.logger.Debug("FedEx shipment accepted",
		zap.String("transaction_id", conf.TransactionID),
		zap.String("tracking_number", conf.MasterTrackingNumber),
		zap.Int("alerts", len(conf.Alerts)))
	return conf, nil
}

// do executes req and returns the body of a 2xx response. Non-2xx responses
// become DomainErrors carrying the carrier's first error code and message.
func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, shared.NewUpstreamError(0, "TIMEOUT", "carrier did not respond in time", err)
		}
		return nil, shared.NewUpstreamError(0, "TRANSPORT", err.Error(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, shared.NewMalformedResponseError("failed to read carrier response", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return body, nil
	}

	var er errorResponse
	_ = json.Unmarshal(body, &er)
	code, msg := er.first()
	if code == "" {
		code = http.StatusText(resp.StatusCode)
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		de := shared.NewAuthError("carrier rejected credentials", fmt.Errorf("HTTP %d", resp.StatusCode))
		de.ProviderCode = code
		de.ProviderMessage = msg
		de.HTTPStatus = resp.StatusCode
		return nil, de
	}
	return nil, shared.NewUpstreamError(resp.StatusCode, code, msg, nil)
}
