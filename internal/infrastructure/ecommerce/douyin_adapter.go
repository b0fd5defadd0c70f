package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/integration"
	"github.com/orderdesk/backend/internal/domain/shared/valueobject"
	"github.com/orderdesk/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Douyin API method paths
const (
	douyinMethodSearchList  = "/order/searchList"
	douyinMethodOrderDetail = "/order/orderDetail"
)

// centsPerYuan converts fen amounts to yuan
var centsPerYuan = decimal.NewFromInt(100)

// DouyinAdapter implements integration.MarketplaceAdapter for Douyin Shop
type DouyinAdapter struct {
	client   *http.Client
	now      func() time.Time
	maxPages int
	logger   *zap.Logger
}

// NewDouyinAdapter creates a new Douyin adapter. A nil client uses http.DefaultClient.
func NewDouyinAdapter(client *http.Client, logger *zap.Logger) *DouyinAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DouyinAdapter{client: client, now: time.Now, maxPages: maxPages, logger: logger}
}

// Source returns the marketplace source
func (a *DouyinAdapter) Source() integration.SourceName {
	return integration.SourceDouyin
}

// Fetch pages through every order pending shipment
func (a *DouyinAdapter) Fetch(ctx context.Context, tenantID uuid.UUID, creds integration.MarketplaceCredentials) ([]integration.OrderBundle, error) {
	ctx, span := telemetry.StartSpan(ctx, "douyin.fetch",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute("tenant.id", tenantID.String()))
	defer span.End()

	cfg := newDouyinConfig(creds)
	var bundles []integration.OrderBundle
	var total int64
	truncated := false
	// pages are zero-indexed
	for page := 0; ; page++ {
		params := map[string]any{
			"page":         page,
			"size":         defaultPageSize,
			"order_by":     "create_time",
			"is_desc":      0,
			"order_status": DouyinOrderStatusPendingShipment,
		}

		var resp DouyinOrderListResponse
		if err := a.call(ctx, cfg, creds, douyinMethodSearchList, params, &resp); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if resp.Data == nil {
			err := fmt.Errorf("%w: missing data", integration.ErrMalformedResponse)
			telemetry.RecordError(span, err)
			return nil, err
		}

		for i := range resp.Data.List {
			bundles = append(bundles, a.normalize(&resp.Data.List[i]))
		}
		total = resp.Data.Total
		fetched := int64((page + 1) * defaultPageSize)
		if len(resp.Data.List) < defaultPageSize || fetched >= resp.Data.Total {
			break
		}
		if page+1 >= a.maxPages {
			truncated = true
			break
		}
	}

	if truncated {
		a.logger.Warn("Douyin orders truncated at page limit",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("max_pages", a.maxPages),
			zap.Int("count", len(bundles)),
			zap.Int64("total", total))
	}
	telemetry.SetAttributes(span, "orders.count", len(bundles), "orders.truncated", truncated)
	telemetry.SetOK(span)
	a.logger.Debug("Fetched Douyin orders",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("count", len(bundles)))
	return bundles, nil
}

// FetchOne retrieves a single shop order
func (a *DouyinAdapter) FetchOne(ctx context.Context, tenantID uuid.UUID, creds integration.MarketplaceCredentials, sourceKey string) (*integration.OrderBundle, error) {
	ctx, span := telemetry.StartSpan(ctx, "douyin.fetch_one",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute("tenant.id", tenantID.String()),
		telemetry.WithAttribute("order.source_key", sourceKey))
	defer span.End()

	cfg := newDouyinConfig(creds)
	var resp DouyinOrderDetailResponse
	err := a.call(ctx, cfg, creds, douyinMethodOrderDetail, map[string]any{"shop_order_id": sourceKey}, &resp)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if resp.Data == nil || resp.Data.ShopOrderDetail == nil {
		return nil, fmt.Errorf("%w: shop order %s", integration.ErrOrderNotFound, sourceKey)
	}

	bundle := a.normalize(resp.Data.ShopOrderDetail)
	telemetry.SetOK(span)
	return &bundle, nil
}

// call signs and posts one API request, decoding into out
func (a *DouyinAdapter) call(ctx context.Context, cfg *DouyinConfig, creds integration.MarketplaceCredentials, method string, params map[string]any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout(creds))
	defer cancel()

	// encoding/json sorts map keys, which the signature depends on
	paramJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	timestamp := strconv.FormatInt(a.now().Unix(), 10)
	methodName := strings.ReplaceAll(strings.TrimPrefix(method, "/"), "/", ".")

	payload, err := json.Marshal(map[string]string{
		"app_key":      cfg.AppKey,
		"access_token": cfg.AccessToken,
		"method":       methodName,
		"param_json":   string(paramJSON),
		"timestamp":    timestamp,
		"v":            douyinAPIVersion,
		"sign":         cfg.Sign(methodName, string(paramJSON), timestamp, douyinAPIVersion),
		"sign_method":  "hmac-sha256",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(cfg.APIBaseURL, "/")+method, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := send(ctx, a.client, req)
	if err != nil {
		return err
	}

	var base DouyinResponse
	if err := json.Unmarshal(body, &base); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrMalformedResponse, err)
	}
	if !base.IsSuccess() {
		code := strconv.Itoa(base.ErrNo)
		switch {
		case douyinAuthCodes[base.ErrNo]:
			return &integration.UpstreamError{Kind: integration.ErrAuthFailed, Code: code, Message: base.Message}
		case base.ErrNo == douyinNotFoundCode:
			return fmt.Errorf("%w: %s", integration.ErrOrderNotFound, base.Message)
		default:
			return &integration.UpstreamError{Kind: integration.ErrUpstream, Code: code, Message: base.Message}
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrMalformedResponse, err)
	}
	return nil
}

// normalize converts a Douyin shop order into the canonical bundle
func (a *DouyinAdapter) normalize(o *DouyinOrder) integration.OrderBundle {
	order := integration.NormalizedOrder{
		SourceName:   integration.SourceDouyin,
		SourceKey:    o.OrderID,
		CustomerName: integration.UnknownCustomer,
		Status:       integration.OptionalString(douyinStatusName(o.OrderStatus)),
		Currency:     integration.OptionalString("CNY"),
		TotalPrice:   yuan(o.PayAmount),
	}
	if o.CreateTime > 0 {
		placed := time.Unix(o.CreateTime, 0).UTC()
		order.PlacedAt = &placed
	}

	if r := o.PostReceiver; r != nil {
		order.CustomerName = integration.JoinName(r.Name)
		order.CustomerFirstName, order.CustomerLastName = integration.SplitName(r.Name)
		order.CustomerPhone = integration.OptionalString(r.Phone)
		addr := valueobject.NewAddress(
			[]string{strings.TrimSpace(r.Street.name() + " " + r.Detail), r.Town.name()},
			r.City.name(), r.Province.name(), r.PostCode, "CN")
		order.ShippingAddress = &addr
	}
	if raw, err := json.Marshal(o); err == nil {
		order.RawPayload = raw
	}

	items := make([]integration.NormalizedLineItem, 0, len(o.SkuOrderList))
	for i, s := range o.SkuOrderList {
		sku := firstNonBlank(s.Code, s.OutSkuID, s.SkuID)
		lineID := s.SkuOrderID
		if lineID == "" {
			lineID = integration.SurrogateLineID(o.OrderID, sku, s.ProductName, i)
		}
		items = append(items, integration.NormalizedLineItem{
			RemoteLineID:       lineID,
			SKU:                integration.OptionalString(sku),
			ProductName:        integration.OptionalString(s.ProductName),
			Quantity:           int(s.ItemNum),
			UnitPrice:          yuan(s.OriginAmount),
			TotalPrice:         yuan(s.PayAmount),
			ImageURL:           integration.OptionalString(s.ProductPic),
			VariantDescription: integration.OptionalString(specString(s.SkuSpec)),
		})
	}
	if msg := integration.OptionalString(o.BuyerWords); msg != nil && len(items) > 0 {
		items[0].Notes = msg
	}

	return integration.OrderBundle{Order: order, Items: items}
}

func yuan(fen int64) *decimal.Decimal {
	d := decimal.NewFromInt(fen).Div(centsPerYuan)
	return &d
}

func specString(specs []DouyinSkuSpec) string {
	parts := make([]string, 0, len(specs))
	for _, s := range specs {
		parts = append(parts, s.Name+":"+s.Value)
	}
	return strings.Join(parts, ";")
}
