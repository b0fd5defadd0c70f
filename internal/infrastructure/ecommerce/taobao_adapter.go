package ecommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/integration"
	"github.com/orderdesk/backend/internal/domain/shared/valueobject"
	"github.com/orderdesk/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Taobao API method names
const (
	taobaoMethodTradesSold   = "taobao.trades.sold.get"
	taobaoMethodTradeFull    = "taobao.trade.fullinfo.get"
	taobaoStatusAwaitingShip = "WAIT_SELLER_SEND_GOODS"
	taobaoTimeLayout         = "2006-01-02 15:04:05"
)

// taobaoTradeFields lists the trade fields requested from the API
const taobaoTradeFields = "tid,status,buyer_nick,created,modified,pay_time,payment,total_fee,post_fee," +
	"receiver_name,receiver_country,receiver_state,receiver_city,receiver_district,receiver_address," +
	"receiver_zip,receiver_mobile,receiver_phone,buyer_message,num_iid,title,price,num,pic_path," +
	"orders.oid,orders.num_iid,orders.sku_id,orders.title,orders.sku_properties_name,orders.price," +
	"orders.num,orders.total_fee,orders.pic_path,orders.outer_iid,orders.outer_sku_id"

// TaobaoAdapter implements integration.MarketplaceAdapter for Taobao/Tmall
type TaobaoAdapter struct {
	client   *http.Client
	now      func() time.Time
	maxPages int
	logger   *zap.Logger
}

// NewTaobaoAdapter creates a new Taobao adapter. A nil client uses http.DefaultClient.
func NewTaobaoAdapter(client *http.Client, logger *zap.Logger) *TaobaoAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaobaoAdapter{client: client, now: time.Now, maxPages: maxPages, logger: logger}
}

// Source returns the marketplace source
func (a *TaobaoAdapter) Source() integration.SourceName {
	return integration.SourceTaobao
}

// Fetch pages through every trade awaiting shipment
func (a *TaobaoAdapter) Fetch(ctx context.Context, tenantID uuid.UUID, creds integration.MarketplaceCredentials) ([]integration.OrderBundle, error) {
	ctx, span := telemetry.StartSpan(ctx, "taobao.fetch",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute("tenant.id", tenantID.String()))
	defer span.End()

	cfg := newTaobaoConfig(creds)
	var bundles []integration.OrderBundle
	truncated := false
	for page := 1; ; page++ {
		params := map[string]string{
			"fields":       taobaoTradeFields,
			"status":       taobaoStatusAwaitingShip,
			"page_no":      strconv.Itoa(page),
			"page_size":    strconv.Itoa(defaultPageSize),
			"use_has_next": "true",
		}

		var resp TaobaoTradesGetResponse
		if err := a.call(ctx, cfg, creds, taobaoMethodTradesSold, params, &resp); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if resp.TradesSoldGetResponse == nil {
			err := fmt.Errorf("%w: missing trades_sold_get_response", integration.ErrMalformedResponse)
			telemetry.RecordError(span, err)
			return nil, err
		}

		data := resp.TradesSoldGetResponse
		if data.Trades != nil {
			for i := range data.Trades.Trade {
				bundles = append(bundles, a.normalize(&data.Trades.Trade[i]))
			}
		}
		if !data.HasNext {
			break
		}
		if page >= a.maxPages {
			truncated = true
			break
		}
	}

	if truncated {
		// the rest is picked up by the next sync once earlier orders ship
		a.logger.Warn("Taobao trades truncated at page limit",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("max_pages", a.maxPages),
			zap.Int("count", len(bundles)))
	}
	telemetry.SetAttributes(span, "orders.count", len(bundles), "orders.truncated", truncated)
	telemetry.SetOK(span)
	a.logger.Debug("Fetched Taobao trades",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("count", len(bundles)))
	return bundles, nil
}

// FetchOne retrieves a single trade by tid
func (a *TaobaoAdapter) FetchOne(ctx context.Context, tenantID uuid.UUID, creds integration.MarketplaceCredentials, sourceKey string) (*integration.OrderBundle, error) {
	ctx, span := telemetry.StartSpan(ctx, "taobao.fetch_one",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute("tenant.id", tenantID.String()),
		telemetry.WithAttribute("order.source_key", sourceKey))
	defer span.End()

	cfg := newTaobaoConfig(creds)
	params := map[string]string{
		"fields": taobaoTradeFields,
		"tid":    sourceKey,
	}

	var resp TaobaoTradeGetResponse
	if err := a.call(ctx, cfg, creds, taobaoMethodTradeFull, params, &resp); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if resp.TradeFullinfoGetResponse == nil || resp.TradeFullinfoGetResponse.Trade == nil {
		return nil, fmt.Errorf("%w: tid %s", integration.ErrOrderNotFound, sourceKey)
	}

	bundle := a.normalize(resp.TradeFullinfoGetResponse.Trade)
	telemetry.SetOK(span)
	return &bundle, nil
}

// call signs and posts one router request, decoding into out
func (a *TaobaoAdapter) call(ctx context.Context, cfg *TaobaoConfig, creds integration.MarketplaceCredentials, method string, params map[string]string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout(creds))
	defer cancel()

	params["method"] = method
	params["app_key"] = cfg.AppKey
	params["session"] = cfg.SessionKey
	params["timestamp"] = a.now().In(chinaTime).Format(taobaoTimeLayout)
	params["format"] = "json"
	params["v"] = "2.0"
	params["sign_method"] = "md5"
	params["sign"] = cfg.Sign(params)

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	req, err := http.NewRequest(http.MethodPost, cfg.APIBaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	body, err := send(ctx, a.client, req)
	if err != nil {
		return err
	}

	// error_response shares the document with the payload
	var base TaobaoResponse
	if err := json.Unmarshal(body, &base); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrMalformedResponse, err)
	}
	if !base.IsSuccess() {
		e := base.ErrorResponse
		code, msg := e.diagnostics()
		switch {
		case e.isAuthFailure():
			return &integration.UpstreamError{Kind: integration.ErrAuthFailed, Code: code, Message: msg}
		case e.isNotFound():
			return fmt.Errorf("%w: %s", integration.ErrOrderNotFound, msg)
		default:
			return &integration.UpstreamError{Kind: integration.ErrUpstream, Code: code, Message: msg}
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrMalformedResponse, err)
	}
	return nil
}

// normalize converts a Taobao trade into the canonical bundle
func (a *TaobaoAdapter) normalize(t *TaobaoTrade) integration.OrderBundle {
	key := strconv.FormatInt(t.Tid, 10)
	first, last := integration.SplitName(t.ReceiverName)

	phone := t.ReceiverMobile
	if strings.TrimSpace(phone) == "" {
		phone = t.ReceiverPhone
	}

	country := "CN"
	if c := strings.TrimSpace(t.ReceiverCountry); len(c) == 2 {
		country = c
	}
	addr := valueobject.NewAddress(
		[]string{t.ReceiverAddress, t.ReceiverDistrict},
		t.ReceiverCity, t.ReceiverState, t.ReceiverZip, country)

	order := integration.NormalizedOrder{
		SourceName:        integration.SourceTaobao,
		SourceKey:         key,
		CustomerName:      integration.JoinName(t.ReceiverName),
		CustomerFirstName: first,
		CustomerLastName:  last,
		CustomerPhone:     integration.OptionalString(phone),
		Status:            integration.OptionalString(t.Status),
		Currency:          integration.OptionalString("CNY"),
		TotalPrice:        integration.ParseDecimal(t.Payment),
		PlacedAt:          parseTaobaoTime(t.Created),
	}
	if !addr.IsEmpty() {
		order.ShippingAddress = &addr
	}
	if raw, err := json.Marshal(t); err == nil {
		order.RawPayload = raw
	}

	var items []integration.NormalizedLineItem
	if t.Orders != nil && len(t.Orders.Order) > 0 {
		for i, o := range t.Orders.Order {
			sku := firstNonBlank(o.OuterSkuID, o.SkuID, o.OuterIid)
			lineID := ""
			if o.Oid != 0 {
				lineID = strconv.FormatInt(o.Oid, 10)
			} else {
				lineID = integration.SurrogateLineID(key, sku, o.Title, i)
			}
			items = append(items, integration.NormalizedLineItem{
				RemoteLineID:       lineID,
				SKU:                integration.OptionalString(sku),
				ProductName:        integration.OptionalString(o.Title),
				Quantity:           int(o.Num),
				UnitPrice:          integration.ParseDecimal(o.Price),
				TotalPrice:         integration.ParseDecimal(o.TotalFee),
				ImageURL:           integration.OptionalString(o.PicPath),
				VariantDescription: integration.OptionalString(o.SkuPropertiesName),
			})
		}
	} else if t.NumIid != 0 || t.Title != "" {
		// single-item trades carry the item inline
		sku := strconv.FormatInt(t.NumIid, 10)
		items = append(items, integration.NormalizedLineItem{
			RemoteLineID: integration.SurrogateLineID(key, sku, t.Title, 0),
			SKU:          integration.OptionalString(sku),
			ProductName:  integration.OptionalString(t.Title),
			Quantity:     int(t.Num),
			UnitPrice:    integration.ParseDecimal(t.Price),
			TotalPrice:   integration.ParseDecimal(t.TotalFee),
			ImageURL:     integration.OptionalString(t.PicPath),
		})
	}

	if msg := integration.OptionalString(t.BuyerMessage); msg != nil && len(items) > 0 {
		items[0].Notes = msg
	}

	return integration.OrderBundle{Order: order, Items: items}
}

func parseTaobaoTime(s string) *time.Time {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	t, err := time.ParseInLocation(taobaoTimeLayout, s, chinaTime)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
