package integration

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Marketplace Errors
// ---------------------------------------------------------------------------

var (
	ErrSourceNotConfigured = errors.New("integration: marketplace source not configured")
	ErrSourceUnknown       = errors.New("integration: unknown marketplace source")
	ErrAuthFailed          = errors.New("integration: marketplace authentication failed")
	ErrUpstream            = errors.New("integration: marketplace request failed")
	ErrMalformedResponse   = errors.New("integration: malformed marketplace response")
	ErrOrderNotFound       = errors.New("integration: marketplace order not found")
)

// UpstreamError carries the provider's own diagnostics alongside ErrUpstream
// or ErrAuthFailed so they can be surfaced verbatim.
type UpstreamError struct {
	Kind       error
	HTTPStatus int
	Code       string
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%v: HTTP %d [%s] %s", e.Kind, e.HTTPStatus, e.Code, e.Message)
	}
	return fmt.Sprintf("%v: [%s] %s", e.Kind, e.Code, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Kind
}

// ---------------------------------------------------------------------------
// SourceName identifies a marketplace
// ---------------------------------------------------------------------------

// SourceName identifies a marketplace source
type SourceName string

const (
	SourceTaobao SourceName = "taobao"
	SourceDouyin SourceName = "douyin"
)

// ParseSourceName normalizes a user supplied source name
func ParseSourceName(s string) (SourceName, error) {
	name := SourceName(strings.ToLower(strings.TrimSpace(s)))
	if !name.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrSourceUnknown, s)
	}
	return name, nil
}

// IsValid returns true if the source is known
func (s SourceName) IsValid() bool {
	switch s {
	case SourceTaobao, SourceDouyin:
		return true
	default:
		return false
	}
}

// String returns the string representation of SourceName
func (s SourceName) String() string {
	return string(s)
}

// AllSources lists every known source
func AllSources() []SourceName {
	return []SourceName{SourceTaobao, SourceDouyin}
}

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// UnknownCustomer is the name used when a source supplies no customer name
const UnknownCustomer = "Unknown Customer"

// NormalizedOrder is the canonical shape of one marketplace order.
// Pointer fields are nil when the source did not supply them.
type NormalizedOrder struct {
	// SourceName is the marketplace this order came from
	SourceName SourceName
	// SourceKey is the marketplace's own order identifier
	SourceKey string
	// CustomerName is the joined full name, UnknownCustomer when absent
	CustomerName string
	CustomerFirstName *string
	CustomerLastName  *string
	CustomerEmail     *string
	CustomerPhone     *string
	// Status is the marketplace status, passed through as-is
	Status   *string
	Currency *string
	// TotalPrice is what the buyer paid
	TotalPrice      *decimal.Decimal
	ShippingAddress *valueobject.Address
	BillingAddress  *valueobject.Address
	// PlacedAt is when the buyer placed the order
	PlacedAt *time.Time
	// RawPayload is the untouched upstream document
	RawPayload json.RawMessage
}

// NormalizedLineItem is the canonical shape of one marketplace line item
type NormalizedLineItem struct {
	// RemoteLineID is stable across fetches; adapters derive a surrogate when the source has none
	RemoteLineID       string
	SKU                *string
	ProductName        *string
	Quantity           int
	UnitPrice          *decimal.Decimal
	TotalPrice         *decimal.Decimal
	ImageURL           *string
	VariantDescription *string
	Notes              *string
}

// OrderBundle is one order with its line items
type OrderBundle struct {
	Order NormalizedOrder
	Items []NormalizedLineItem
}

// Validate checks the minimal identity contract the reconciliation engine depends on
func (b OrderBundle) Validate() error {
	if !b.Order.SourceName.IsValid() {
		return fmt.Errorf("%w: source %q", ErrMalformedResponse, b.Order.SourceName)
	}
	if strings.TrimSpace(b.Order.SourceKey) == "" {
		return fmt.Errorf("%w: empty source key", ErrMalformedResponse)
	}
	seen := make(map[string]struct{}, len(b.Items))
	for i, it := range b.Items {
		if it.RemoteLineID == "" {
			return fmt.Errorf("%w: item %d of %s has no remote line id", ErrMalformedResponse, i, b.Order.SourceKey)
		}
		if _, dup := seen[it.RemoteLineID]; dup {
			return fmt.Errorf("%w: duplicate remote line id %s in %s", ErrMalformedResponse, it.RemoteLineID, b.Order.SourceKey)
		}
		seen[it.RemoteLineID] = struct{}{}
	}
	return nil
}

// MarketplaceCredentials are the effective credentials for one tenant and source
type MarketplaceCredentials struct {
	AppKey         string `json:"appKey" validate:"required"`
	AppSecret      string `json:"appSecret" validate:"required"`
	AccessToken    string `json:"accessToken" validate:"required"`
	ShopID         string `json:"shopId,omitempty"`
	APIBaseURL     string `json:"apiBaseUrl,omitempty" validate:"omitempty,url"`
	IsSandbox      bool   `json:"isSandbox"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty" validate:"gte=0"`
}

// ---------------------------------------------------------------------------
// MarketplaceAdapter Port
// ---------------------------------------------------------------------------

// MarketplaceAdapter fetches orders from one marketplace and normalizes them.
// Implementations must not write to any store.
type MarketplaceAdapter interface {
	// Source returns the source this adapter handles
	Source() SourceName

	// Fetch returns every open order visible with the given credentials.
	// Errors wrap ErrAuthFailed, ErrUpstream or ErrMalformedResponse.
	Fetch(ctx context.Context, tenantID uuid.UUID, creds MarketplaceCredentials) ([]OrderBundle, error)

	// FetchOne re-queries a single order by source key.
	// Returns ErrOrderNotFound when the marketplace no longer has it.
	FetchOne(ctx context.Context, tenantID uuid.UUID, creds MarketplaceCredentials, sourceKey string) (*OrderBundle, error)
}

// ---------------------------------------------------------------------------
// Helpers shared by adapters
// ---------------------------------------------------------------------------

// JoinName joins name parts, skipping blanks. Returns UnknownCustomer if nothing remains.
func JoinName(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return UnknownCustomer
	}
	return strings.Join(kept, " ")
}

// SplitName splits a single full-name field on the first space
func SplitName(full string) (first, last *string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return nil, nil
	}
	f, l, found := strings.Cut(full, " ")
	first = &f
	if found {
		l = strings.TrimSpace(l)
		if l != "" {
			last = &l
		}
	}
	return first, last
}

// OptionalString returns nil for blank strings
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// ParseDecimal parses a decimal string, returning nil for blank or invalid input
func ParseDecimal(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// SurrogateLineID derives a stable line id for sources that do not supply one.
// The same order content always yields the same id.
func SurrogateLineID(sourceKey, sku, title string, index int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d", sourceKey, sku, title, index)))
	return "sl-" + hex.EncodeToString(sum[:8])
}
