package fedex

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/orderdesk/backend/internal/domain/shared/valueobject"
	"github.com/orderdesk/backend/internal/domain/shipping"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func newTestClient(baseURL string) *Client {
	return NewClient(nil, Config{BaseURL: baseURL, Timeout: 5 * time.Second, Clock: fixedClock(fixedNow)}, zap.NewNop())
}

func testCreds() shipping.CarrierCredentials {
	return shipping.CarrierCredentials{APIKey: "key", SecretKey: "secret", AccountNumber: "740561073"}
}

func testBuilder(recipientCountry string) *shipping.Builder {
	shipper := shipping.Party{
		Contact: shipping.Contact{PersonName: "Sam Sender", CompanyName: "Poster Co", PhoneNumber: "5125550100"},
		Address: valueobject.NewAddress([]string{"1 Congress Ave"}, "Austin", "TX", "78701", "US"),
		TaxID:   &shipping.TaxIdentifier{Number: "12-3456789", Type: shipping.TaxIDBusinessNational},
	}
	recipient := shipping.Party{
		Contact: shipping.Contact{PersonName: "Rita Receiver", PhoneNumber: "5550100"},
		Address: valueobject.NewAddress([]string{"5 Main St"}, "Denver", "CO", "80202", recipientCountry),
	}
	return shipping.NewBuilder(fixedNow, shipper, recipient).
		Service(order.ServiceFedExGround, order.PackagingYourPackaging, order.PickupDropoff).
		Payment(order.PaymentSender, "740561073").
		Package(decimal.RequireFromString("1.2"), nil)
}

// ---------------------------------------------------------------------------
// Authenticate
// ---------------------------------------------------------------------------

func TestClient_Authenticate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/oauth/token", r.URL.Path)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
			assert.Equal(t, "key", r.Form.Get("client_id"))
			assert.Equal(t, "secret", r.Form.Get("client_secret"))
			_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3599,"scope":"CXS"}`))
		}))
		defer server.Close()

		token, err := newTestClient(server.URL).Authenticate(context.Background(), testCreds())
		require.NoError(t, err)
		assert.Equal(t, "tok", token.AccessToken)
		assert.Equal(t, fixedNow.Add(3599*time.Second), token.ExpiresAt)
	})

	t.Run("rejected credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"transactionId":"t1","errors":[{"code":"NOT.AUTHORIZED.ERROR","message":"The given client credentials were not valid."}]}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Authenticate(context.Background(), testCreds())
		de, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, shared.CodeAuth, de.Code)
		assert.Equal(t, "NOT.AUTHORIZED.ERROR", de.ProviderCode)
		assert.Equal(t, "The given client credentials were not valid.", de.ProviderMessage)
	})

	t.Run("missing expiry", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"access_token":"tok"}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Authenticate(context.Background(), testCreds())
		assert.ErrorIs(t, err, shared.ErrMalformed)
	})

	t.Run("expiry stamped by configured clock", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
		}))
		defer server.Close()

		issued := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		c := NewClient(nil, Config{BaseURL: server.URL, Clock: fixedClock(issued)}, zap.NewNop())

		token, err := c.Authenticate(context.Background(), testCreds())
		require.NoError(t, err)
		assert.Equal(t, issued.Add(time.Hour), token.ExpiresAt)
		assert.True(t, token.ValidAt(issued, time.Minute))
		assert.False(t, token.ValidAt(issued.Add(59*time.Minute), time.Minute))
	})

	t.Run("credentials base url wins", func(t *testing.T) {
		c := newTestClient("http://configured")
		creds := testCreds()
		assert.Equal(t, "http://configured", c.BaseURL(creds))
		creds.BaseURL = "http://override/"
		assert.Equal(t, "http://override", c.BaseURL(creds))
	})
}

// ---------------------------------------------------------------------------
// CreateShipment
// ---------------------------------------------------------------------------

const shipOK = `{
  "transactionId": "txn-1",
  "output": {
    "transactionShipments": [{
      "masterTrackingNumber": "794953535000",
      "serviceType": "FEDEX_GROUND",
      "completedShipmentDetail": {"masterTrackingId": {"trackingIdType": "FEDEX", "formId": "0430", "trackingNumber": "794953535000"}},
      "pieceResponses": [{
        "trackingNumber": "794953535000",
        "packageDocuments": [{"url": "https://labels.example/l.pdf", "contentType": "LABEL", "docType": "PDF"}]
      }],
      "shipmentDocuments": [{"url": "https://labels.example/ci.pdf", "contentType": "COMMERCIAL_INVOICE", "docType": "PDF"}],
      "alerts": [{"code": "SHIP.RECIPIENT.POSTALCITY.MISMATCH", "alertType": "WARNING", "message": "Recipient postal-city combination mismatch."}]
    }]
  }
}`

func captureShipment(t *testing.T, captured *map[string]any, response string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ship/v1/shipments", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, captured))
		_, _ = w.Write([]byte(response))
	}))
}

func TestClient_CreateShipment_Domestic(t *testing.T) {
	var payload map[string]any
	server := captureShipment(t, &payload, shipOK)
	defer server.Close()

	s := testBuilder("US").Domestic(shipping.Money{Amount: decimal.NewFromInt(40), Currency: "USD"})
	token := shipping.AuthToken{AccessToken: "tok"}

	conf, err := newTestClient(server.URL).CreateShipment(context.Background(), token, testCreds(), s)
	require.NoError(t, err)

	assert.Equal(t, "794953535000", conf.MasterTrackingNumber)
	assert.Equal(t, "0430", conf.MasterFormID)
	url, ok := shipping.ExtractLabelURL(conf.Documents)
	require.True(t, ok)
	assert.Equal(t, "https://labels.example/l.pdf", url)
	require.Len(t, conf.Alerts, 1)
	assert.Equal(t, "SHIP.RECIPIENT.POSTALCITY.MISMATCH", conf.Alerts[0].Code)

	rs := payload["requestedShipment"].(map[string]any)
	assert.Equal(t, "2024-03-01", rs["shipDatestamp"])
	assert.Equal(t, "FEDEX_GROUND", rs["serviceType"])
	assert.Equal(t, "YOUR_PACKAGING", rs["packagingType"])
	assert.Equal(t, "DROPOFF_AT_FEDEX_LOCATION", rs["pickupType"])
	assert.NotContains(t, rs, "customsClearanceDetail")
	assert.NotContains(t, rs, "shipmentSpecialServices")

	label := rs["labelSpecification"].(map[string]any)
	assert.Equal(t, "COMMON2D", label["labelFormatType"])
	assert.Equal(t, "PDF", label["imageType"])

	pay := rs["shippingChargesPayment"].(map[string]any)
	assert.Equal(t, "SENDER", pay["paymentType"])
	acct := pay["payor"].(map[string]any)["responsibleParty"].(map[string]any)["accountNumber"].(map[string]any)
	assert.Equal(t, "740561073", acct["value"])

	pkgs := rs["requestedPackageLineItems"].([]any)
	require.Len(t, pkgs, 1)
	pkg := pkgs[0].(map[string]any)
	w := pkg["weight"].(map[string]any)
	assert.Equal(t, "KG", w["units"])
	assert.Equal(t, 1.2, w["value"])
	assert.NotContains(t, pkg, "dimensions")
	assert.Equal(t, 40.0, pkg["declaredValue"].(map[string]any)["amount"])

	recipients := rs["recipients"].([]any)
	require.Len(t, recipients, 1)
	contact := recipients[0].(map[string]any)["contact"].(map[string]any)
	assert.Equal(t, "Rita Receiver", contact["personName"])
	assert.Equal(t, "5550100", contact["phoneNumber"])

	shipper := rs["shipper"].(map[string]any)
	tins := shipper["tins"].([]any)
	assert.Equal(t, "12-3456789", tins[0].(map[string]any)["number"])
}

func TestClient_CreateShipment_International(t *testing.T) {
	var payload map[string]any
	server := captureShipment(t, &payload, shipOK)
	defer server.Close()

	sig := order.SignatureDirect
	value := shipping.Money{Amount: decimal.NewFromInt(80), Currency: "USD"}
	dims := &shipping.Dimensions{
		Length: decimal.NewFromInt(30), Width: decimal.NewFromInt(20), Height: decimal.NewFromInt(5),
		Units: order.DimensionCM,
	}
	s := testBuilder("TR").
		Service(order.ServiceInternationalPriority, order.PackagingYourPackaging, order.PickupDropoff).
		Package(decimal.RequireFromString("1.2"), dims).
		Signature(&sig).
		International(shipping.CustomsClearance{
			DutiesPaymentType: order.PaymentRecipient,
			TotalCustomsValue: value,
			Commodity: shipping.Commodity{
				Description: "Printed poster", CountryOfManufacture: "US", HarmonizedCode: "491199",
				Quantity: 2, WeightKG: decimal.RequireFromString("1.2"), CustomsValue: value,
			},
			TermsOfSale: order.TermsDAP,
		}, true)

	_, err := newTestClient(server.URL).CreateShipment(context.Background(), shipping.AuthToken{AccessToken: "tok"}, testCreds(), s)
	require.NoError(t, err)

	rs := payload["requestedShipment"].(map[string]any)
	assert.Equal(t, "FEDEX_INTERNATIONAL_PRIORITY", rs["serviceType"])

	cc := rs["customsClearanceDetail"].(map[string]any)
	duties := cc["dutiesPayment"].(map[string]any)
	assert.Equal(t, "RECIPIENT", duties["paymentType"])
	assert.NotContains(t, duties, "payor")
	assert.Equal(t, "DAP", cc["commercialInvoice"].(map[string]any)["termsOfSale"])
	commodities := cc["commodities"].([]any)
	require.Len(t, commodities, 1)
	c := commodities[0].(map[string]any)
	assert.Equal(t, "491199", c["harmonizedCode"])
	assert.Equal(t, 80.0, c["customsValue"].(map[string]any)["amount"])
	assert.Equal(t, 40.0, c["unitPrice"].(map[string]any)["amount"])

	special := rs["shipmentSpecialServices"].(map[string]any)
	assert.Equal(t, []any{"ELECTRONIC_TRADE_DOCUMENTS"}, special["specialServiceTypes"])
	assert.Contains(t, rs, "shippingDocumentSpecification")

	pkg := rs["requestedPackageLineItems"].([]any)[0].(map[string]any)
	assert.Equal(t, "CM", pkg["dimensions"].(map[string]any)["units"])
	assert.Equal(t, "DIRECT", pkg["packageSpecialServices"].(map[string]any)["signatureOptionType"])
	assert.NotContains(t, pkg, "declaredValue")
}

func TestClient_CreateShipment_Errors(t *testing.T) {
	s := testBuilder("US").Domestic(shipping.Money{Amount: decimal.Zero, Currency: "USD"})
	token := shipping.AuthToken{AccessToken: "tok"}

	tests := []struct {
		name         string
		status       int
		body         string
		wantCode     string
		wantProvider string
	}{
		{"validation rejected", http.StatusBadRequest,
			`{"errors":[{"code":"SHIPPER.POSTALSTATE.MISMATCH","message":"Invalid shipper postal code/state combination."}]}`,
			shared.CodeUpstream, "SHIPPER.POSTALSTATE.MISMATCH"},
		{"expired token", http.StatusUnauthorized,
			`{"errors":[{"code":"NOT.AUTHORIZED.ERROR","message":"expired"}]}`,
			shared.CodeAuth, "NOT.AUTHORIZED.ERROR"},
		{"server error without body", http.StatusServiceUnavailable, ``,
			shared.CodeUpstream, "Service Unavailable"},
		{"not json", http.StatusOK, `<html>`, shared.CodeMalformed, ""},
		{"empty output", http.StatusOK, `{"transactionId":"x","output":{"transactionShipments":[]}}`, shared.CodeMalformed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).CreateShipment(context.Background(), token, testCreds(), s)
			de, ok := shared.AsDomainError(err)
			require.True(t, ok, "expected DomainError, got %v", err)
			assert.Equal(t, tt.wantCode, de.Code)
			assert.Equal(t, tt.wantProvider, de.ProviderCode)
		})
	}
}

func TestShipResponse_TrackingFallsBackToPieces(t *testing.T) {
	r := shipResponse{Output: &shipOutput{TransactionShipments: []transactionShipment{{
		PieceResponses: []pieceResponse{{TrackingNumber: "111", PackageDocuments: []document{{URL: "u", DocType: "PDF"}}}},
	}}}}
	conf := r.toConfirmation()
	require.NotNil(t, conf)
	assert.Equal(t, "111", conf.MasterTrackingNumber)

	out, err := conf.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "u", out.LabelURL)
}
