package ecommerce

import (
	"strings"
)

// ---------------------------------------------------------------------------
// Common Taobao API Response Types
// ---------------------------------------------------------------------------

// TaobaoResponse is the base response wrapper for all Taobao API calls
type TaobaoResponse struct {
	// ErrorResponse contains error information if the request failed
	ErrorResponse *TaobaoErrorResponse `json:"error_response,omitempty"`
}

// TaobaoErrorResponse represents an error response from Taobao API
type TaobaoErrorResponse struct {
	Code      string `json:"code"`
	Msg       string `json:"msg"`
	SubCode   string `json:"sub_code,omitempty"`
	SubMsg    string `json:"sub_msg,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// IsSuccess returns true if the response indicates success
func (r *TaobaoResponse) IsSuccess() bool {
	return r.ErrorResponse == nil
}

// taobaoAuthCodes are top-level codes for signature, session and app key failures
var taobaoAuthCodes = map[string]bool{
	"25": true, // invalid signature
	"26": true, // missing session
	"27": true, // invalid session
	"28": true, // missing app key
	"29": true, // invalid app key
}

// isAuthFailure reports whether the error means the credentials were rejected
func (e *TaobaoErrorResponse) isAuthFailure() bool {
	return taobaoAuthCodes[e.Code] || strings.HasPrefix(e.SubCode, "isv.invalid-session")
}

// isNotFound reports whether the error means the trade does not exist
func (e *TaobaoErrorResponse) isNotFound() bool {
	return strings.Contains(e.SubCode, "trade-not-exist")
}

// diagnostics returns the most specific code and message
func (e *TaobaoErrorResponse) diagnostics() (string, string) {
	code, msg := e.Code, e.Msg
	if e.SubCode != "" {
		code = e.SubCode
	}
	if e.SubMsg != "" {
		msg = e.SubMsg
	}
	return code, msg
}

// ---------------------------------------------------------------------------
// Trade/Order Related Types
// ---------------------------------------------------------------------------

// TaobaoTradesGetResponse is the response for taobao.trades.sold.get API
type TaobaoTradesGetResponse struct {
	TaobaoResponse
	TradesSoldGetResponse *TradesSoldGetResponse `json:"trades_sold_get_response,omitempty"`
}

// TradesSoldGetResponse contains the sold trades data
type TradesSoldGetResponse struct {
	TotalResults int64         `json:"total_results"`
	HasNext      bool          `json:"has_next"`
	Trades       *TaobaoTrades `json:"trades,omitempty"`
	RequestID    string        `json:"request_id"`
}

// TaobaoTrades is a wrapper for trade list
type TaobaoTrades struct {
	Trade []TaobaoTrade `json:"trade"`
}

// TaobaoTrade represents a trade/order from Taobao
type TaobaoTrade struct {
	Tid       int64  `json:"tid"`    // Trade ID (order number)
	Status    string `json:"status"` // Order status
	BuyerNick string `json:"buyer_nick"`

	// Timestamps, "2006-01-02 15:04:05" in China time
	Created  string `json:"created,omitempty"`
	Modified string `json:"modified,omitempty"`
	PayTime  string `json:"pay_time,omitempty"`

	// Amounts, yuan as decimal strings
	Payment  string `json:"payment,omitempty"`   // What the buyer paid
	TotalFee string `json:"total_fee,omitempty"` // Goods total
	PostFee  string `json:"post_fee,omitempty"`  // Shipping fee

	// Receiver info
	ReceiverName     string `json:"receiver_name,omitempty"`
	ReceiverCountry  string `json:"receiver_country,omitempty"`
	ReceiverState    string `json:"receiver_state,omitempty"`
	ReceiverCity     string `json:"receiver_city,omitempty"`
	ReceiverDistrict string `json:"receiver_district,omitempty"`
	ReceiverAddress  string `json:"receiver_address,omitempty"`
	ReceiverZip      string `json:"receiver_zip,omitempty"`
	ReceiverMobile   string `json:"receiver_mobile,omitempty"`
	ReceiverPhone    string `json:"receiver_phone,omitempty"`

	BuyerMessage string `json:"buyer_message,omitempty"`

	// Order items
	Orders *TaobaoOrders `json:"orders,omitempty"`

	// Single-item trades carry the item inline
	NumIid  int64  `json:"num_iid,omitempty"`
	Title   string `json:"title,omitempty"`
	Price   string `json:"price,omitempty"`
	Num     int64  `json:"num,omitempty"`
	PicPath string `json:"pic_path,omitempty"`
}

// TaobaoOrders is a wrapper for order items
type TaobaoOrders struct {
	Order []TaobaoOrder `json:"order"`
}

// TaobaoOrder represents an order line item
type TaobaoOrder struct {
	Oid               int64  `json:"oid"`                           // Order item ID
	NumIid            int64  `json:"num_iid"`                       // Item ID
	SkuID             string `json:"sku_id,omitempty"`              // SKU ID
	Title             string `json:"title"`                         // Item title
	SkuPropertiesName string `json:"sku_properties_name,omitempty"` // SKU properties
	Price             string `json:"price"`                         // Unit price
	Num               int64  `json:"num"`                           // Quantity
	TotalFee          string `json:"total_fee"`                     // Total fee
	PicPath           string `json:"pic_path,omitempty"`            // Image path
	OuterIid          string `json:"outer_iid,omitempty"`           // Seller item code
	OuterSkuID        string `json:"outer_sku_id,omitempty"`        // Seller SKU code
}

// TaobaoTradeGetResponse is the response for taobao.trade.fullinfo.get API
type TaobaoTradeGetResponse struct {
	TaobaoResponse
	TradeFullinfoGetResponse *TradeFullinfoGetResponse `json:"trade_fullinfo_get_response,omitempty"`
}

// TradeFullinfoGetResponse contains full trade info
type TradeFullinfoGetResponse struct {
	Trade     *TaobaoTrade `json:"trade,omitempty"`
	RequestID string       `json:"request_id"`
}
