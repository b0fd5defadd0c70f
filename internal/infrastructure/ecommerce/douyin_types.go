package ecommerce

// ---------------------------------------------------------------------------
// Common Douyin API Response Types
// ---------------------------------------------------------------------------

// DouyinResponse is the envelope every Douyin API call returns
type DouyinResponse struct {
	ErrNo   int    `json:"err_no"`
	Message string `json:"message"`
	LogID   string `json:"log_id,omitempty"`
}

// IsSuccess returns true if the response indicates success
func (r *DouyinResponse) IsSuccess() bool {
	return r.ErrNo == 0
}

// douyinAuthCodes are err_no values for expired or invalid tokens and signatures
var douyinAuthCodes = map[int]bool{
	30001: true, // access token invalid
	30002: true, // access token expired
	30005: true, // signature mismatch
	30007: true, // app key invalid
}

// douyinNotFoundCode is returned when the shop order does not exist
const douyinNotFoundCode = 50002

// ---------------------------------------------------------------------------
// Order Status
// ---------------------------------------------------------------------------

// Douyin order status codes
const (
	DouyinOrderStatusPendingPayment  = 1 // 待支付
	DouyinOrderStatusPendingShipment = 2 // 待发货
	DouyinOrderStatusShipped         = 3 // 已发货
	DouyinOrderStatusCompleted       = 5 // 已完成
	DouyinOrderStatusCancelled       = 4 // 已取消
)

// douyinStatusName maps status codes to names stored on the order
func douyinStatusName(code int) string {
	switch code {
	case DouyinOrderStatusPendingPayment:
		return "PENDING_PAYMENT"
	case DouyinOrderStatusPendingShipment:
		return "PENDING_SHIPMENT"
	case DouyinOrderStatusShipped:
		return "SHIPPED"
	case DouyinOrderStatusCancelled:
		return "CANCELLED"
	case DouyinOrderStatusCompleted:
		return "COMPLETED"
	default:
		return ""
	}
}

// ---------------------------------------------------------------------------
// Order Types
// ---------------------------------------------------------------------------

// DouyinOrderListResponse is the response for /order/searchList
type DouyinOrderListResponse struct {
	DouyinResponse
	Data *DouyinOrderListData `json:"data,omitempty"`
}

// DouyinOrderListData contains one page of orders
type DouyinOrderListData struct {
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Size  int           `json:"size"`
	List  []DouyinOrder `json:"shop_order_list"`
}

// DouyinOrderDetailResponse is the response for /order/orderDetail
type DouyinOrderDetailResponse struct {
	DouyinResponse
	Data *DouyinOrderDetailData `json:"data,omitempty"`
}

// DouyinOrderDetailData wraps the shop order
type DouyinOrderDetailData struct {
	ShopOrderDetail *DouyinOrder `json:"shop_order_detail,omitempty"`
}

// DouyinOrder represents a shop order
type DouyinOrder struct {
	OrderID     string `json:"order_id"`
	OrderStatus int    `json:"order_status"`
	CreateTime  int64  `json:"create_time"` // Unix seconds
	PayTime     int64  `json:"pay_time,omitempty"`

	// Amounts in fen (分)
	PayAmount   int64 `json:"pay_amount"`
	OrderAmount int64 `json:"order_amount"`

	BuyerWords   string              `json:"buyer_words,omitempty"`
	PostReceiver *DouyinPostReceiver `json:"post_receiver,omitempty"`
	SkuOrderList []DouyinSkuOrder    `json:"sku_order_list"`
}

// DouyinPostReceiver is the shipping contact
type DouyinPostReceiver struct {
	Name     string          `json:"name"`
	Phone    string          `json:"phone"`
	Province *DouyinAreaNode `json:"province,omitempty"`
	City     *DouyinAreaNode `json:"city,omitempty"`
	Town     *DouyinAreaNode `json:"town,omitempty"`
	Street   *DouyinAreaNode `json:"street,omitempty"`
	Detail   string          `json:"detail"`
	PostCode string          `json:"post_code,omitempty"`
}

// DouyinAreaNode is one level of the administrative area tree
type DouyinAreaNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (n *DouyinAreaNode) name() string {
	if n == nil {
		return ""
	}
	return n.Name
}

// DouyinSkuOrder represents one line item
type DouyinSkuOrder struct {
	SkuOrderID   string          `json:"order_id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	SkuID        string          `json:"sku_id"`
	Code         string          `json:"code,omitempty"` // Seller SKU code
	SkuSpec      []DouyinSkuSpec `json:"spec,omitempty"`
	ItemNum      int64           `json:"item_num"`
	OriginAmount int64           `json:"origin_amount"` // Unit price in fen
	PayAmount    int64           `json:"pay_amount"`    // Line total in fen
	ProductPic   string          `json:"product_pic,omitempty"`
	OutSkuID     string          `json:"out_sku_id,omitempty"`
}

// DouyinSkuSpec is one name/value variant attribute
type DouyinSkuSpec struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
