package market

import (
	"encoding/json"
	"time"
)

const (
	EventOrderReserved = "OrderReserved"
	EventSaleApproved  = "SaleApproved"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type OrderReservedPayload struct {
	OrderID    string `json:"order_id"`
	ProductID  string `json:"product_id"`
	SellerID   string `json:"seller_id"`
	BuyerID    string `json:"buyer_id"`
	Quantity   int64  `json:"quantity"`
	TotalPrice int64  `json:"total_price"`
}

type SaleApprovedPayload struct {
	OrderID        string        `json:"order_id"`
	ProductID      string        `json:"product_id"`
	SellerID       string        `json:"seller_id"`
	BuyerID        string        `json:"buyer_id"`
	Quantity       int64         `json:"quantity"`
	TotalPrice     int64         `json:"total_price"`
	RemainingStock int64         `json:"remaining_stock"`
	ProductStatus  ProductStatus `json:"product_status"`
}
