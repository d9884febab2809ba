package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"market/internal/auth"
	kafkax "market/internal/kafka"
	"market/internal/market"
	"market/internal/redisx"
)

type OrderHandler struct {
	Orders   OrderStore
	Products ProductStore
	Redis    *redis.Client

	ProducerReserved *kafkax.Producer
	ProducerApproved *kafkax.Producer
	Service          string
}

type reserveReq struct {
	Price    int64 `json:"price"`
	Quantity int64 `json:"quantity"`
}

type reserveResp struct {
	Message    string `json:"message"`
	OrderID    string `json:"order_id"`
	TotalPrice int64  `json:"total_price"`
}

type approveResp struct {
	ID       string             `json:"id"`
	BuyerID  string             `json:"buyer_id"`
	Quantity int64              `json:"quantity"`
	Status   market.OrderStatus `json:"status"`
}

func (h *OrderHandler) reserve(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	productID := chi.URLParam(r, "id")

	var req reserveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.Reserve(ctx, productID, id.MemberID, req.Price, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}

	if p, err := h.Products.Get(ctx, productID); err == nil {
		h.publish(h.ProducerReserved, market.EventOrderReserved, o.ID, r.Header.Get("X-Request-Id"),
			market.OrderReservedPayload{
				OrderID:    o.ID,
				ProductID:  o.ProductID,
				SellerID:   p.SellerID,
				BuyerID:    o.BuyerID,
				Quantity:   o.Quantity,
				TotalPrice: o.TotalPrice,
			})
	}

	writeJSON(w, http.StatusOK, reserveResp{
		Message:    "reservation accepted",
		OrderID:    o.ID,
		TotalPrice: o.TotalPrice,
	})
}

func (h *OrderHandler) approve(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, p, err := h.Orders.Approve(ctx, orderID, id.MemberID)
	if err != nil {
		writeError(w, err)
		return
	}

	// the approval changed stock/status; drop the stale cached detail
	if h.Redis != nil {
		_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyProduct, p.ID)).Err()
	}

	h.publish(h.ProducerApproved, market.EventSaleApproved, o.ID, r.Header.Get("X-Request-Id"),
		market.SaleApprovedPayload{
			OrderID:        o.ID,
			ProductID:      p.ID,
			SellerID:       p.SellerID,
			BuyerID:        o.BuyerID,
			Quantity:       o.Quantity,
			TotalPrice:     o.TotalPrice,
			RemainingStock: p.Stock,
			ProductStatus:  p.Status,
		})

	writeJSON(w, http.StatusOK, approveResp{
		ID:       o.ID,
		BuyerID:  o.BuyerID,
		Quantity: o.Quantity,
		Status:   o.Status,
	})
}

func (h *OrderHandler) buyerList(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	out, err := h.Orders.ListByBuyer(r.Context(), id.MemberID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrderHandler) sellerList(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if _, err := h.Products.Get(r.Context(), productID); err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Orders.ListByProduct(r.Context(), productID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrderHandler) publish(p *kafkax.Producer, eventType, orderID, traceID string, payload any) {
	if p == nil {
		return
	}
	ev := market.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       traceID,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(market.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
