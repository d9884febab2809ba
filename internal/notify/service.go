// Package notify turns order events into durable notifications for the
// member who needs to act on them: the seller when a reservation lands,
// the buyer when a sale is approved.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "market/internal/kafka"
	"market/internal/market"
	"market/internal/redisx"
	"market/internal/store"
)

const (
	KindReservation = "RESERVATION"
	KindSale        = "SALE_COMPLETED"
)

type NotificationStore interface {
	Create(ctx context.Context, n store.Notification) error
}

type Service struct {
	Store NotificationStore
	Redis *redis.Client
	Log   *zap.Logger
}

// HandleEvent is the consumer handler for both order topics. Returning an
// error keeps the offset uncommitted so the message is retried.
func (s *Service) HandleEvent(ctx context.Context, m kafkago.Message) error {
	var env market.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message; retrying will not help
		s.Log.Warn("dropping undecodable event", zap.Error(err))
		return nil
	}

	// dedup on event_id across redeliveries
	if s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", env.EventID)
		first, err := redisx.Once(ctx, s.Redis, dkey, redisx.TTLDedup)
		if err != nil {
			return err
		}
		if !first {
			return nil
		}
	}

	switch env.EventType {
	case market.EventOrderReserved:
		p, err := kafkax.UnwrapPayload[market.OrderReservedPayload](env.Payload)
		if err != nil {
			return err
		}
		return s.record(ctx, p.SellerID, p.OrderID, KindReservation,
			fmt.Sprintf("new reservation: %d unit(s), total %d", p.Quantity, p.TotalPrice))

	case market.EventSaleApproved:
		p, err := kafkax.UnwrapPayload[market.SaleApprovedPayload](env.Payload)
		if err != nil {
			return err
		}
		return s.record(ctx, p.BuyerID, p.OrderID, KindSale,
			fmt.Sprintf("your order was approved: %d unit(s), total %d", p.Quantity, p.TotalPrice))

	default:
		return nil // not ours
	}
}

func (s *Service) record(ctx context.Context, memberID, orderID, kind, message string) error {
	n := store.Notification{
		ID:        uuid.NewString(),
		MemberID:  memberID,
		OrderID:   orderID,
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.Create(ctx, n); err != nil {
		return err
	}
	s.Log.Info("notification recorded",
		zap.String("member_id", memberID), zap.String("order_id", orderID), zap.String("kind", kind))
	return nil
}
