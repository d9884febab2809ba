package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Notification struct {
	ID        string    `json:"id"`
	MemberID  string    `json:"member_id"`
	OrderID   string    `json:"order_id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type NotificationRepo struct{ DB *pgxpool.Pool }

func (r *NotificationRepo) Create(ctx context.Context, n Notification) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO notifications(id, member_id, order_id, kind, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.MemberID, n.OrderID, n.Kind, n.Message, n.CreatedAt,
	)
	return err
}

func (r *NotificationRepo) ListByMember(ctx context.Context, memberID string) ([]Notification, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, member_id, order_id, kind, message, created_at
		FROM notifications WHERE member_id=$1 ORDER BY created_at DESC`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.MemberID, &n.OrderID, &n.Kind, &n.Message, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
