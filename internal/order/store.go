package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"log/slog"

	"esimbot/core/logger"
)

// ErrNotFound is returned when no order matches the query.
var ErrNotFound = errors.New("order: not found")

// Store reads and writes orders.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps the shared database handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new unpaid order and fills in its generated id.
func (s *Store) Create(ctx context.Context, o *Order) error {
	start := time.Now()
	const q = `
		INSERT INTO orders (user_id, username, email, plan_id, amount, memo, paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW())
		RETURNING id, created_at`
	err := s.db.QueryRowxContext(ctx, q,
		o.UserID, o.Username, o.Email, o.PlanID, o.Amount, o.Memo,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("order create: %w", err)
	}
	logger.Info(ctx, "service.orders", "order.create",
		slog.String("status", "ok"),
		slog.Int64("order_id", o.ID),
		slog.String("plan_id", o.PlanID),
		slog.String("memo", o.Memo),
		slog.Float64("amount", o.Amount),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// PendingByUser returns the newest unpaid order for a user.
func (s *Store) PendingByUser(ctx context.Context, userID int64) (*Order, error) {
	const q = `
		SELECT id, user_id, username, email, plan_id, amount, memo, paid,
		       COALESCE(esim_url, '') AS esim_url, created_at
		FROM orders
		WHERE user_id = $1 AND NOT paid
		ORDER BY created_at DESC
		LIMIT 1`
	var o Order
	if err := s.db.GetContext(ctx, &o, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("order pending: %w", err)
	}
	return &o, nil
}

// MarkPaid flips the order to paid and records the provisioned activation URL.
func (s *Store) MarkPaid(ctx context.Context, id int64, esimURL string) error {
	const q = `UPDATE orders SET paid = TRUE, esim_url = $2 WHERE id = $1 AND NOT paid`
	res, err := s.db.ExecContext(ctx, q, id, esimURL)
	if err != nil {
		return fmt.Errorf("order mark paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("order mark paid: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	logger.Info(ctx, "service.orders", "order.paid",
		slog.String("status", "ok"),
		slog.Int64("order_id", id),
	)
	return nil
}

// CancelPending deletes the user's unpaid orders and reports how many were removed.
func (s *Store) CancelPending(ctx context.Context, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE user_id = $1 AND NOT paid`, userID)
	if err != nil {
		return 0, fmt.Errorf("order cancel: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("order cancel: %w", err)
	}
	return n, nil
}

// Stats aggregates completed sales.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	const q = `
		SELECT COUNT(*) AS paid_count,
		       COALESCE(SUM(amount), 0) AS revenue,
		       COUNT(DISTINCT user_id) AS buyers
		FROM orders
		WHERE paid`
	var st Stats
	if err := s.db.GetContext(ctx, &st, q); err != nil {
		return Stats{}, fmt.Errorf("order stats: %w", err)
	}
	return st, nil
}
