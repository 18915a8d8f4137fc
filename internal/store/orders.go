package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"checkout-gateway/internal/models"
)

const orderColumns = `id, increment_id, quote_id, status, grand_total, currency, customer_email,
		payment_method, payment_info, created_at, updated_at`

type orderRow struct {
	models.Order
	PaymentMethod sql.NullString     `db:"payment_method"`
	PaymentInfo   models.PaymentInfo `db:"payment_info"`
}

func (r *orderRow) toOrder() *models.Order {
	order := r.Order
	if r.PaymentMethod.Valid && r.PaymentMethod.String != "" {
		order.Payment = &models.Payment{
			Method: r.PaymentMethod.String,
			Info:   r.PaymentInfo,
		}
	}
	return &order
}

// GetOrderByID retrieves an order with its payment by entity ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var row orderRow
	err := s.db.GetContext(ctx, &row, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return row.toOrder(), nil
}

// GetOrderByIncrementID retrieves an order by its customer-facing reference
func (s *Store) GetOrderByIncrementID(ctx context.Context, incrementID string) (*models.Order, error) {
	var row orderRow
	err := s.db.GetContext(ctx, &row, "SELECT "+orderColumns+" FROM orders WHERE increment_id = $1", incrementID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, incrementID)
	}
	if err != nil {
		return nil, err
	}
	return row.toOrder(), nil
}

// SaveOrder persists the order status and payment record
func (s *Store) SaveOrder(ctx context.Context, order *models.Order) error {
	var method sql.NullString
	var info interface{}
	if order.Payment != nil {
		method = sql.NullString{String: order.Payment.Method, Valid: true}
		info = order.Payment.Info
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, payment_method = $2, payment_info = $3, updated_at = NOW() WHERE id = $4",
		order.Status, method, info, order.ID)
	if err != nil {
		return fmt.Errorf("failed to save order %d: %w", order.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrOrderNotFound, order.ID)
	}
	return nil
}
