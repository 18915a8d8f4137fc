package store

import (
	"context"

	"checkout-gateway/internal/models"
)

// RecordCheckoutEvent writes an audit row; duplicates by event id are ignored
func (s *Store) RecordCheckoutEvent(ctx context.Context, rec *models.CheckoutEventRecord) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO checkout_events (event_id, event_type, order_id, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING`,
		rec.EventID, rec.EventType, rec.OrderID, string(rec.Payload))
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetCheckoutEvents lists the audit rows for an order, oldest first
func (s *Store) GetCheckoutEvents(ctx context.Context, orderID int64) ([]models.CheckoutEventRecord, error) {
	var records []models.CheckoutEventRecord
	err := s.db.SelectContext(ctx, &records,
		"SELECT event_id, event_type, order_id, payload, created_at FROM checkout_events WHERE order_id = $1 ORDER BY created_at",
		orderID)
	return records, err
}
