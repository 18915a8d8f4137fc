package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"checkout-gateway/internal/models"
)

// GetQuote retrieves a quote by ID
func (s *Store) GetQuote(ctx context.Context, id int64) (*models.Quote, error) {
	var quote models.Quote
	err := s.db.GetContext(ctx, &quote,
		"SELECT id, is_active, reserved_order_id, updated_at FROM quotes WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrQuoteNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// SaveQuote persists the quote's active flag and reserved order id
func (s *Store) SaveQuote(ctx context.Context, quote *models.Quote) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE quotes SET is_active = $1, reserved_order_id = $2, updated_at = NOW() WHERE id = $3",
		quote.IsActive, quote.ReservedOrderID, quote.ID)
	if err != nil {
		return fmt.Errorf("failed to save quote %d: %w", quote.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrQuoteNotFound, quote.ID)
	}
	return nil
}
