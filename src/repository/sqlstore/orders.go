package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/livefire2015/ez-credit/src/models"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, order_number, customer_id, status, payment_status,
	net_amount, deposit_amount, remaining_amount, confirmed_at, created_at, updated_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o           models.Order
		remaining   decimal.NullDecimal
		confirmedAt sql.NullTime
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.Status, &o.PaymentStatus,
		&o.NetAmount, &o.DepositAmount, &remaining, &confirmedAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if remaining.Valid {
		o.RemainingAmount = &remaining.Decimal
	}
	o.ConfirmedAt = timePtr(confirmedAt)
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return &o, nil
}

// CreateOrder inserts an order row. Orders are owned by the sales system;
// this is used for imports and tests.
func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	now := s.timestamp()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = now
	}

	remaining := decimal.NullDecimal{}
	if o.RemainingAmount != nil {
		remaining = decimal.NullDecimal{Decimal: *o.RemainingAmount, Valid: true}
	}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		o.ID, o.OrderNumber, o.CustomerID, o.Status, o.PaymentStatus,
		o.NetAmount, o.DepositAmount, remaining, nullTime(o.ConfirmedAt),
		o.CreatedAt.UTC(), o.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// ListOrders returns matching orders newest first
func (s *Store) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	var a args
	var conditions []string
	if filter.CustomerID != nil {
		conditions = append(conditions, "customer_id = "+a.add(*filter.CustomerID))
	}
	if len(filter.PaymentStatuses) > 0 {
		statuses := make([]string, len(filter.PaymentStatuses))
		for i, st := range filter.PaymentStatuses {
			statuses[i] = string(st)
		}
		conditions = append(conditions, "payment_status IN "+a.in(statuses))
	}
	if len(filter.ExcludeStatuses) > 0 {
		statuses := make([]string, len(filter.ExcludeStatuses))
		for i, st := range filter.ExcludeStatuses {
			statuses[i] = string(st)
		}
		conditions = append(conditions, "status NOT IN "+a.in(statuses))
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + where(conditions) + ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		query += " LIMIT " + a.add(filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, a.values...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}
