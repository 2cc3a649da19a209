package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/livefire2015/ez-credit/src/models"
)

const invoiceColumns = `id, invoice_number, customer_id, order_id, invoice_type, status,
	total_amount, balance_amount, due_date, paid_at, created_at, updated_at`

func scanInvoice(row rowScanner) (*models.Invoice, error) {
	var (
		inv     models.Invoice
		orderID uuid.NullUUID
		dueDate sql.NullTime
		paidAt  sql.NullTime
	)
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.CustomerID, &orderID, &inv.InvoiceType, &inv.Status,
		&inv.TotalAmount, &inv.BalanceAmount, &dueDate, &paidAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if orderID.Valid {
		inv.OrderID = &orderID.UUID
	}
	inv.DueDate = timePtr(dueDate)
	inv.PaidAt = timePtr(paidAt)
	inv.CreatedAt = inv.CreatedAt.UTC()
	inv.UpdatedAt = inv.UpdatedAt.UTC()
	return &inv, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// CreateInvoice inserts an invoice row. Invoices are issued by billing;
// this is used for imports and tests.
func (s *Store) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	now := s.timestamp()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	if inv.UpdatedAt.IsZero() {
		inv.UpdatedAt = now
	}

	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		inv.ID, inv.InvoiceNumber, inv.CustomerID, nullUUID(inv.OrderID), inv.InvoiceType, inv.Status,
		inv.TotalAmount, inv.BalanceAmount, nullTime(inv.DueDate), nullTime(inv.PaidAt),
		inv.CreatedAt.UTC(), inv.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// ListInvoices returns matching invoices ordered by creation time
func (s *Store) ListInvoices(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error) {
	var a args
	var conditions []string
	if filter.CustomerID != nil {
		conditions = append(conditions, "customer_id = "+a.add(*filter.CustomerID))
	}
	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		conditions = append(conditions, "invoice_type IN "+a.in(types))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		conditions = append(conditions, "status IN "+a.in(statuses))
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices` + where(conditions) + ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, a.values...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}
