package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/livefire2015/ez-credit/src/models"
)

const customerColumns = `id, name, company_name, customer_type, credit_limit, credit_hold, current_balance,
	overdue_amount, max_overdue_days, last_credit_check, is_deleted, version, created_at, updated_at`

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var (
		c               models.Customer
		companyName     sql.NullString
		lastCreditCheck sql.NullTime
	)
	err := row.Scan(
		&c.ID, &c.Name, &companyName, &c.CustomerType, &c.CreditLimit, &c.CreditHold, &c.CurrentBalance,
		&c.OverdueAmount, &c.MaxOverdueDays, &lastCreditCheck, &c.IsDeleted, &c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.CompanyName = stringPtr(companyName)
	c.LastCreditCheck = timePtr(lastCreditCheck)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

// CreateCustomer inserts a customer row. The ledger owns customers; this
// is used for imports and tests.
func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := s.timestamp()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}

	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.Name, nullString(c.CompanyName), c.CustomerType, c.CreditLimit, c.CreditHold, c.CurrentBalance,
		c.OverdueAmount, c.MaxOverdueDays, nullTime(c.LastCreditCheck), c.IsDeleted, c.Version,
		c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// GetCustomer returns the customer whether or not it is soft deleted
func (s *Store) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	c, err := scanCustomer(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return c, nil
}

// ListCustomers returns customers in creation order
func (s *Store) ListCustomers(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, error) {
	var a args
	var conditions []string
	if !filter.IncludeDeleted {
		conditions = append(conditions, "is_deleted = "+a.add(false))
	}
	if filter.CustomerType != nil {
		conditions = append(conditions, "customer_type = "+a.add(string(*filter.CustomerType)))
	}

	query := `SELECT ` + customerColumns + ` FROM customers` + where(conditions) + ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, a.values...)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

// UpdateCreditSnapshot caches the overdue figures of a credit check
func (s *Store) UpdateCreditSnapshot(ctx context.Context, update models.CreditSnapshotUpdate) error {
	query := `
		UPDATE customers
		SET overdue_amount = $1, max_overdue_days = $2, last_credit_check = $3,
			version = version + 1, updated_at = $4
		WHERE id = $5 AND version = $6
	`
	result, err := s.db.ExecContext(ctx, query,
		update.OverdueAmount, update.MaxOverdueDays, update.CheckedAt.UTC(),
		s.timestamp(), update.CustomerID, update.ExpectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update credit snapshot: %w", err)
	}
	return s.checkCustomerWrite(ctx, result, update.CustomerID)
}

// SetCreditHold sets or clears the hold flag
func (s *Store) SetCreditHold(ctx context.Context, id uuid.UUID, expectedVersion int64, hold bool) error {
	query := `
		UPDATE customers
		SET credit_hold = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4
	`
	result, err := s.db.ExecContext(ctx, query, hold, s.timestamp(), id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to set credit hold: %w", err)
	}
	return s.checkCustomerWrite(ctx, result, id)
}

// checkCustomerWrite tells a missing row apart from a stale version when a
// compare-and-swap update touched nothing
func (s *Store) checkCustomerWrite(ctx context.Context, result sql.Result, id uuid.UUID) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM customers WHERE id = $1`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrRecordNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check customer: %w", err)
	}
	return models.ErrVersionConflict
}
