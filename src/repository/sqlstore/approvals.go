package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/livefire2015/ez-credit/src/models"
)

const approvalColumns = `id, customer_id, order_id, requested_amount, current_debt, credit_limit, reason,
	status, approved_by, approved_at, rejected_reason, expires_at, created_at, updated_at`

func scanApproval(row rowScanner) (*models.CreditApproval, error) {
	var (
		a              models.CreditApproval
		orderID        uuid.NullUUID
		approvedBy     sql.NullString
		approvedAt     sql.NullTime
		rejectedReason sql.NullString
	)
	err := row.Scan(
		&a.ID, &a.CustomerID, &orderID, &a.RequestedAmount, &a.CurrentDebt, &a.CreditLimit, &a.Reason,
		&a.Status, &approvedBy, &approvedAt, &rejectedReason, &a.ExpiresAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if orderID.Valid {
		a.OrderID = &orderID.UUID
	}
	a.ApprovedBy = stringPtr(approvedBy)
	a.ApprovedAt = timePtr(approvedAt)
	a.RejectedReason = stringPtr(rejectedReason)
	a.ExpiresAt = a.ExpiresAt.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

func (s *Store) queryApprovals(ctx context.Context, query string, args ...interface{}) ([]models.CreditApproval, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit approvals: %w", err)
	}
	defer rows.Close()

	var approvals []models.CreditApproval
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit approval: %w", err)
		}
		approvals = append(approvals, *a)
	}
	return approvals, rows.Err()
}

// CreateApproval stores a new approval request
func (s *Store) CreateApproval(ctx context.Context, a *models.CreditApproval) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	query := `
		INSERT INTO credit_approvals (` + approvalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.CustomerID, nullUUID(a.OrderID), a.RequestedAmount, a.CurrentDebt, a.CreditLimit, a.Reason,
		a.Status, nullString(a.ApprovedBy), nullTime(a.ApprovedAt), nullString(a.RejectedReason),
		a.ExpiresAt.UTC(), a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create credit approval: %w", err)
	}
	return nil
}

// GetApproval returns one approval
func (s *Store) GetApproval(ctx context.Context, id uuid.UUID) (*models.CreditApproval, error) {
	query := `SELECT ` + approvalColumns + ` FROM credit_approvals WHERE id = $1`

	a, err := scanApproval(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credit approval: %w", err)
	}
	return a, nil
}

// UpdateApprovalDecision records the decision only while the stored row is
// still pending. A row decided in the meantime yields ErrVersionConflict.
func (s *Store) UpdateApprovalDecision(ctx context.Context, a *models.CreditApproval) error {
	query := `
		UPDATE credit_approvals
		SET status = $1, approved_by = $2, approved_at = $3, rejected_reason = $4, updated_at = $5
		WHERE id = $6 AND status = $7
	`
	result, err := s.db.ExecContext(ctx, query,
		a.Status, nullString(a.ApprovedBy), nullTime(a.ApprovedAt), nullString(a.RejectedReason),
		a.UpdatedAt.UTC(), a.ID, models.ApprovalStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to update credit approval: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected > 0 {
		return nil
	}
	if _, err := s.GetApproval(ctx, a.ID); err != nil {
		return err
	}
	return models.ErrVersionConflict
}

// FindActiveApproval returns the approved grant in force at now that
// expires last
func (s *Store) FindActiveApproval(ctx context.Context, customerID uuid.UUID, now time.Time) (*models.CreditApproval, error) {
	query := `
		SELECT ` + approvalColumns + `
		FROM credit_approvals
		WHERE customer_id = $1 AND status = $2 AND expires_at > $3
		ORDER BY expires_at DESC
		LIMIT 1
	`
	a, err := scanApproval(s.db.QueryRowContext(ctx, query, customerID, models.ApprovalStatusApproved, now.UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active credit approval: %w", err)
	}
	return a, nil
}

// ListApprovals returns matching approvals newest first
func (s *Store) ListApprovals(ctx context.Context, filter models.ApprovalFilter) ([]models.CreditApproval, error) {
	var a args
	var conditions []string
	if filter.CustomerID != nil {
		conditions = append(conditions, "customer_id = "+a.add(*filter.CustomerID))
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = "+a.add(string(*filter.Status)))
	}

	query := `SELECT ` + approvalColumns + ` FROM credit_approvals` + where(conditions) + ` ORDER BY created_at DESC, id`
	return s.queryApprovals(ctx, query, a.values...)
}
