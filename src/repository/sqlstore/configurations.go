package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/livefire2015/ez-credit/src/models"
)

const configurationColumns = `id, name, description, max_overdue_days, credit_limit_percent,
	warning_days, auto_hold_on_overdue, is_active, created_at, updated_at`

func scanConfiguration(row rowScanner) (*models.DebtConfiguration, error) {
	var (
		cfg         models.DebtConfiguration
		description sql.NullString
	)
	err := row.Scan(
		&cfg.ID, &cfg.Name, &description, &cfg.MaxOverdueDays, &cfg.CreditLimitPercent,
		&cfg.WarningDays, &cfg.AutoHoldOnOverdue, &cfg.IsActive, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	cfg.Description = stringPtr(description)
	cfg.CreatedAt = cfg.CreatedAt.UTC()
	cfg.UpdatedAt = cfg.UpdatedAt.UTC()
	return &cfg, nil
}

// GetActiveDebtConfiguration returns the active row with the given name.
// An empty name returns the first active row by name.
func (s *Store) GetActiveDebtConfiguration(ctx context.Context, name string) (*models.DebtConfiguration, error) {
	var a args
	conditions := []string{"is_active = " + a.add(true)}
	if name != "" {
		conditions = append(conditions, "name = "+a.add(name))
	}
	query := `SELECT ` + configurationColumns + ` FROM debt_configurations` + where(conditions) + ` ORDER BY name LIMIT 1`

	cfg, err := scanConfiguration(s.db.QueryRowContext(ctx, query, a.values...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get debt configuration: %w", err)
	}
	return cfg, nil
}

// ListDebtConfigurations returns every row, active or not, by name
func (s *Store) ListDebtConfigurations(ctx context.Context) ([]models.DebtConfiguration, error) {
	query := `SELECT ` + configurationColumns + ` FROM debt_configurations ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list debt configurations: %w", err)
	}
	defer rows.Close()

	var configs []models.DebtConfiguration
	for rows.Next() {
		cfg, err := scanConfiguration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt configuration: %w", err)
		}
		configs = append(configs, *cfg)
	}
	return configs, rows.Err()
}

// SaveDebtConfiguration inserts or replaces the row with the same name.
// The stored ID and creation time survive a replace and are copied back.
func (s *Store) SaveDebtConfiguration(ctx context.Context, cfg *models.DebtConfiguration) error {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	now := s.timestamp()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	query := `
		INSERT INTO debt_configurations (` + configurationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (name) DO UPDATE SET
			description = excluded.description,
			max_overdue_days = excluded.max_overdue_days,
			credit_limit_percent = excluded.credit_limit_percent,
			warning_days = excluded.warning_days,
			auto_hold_on_overdue = excluded.auto_hold_on_overdue,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
		RETURNING id, created_at
	`
	err := s.db.QueryRowContext(ctx, query,
		cfg.ID, cfg.Name, nullString(cfg.Description), cfg.MaxOverdueDays, cfg.CreditLimitPercent,
		cfg.WarningDays, cfg.AutoHoldOnOverdue, cfg.IsActive, cfg.CreatedAt.UTC(), cfg.UpdatedAt,
	).Scan(&cfg.ID, &cfg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save debt configuration: %w", err)
	}
	cfg.CreatedAt = cfg.CreatedAt.UTC()
	return nil
}
