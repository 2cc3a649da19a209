package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/livefire2015/ez-credit/src/logger"
	"github.com/livefire2015/ez-credit/src/models"
)

// policyStrategy is one step of the policy resolution chain. It returns
// models.ErrRecordNotFound when it has nothing to offer.
type policyStrategy struct {
	source models.PolicySource
	lookup func(ctx context.Context, segment models.CustomerType) (*models.DebtConfiguration, error)
}

// DebtPolicyService resolves and administers debt policies
type DebtPolicyService struct {
	configurations DebtConfigurationRepository
	strategies     []policyStrategy
}

// NewDebtPolicyService creates a policy service. The resolution order is
// segment row, "Default" row, any active row, then the built-in policy.
func NewDebtPolicyService(configurations DebtConfigurationRepository) *DebtPolicyService {
	s := &DebtPolicyService{configurations: configurations}
	s.strategies = []policyStrategy{
		{
			source: models.PolicySourceSegment,
			lookup: func(ctx context.Context, segment models.CustomerType) (*models.DebtConfiguration, error) {
				if segment == "" {
					return nil, models.ErrRecordNotFound
				}
				return s.configurations.GetActiveDebtConfiguration(ctx, string(segment))
			},
		},
		{
			source: models.PolicySourceDefault,
			lookup: func(ctx context.Context, _ models.CustomerType) (*models.DebtConfiguration, error) {
				return s.configurations.GetActiveDebtConfiguration(ctx, models.DefaultConfigurationName)
			},
		},
		{
			source: models.PolicySourceAnyActive,
			lookup: func(ctx context.Context, _ models.CustomerType) (*models.DebtConfiguration, error) {
				return s.configurations.GetActiveDebtConfiguration(ctx, "")
			},
		},
	}
	return s
}

// ResolvePolicy returns the effective policy for a customer segment. It never
// fails: store errors are logged and the next strategy is tried.
func (s *DebtPolicyService) ResolvePolicy(ctx context.Context, segment models.CustomerType) models.DebtPolicy {
	if s.configurations == nil {
		return models.BuiltInDebtPolicy()
	}

	for _, strategy := range s.strategies {
		cfg, err := strategy.lookup(ctx, segment)
		if err != nil {
			if !errors.Is(err, models.ErrRecordNotFound) {
				logger.Warn(ctx, "debt configuration lookup failed",
					"segment", segment,
					"strategy", strategy.source,
					"error", err)
			}
			continue
		}
		if cfg == nil {
			continue
		}
		return cfg.Policy(strategy.source)
	}

	logger.Debug(ctx, "no active debt configuration, using built-in policy", "segment", segment)
	return models.BuiltInDebtPolicy()
}

// ListDebtConfigurations returns every stored policy row ordered by name
func (s *DebtPolicyService) ListDebtConfigurations(ctx context.Context) ([]models.DebtConfiguration, error) {
	if s.configurations == nil {
		return nil, errors.New("debt configuration repository not configured")
	}
	configs, err := s.configurations.ListDebtConfigurations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list debt configurations: %w", err)
	}
	return configs, nil
}

// SaveDebtConfiguration validates and upserts a policy row by name
func (s *DebtPolicyService) SaveDebtConfiguration(ctx context.Context, cfg *models.DebtConfiguration) error {
	if s.configurations == nil {
		return errors.New("debt configuration repository not configured")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := s.configurations.SaveDebtConfiguration(ctx, cfg); err != nil {
		return fmt.Errorf("failed to save debt configuration %s: %w", cfg.Name, err)
	}
	logger.Info(ctx, "debt configuration saved",
		"name", cfg.Name,
		"max_overdue_days", cfg.MaxOverdueDays,
		"credit_limit_percent", cfg.CreditLimitPercent.String(),
		"active", cfg.IsActive)
	return nil
}
