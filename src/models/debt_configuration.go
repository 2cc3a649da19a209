package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultConfigurationName is the policy row used when no segment row matches
const DefaultConfigurationName = "Default"

// DebtConfiguration is a stored debt policy keyed by customer segment name
type DebtConfiguration struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	Name               string          `json:"name" db:"name"` // Customer type or "Default"
	Description        *string         `json:"description,omitempty" db:"description"`
	MaxOverdueDays     int             `json:"max_overdue_days" db:"max_overdue_days"`
	CreditLimitPercent decimal.Decimal `json:"credit_limit_percent" db:"credit_limit_percent"` // Usable share of credit limit
	WarningDays        int             `json:"warning_days" db:"warning_days"`
	AutoHoldOnOverdue  bool            `json:"auto_hold_on_overdue" db:"auto_hold_on_overdue"`
	IsActive           bool            `json:"is_active" db:"is_active"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// Validation errors
var (
	ErrConfigurationNameRequired = errors.New("configuration name is required")
	ErrInvalidMaxOverdueDays     = errors.New("max overdue days cannot be negative")
	ErrInvalidCreditLimitPercent = errors.New("credit limit percent must be between 0 (exclusive) and 200")
	ErrInvalidWarningDays        = errors.New("warning days cannot be negative")
)

// Validate validates the configuration row
func (c *DebtConfiguration) Validate() error {
	if c.Name == "" {
		return ErrConfigurationNameRequired
	}
	if c.MaxOverdueDays < 0 {
		return ErrInvalidMaxOverdueDays
	}
	if c.CreditLimitPercent.LessThanOrEqual(decimal.Zero) || c.CreditLimitPercent.GreaterThan(decimal.NewFromInt(200)) {
		return ErrInvalidCreditLimitPercent
	}
	if c.WarningDays < 0 {
		return ErrInvalidWarningDays
	}
	return nil
}

// Policy extracts the effective policy values from the row
func (c *DebtConfiguration) Policy(source PolicySource) DebtPolicy {
	return DebtPolicy{
		MaxOverdueDays:     c.MaxOverdueDays,
		CreditLimitPercent: c.CreditLimitPercent,
		AutoHoldOnOverdue:  c.AutoHoldOnOverdue,
		WarningDays:        c.WarningDays,
		Source:             source,
		ConfigurationName:  c.Name,
	}
}

// PolicySource tells which resolution step produced a policy
type PolicySource string

const (
	PolicySourceSegment   PolicySource = "segment"
	PolicySourceDefault   PolicySource = "default"
	PolicySourceAnyActive PolicySource = "any-active"
	PolicySourceBuiltIn   PolicySource = "built-in"
)

// DebtPolicy is the resolved policy applied to one customer
type DebtPolicy struct {
	MaxOverdueDays     int             `json:"max_overdue_days"`
	CreditLimitPercent decimal.Decimal `json:"credit_limit_percent"`
	AutoHoldOnOverdue  bool            `json:"auto_hold_on_overdue"`
	WarningDays        int             `json:"warning_days"`
	Source             PolicySource    `json:"source"`
	ConfigurationName  string          `json:"configuration_name,omitempty"`
}

// BuiltInDebtPolicy is used when no active configuration row exists at all
func BuiltInDebtPolicy() DebtPolicy {
	return DebtPolicy{
		MaxOverdueDays:     30,
		CreditLimitPercent: decimal.NewFromInt(100),
		AutoHoldOnOverdue:  true,
		WarningDays:        7,
		Source:             PolicySourceBuiltIn,
	}
}

// EffectiveCreditLimit returns creditLimit * creditLimitPercent / 100
func (p DebtPolicy) EffectiveCreditLimit(creditLimit decimal.Decimal) decimal.Decimal {
	return creditLimit.Mul(p.CreditLimitPercent).Div(decimal.NewFromInt(100))
}

// BreachesOverdueLimit reports whether the overdue day count exceeds the policy
func (p DebtPolicy) BreachesOverdueLimit(maxOverdueDays int) bool {
	return maxOverdueDays > p.MaxOverdueDays
}

// ShouldAutoHold reports whether the hold state machine must lock the account
func (p DebtPolicy) ShouldAutoHold(maxOverdueDays int) bool {
	return p.AutoHoldOnOverdue && p.BreachesOverdueLimit(maxOverdueDays)
}
