package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RiskLevel buckets a credit risk score
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

// DefaultRiskBaseLimit is assumed when a customer has no credit limit set
var DefaultRiskBaseLimit = decimal.NewFromInt(50_000_000)

// RiskLevelForScore maps a 0-100 score to a risk level
func RiskLevelForScore(score int) RiskLevel {
	switch {
	case score <= 25:
		return RiskLevelLow
	case score <= 50:
		return RiskLevelMedium
	case score <= 75:
		return RiskLevelHigh
	default:
		return RiskLevelCritical
	}
}

// LimitMultiplier returns the factor applied to the base limit for a suggestion
func (l RiskLevel) LimitMultiplier() decimal.Decimal {
	switch l {
	case RiskLevelLow:
		return decimal.NewFromFloat(1.2)
	case RiskLevelMedium:
		return decimal.NewFromInt(1)
	case RiskLevelHigh:
		return decimal.NewFromFloat(0.7)
	default:
		return decimal.NewFromFloat(0.3)
	}
}

// RiskFactors holds the individual score components
type RiskFactors struct {
	PaymentHistory int `json:"payment_history"` // 0-30, higher is worse
	DebtRatio      int `json:"debt_ratio"`      // 0-25, higher is worse
	OrderFrequency int `json:"order_frequency"` // 0-20, higher is worse
	AccountAge     int `json:"account_age"`     // 0-15, higher is better
	RecentBehavior int `json:"recent_behavior"` // 0-10, higher is worse
}

// Score combines the factors; account age is inverted
func (f RiskFactors) Score() int {
	return f.PaymentHistory + f.DebtRatio + f.OrderFrequency + f.RecentBehavior + (15 - f.AccountAge)
}

// CreditRiskResult is the risk analysis of one customer
type CreditRiskResult struct {
	CustomerID           uuid.UUID       `json:"customer_id"`
	CustomerName         string          `json:"customer_name"`
	RiskScore            int             `json:"risk_score"`
	RiskLevel            RiskLevel       `json:"risk_level"`
	SuggestedCreditLimit decimal.Decimal `json:"suggested_credit_limit"`
	CurrentDebt          decimal.Decimal `json:"current_debt"`
	MaxCreditLimit       decimal.Decimal `json:"max_credit_limit"`
	Factors              RiskFactors     `json:"factors"`
	Warnings             []string        `json:"warnings"`
	Recommendations      []string        `json:"recommendations"`
}
