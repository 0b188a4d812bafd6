package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultFeeRate is the platform share retained on every salary advance.
var DefaultFeeRate = decimal.RequireFromString("0.065")

// FeeSplit is the breakdown of a disbursed advance.
type FeeSplit struct {
	Amount      int64 // gross advance amount
	Fee         int64 // round(amount * rate)
	EmployeeNet int64 // amount - fee, what the employee received
	PartnerOwed int64 // amount: the partner repays the gross advance
}

// ComputeFees splits amount with rate. A zero rate falls back to DefaultFeeRate.
func ComputeFees(amount int64, rate decimal.Decimal) FeeSplit {
	if rate.IsZero() {
		rate = DefaultFeeRate
	}
	fee := decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
	return FeeSplit{
		Amount:      amount,
		Fee:         fee,
		EmployeeNet: amount - fee,
		PartnerOwed: amount,
	}
}

// ParseFeeRate parses a configured rate, falling back to DefaultFeeRate.
func ParseFeeRate(s string) decimal.Decimal {
	r, err := decimal.NewFromString(s)
	if err != nil || r.IsNegative() || r.IsZero() {
		return DefaultFeeRate
	}
	return r
}

// DueDate is the repayment deadline for a transaction made at t.
func DueDate(t time.Time, days int) time.Time {
	if days <= 0 {
		days = 30
	}
	return t.AddDate(0, 0, days)
}
