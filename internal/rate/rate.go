// Package rate converts a pool's annual interest rate into the upfront rate
// paid to a depositor who locks funds for a given period.
package rate

import (
	"github.com/Bacon-labs/88mph-frontend/internal/fee"
	"github.com/Bacon-labs/88mph-frontend/internal/num"
)

// SecondsPerYear is the Julian year. Deposit APY uses the same constant.
const SecondsPerYear int64 = 31556952

var (
	secondsPerYear = num.FromInt(SecondsPerYear)

	// DefaultUIRMultiplier is the fraction of future interest paid upfront.
	DefaultUIRMultiplier = num.MustParse("0.5")
)

// Model is the upfront interest rate model.
type Model struct {
	Fee           fee.Transform
	UIRMultiplier num.Num
}

// NewModel returns a model with the given fee and multiplier.
func NewModel(f fee.Transform, uirMultiplier num.Num) Model {
	return Model{Fee: f, UIRMultiplier: uirMultiplier}
}

// DefaultModel uses the default protocol fee and multiplier.
func DefaultModel() Model {
	return NewModel(fee.Default(), DefaultUIRMultiplier)
}

// MoneyMarketRate strips the protocol fee from a display annual rate.
func (m Model) MoneyMarketRate(oneYearInterestRate num.Num) num.Num {
	return m.Fee.Unapply(oneYearInterestRate)
}

// PerSecondRate is raw / (multiplier * (1 - raw)) / SecondsPerYear where raw is
// the money-market annual rate.
func (m Model) PerSecondRate(oneYearInterestRate num.Num) num.Num {
	raw := m.MoneyMarketRate(oneYearInterestRate)
	return raw.
		Div(m.UIRMultiplier.Mul(num.One.Sub(raw))).
		Div(secondsPerYear)
}

// UpfrontInterestRate returns the proportion of principal paid as interest at
// deposit time for locking depositPeriodInSeconds.
//
// The result is NaN when the money-market rate is exactly 1 and may be
// negative when it exceeds 1; see Valid.
func (m Model) UpfrontInterestRate(oneYearInterestRate num.Num, depositPeriodInSeconds int64) num.Num {
	perSecond := m.PerSecondRate(oneYearInterestRate)
	discount := num.One.Add(
		m.UIRMultiplier.Mul(perSecond).Mul(num.FromInt(depositPeriodInSeconds)),
	)
	raw := num.One.Sub(num.One.Div(discount))
	return m.Fee.Apply(raw)
}

// Valid reports whether the money-market rate behind oneYearInterestRate lies
// in [0, 1), the only range where UpfrontInterestRate is meaningful.
func (m Model) Valid(oneYearInterestRate num.Num) bool {
	raw := m.MoneyMarketRate(oneYearInterestRate)
	return raw.GreaterThanOrEqual(num.Zero) && raw.LessThan(num.One)
}

// Asymptote is the limit of UpfrontInterestRate as the period grows.
func (m Model) Asymptote() num.Num {
	return m.Fee.Apply(num.One)
}
