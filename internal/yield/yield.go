// Package yield annualizes the interest of realized and projected deposits.
package yield

import (
	"time"

	"github.com/Bacon-labs/88mph-frontend/internal/model"
	"github.com/Bacon-labs/88mph-frontend/internal/num"
	"github.com/Bacon-labs/88mph-frontend/internal/rate"
)

var (
	secondsPerYear = num.FromInt(rate.SecondsPerYear)
	millisPerSec   = num.FromInt(1000)
)

// DepositAPY is the simple-interest annualization of a deposit, in percent:
// interestEarned / amount / lengthInSeconds * SecondsPerYear * 100.
//
// Zero amount or zero length yields NaN.
func DepositAPY(d model.Deposit) num.Num {
	lengthMs := d.MaturationTimestamp.Sub(d.DepositTimestamp).Milliseconds()
	return apy(d.Amount, d.InterestEarned, num.FromInt(lengthMs).Div(millisPerSec))
}

// ProjectedAPY is DepositAPY for a deposit that has not been made yet.
func ProjectedAPY(amount, interest num.Num, period time.Duration) num.Num {
	return apy(amount, interest, num.FromInt(period.Milliseconds()).Div(millisPerSec))
}

func apy(amount, interest, seconds num.Num) num.Num {
	perSecond := interest.Div(amount).Div(seconds)
	return perSecond.Mul(secondsPerYear).Mul(num.Hundred)
}
