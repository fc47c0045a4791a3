// Package validation sanitizes query-service snapshots before valuation.
package validation

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/Bacon-labs/88mph-frontend/internal/model"
	"github.com/Bacon-labs/88mph-frontend/internal/num"
	"github.com/Bacon-labs/88mph-frontend/internal/types"
)

// ValidationOptions holds configuration for snapshot sanitation
type ValidationOptions struct {
	// Pools is the known pool table. Stats for other pools are dropped when
	// DropUnknownPools is set.
	Pools types.Registry

	DropUnknownPools bool
}

// DefaultValidationOptions returns the options used by the server
func DefaultValidationOptions(pools types.Registry) ValidationOptions {
	return ValidationOptions{
		Pools:            pools,
		DropUnknownPools: true,
	}
}

// ValidRate reports whether r is a usable interest proportion, i.e. in [0, 1).
func ValidRate(r num.Num) bool {
	return r.GreaterThanOrEqual(num.Zero) && r.LessThan(num.One)
}

// SanitizeSnapshot returns a copy of snap with pools and deposits cleaned up.
// Absent data stays absent; nothing here is an error.
func SanitizeSnapshot(snap model.Snapshot, opts ValidationOptions) model.Snapshot {
	out := snap
	out.Pools = SanitizePools(snap.Pools, opts)
	if out.ActiveUsers < 0 {
		out.ActiveUsers = 0
	}
	if snap.User != nil {
		user := *snap.User
		user.TotalActiveDeposit = user.TotalActiveDeposit.OrZero()
		user.TotalInterestEarned = user.TotalInterestEarned.OrZero()
		user.Deposits = SanitizeDeposits(snap.User.Deposits)
		out.User = &user
	}
	return out
}

// SanitizePools clamps invalid rates and NaN amounts to zero and drops
// duplicate and, optionally, unknown pools.
func SanitizePools(stats []model.PoolStats, opts ValidationOptions) []model.PoolStats {
	seen := make(map[common.Address]bool, len(stats))
	valid := make([]model.PoolStats, 0, len(stats))

	for _, s := range stats {
		if seen[s.Address] {
			logrus.WithField("pool", s.Address.Hex()).Debug("Dropped duplicate pool stats")
			continue
		}
		if opts.DropUnknownPools && !opts.Pools.Contains(s.Address) {
			logrus.WithField("pool", s.Address.Hex()).Debug("Dropped stats for unknown pool")
			continue
		}
		seen[s.Address] = true

		if !ValidRate(s.OneYearInterestRate) {
			logrus.WithFields(logrus.Fields{
				"pool": s.Address.Hex(),
				"rate": s.OneYearInterestRate.String(),
			}).Debug("Clamped invalid interest rate to zero")
			s.OneYearInterestRate = num.Zero
		}
		s.TotalActiveDeposit = s.TotalActiveDeposit.OrZero()
		s.TotalHistoricalDeposit = s.TotalHistoricalDeposit.OrZero()
		s.TotalInterestPaid = s.TotalInterestPaid.OrZero()
		s.Deficit = s.Deficit.OrZero()

		valid = append(valid, s)
	}
	return valid
}

// SanitizeDeposits drops deposits that mature before they start and zeroes
// NaN amounts. Order is preserved.
func SanitizeDeposits(deposits []model.Deposit) []model.Deposit {
	valid := make([]model.Deposit, 0, len(deposits))
	for _, d := range deposits {
		if d.MaturationTimestamp.Before(d.DepositTimestamp) {
			logrus.WithFields(logrus.Fields{
				"pool":  d.PoolAddress.Hex(),
				"index": d.Index,
			}).Debug("Dropped deposit maturing before its start")
			continue
		}
		d.Amount = d.Amount.OrZero()
		d.InterestEarned = d.InterestEarned.OrZero()
		valid = append(valid, d)
	}
	return valid
}
