// Package aggregate selects the best-yielding pool and folds per-pool
// statistics into protocol-wide totals.
package aggregate

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/Bacon-labs/88mph-frontend/internal/fee"
	"github.com/Bacon-labs/88mph-frontend/internal/model"
	"github.com/Bacon-labs/88mph-frontend/internal/num"
	"github.com/Bacon-labs/88mph-frontend/internal/types"
)

// Options configures aggregation.
type Options struct {
	// Pools is the ordered pool table. Its order breaks rate ties.
	Pools types.Registry

	// Excluded pools are never selected as best pool. Their balances still
	// count towards the totals.
	Excluded []common.Address

	Fee fee.Transform
}

// BestPool returns the eligible pool with the highest one-year rate. Ties go
// to the pool listed first in eligible. Pools without stats or with a NaN
// rate are skipped.
func BestPool(stats []model.PoolStats, eligible types.Registry) (model.PoolStats, types.Pool, bool) {
	byAddr := index(stats)

	var (
		best     model.PoolStats
		bestPool types.Pool
		found    bool
	)
	for _, p := range eligible {
		s, ok := byAddr[p.Address]
		if !ok || s.OneYearInterestRate.IsNaN() {
			continue
		}
		if !found || s.OneYearInterestRate.GreaterThan(best.OneYearInterestRate) {
			best, bestPool, found = s, p, true
		}
	}
	return best, bestPool, found
}

// DisplayRate converts a pre-fee proportion into the percent shown to users.
func DisplayRate(f fee.Transform, oneYearInterestRate num.Num) num.Num {
	return f.Apply(oneYearInterestRate.Mul(num.Hundred))
}

// Aggregate sums the pool statistics and picks the displayed rate.
//
// The fee is applied once, to the selected maximum. activeUsers comes from the
// protocol-wide counter rather than the per-pool counts.
func Aggregate(stats []model.PoolStats, activeUsers int64, opts Options) model.AggregateStats {
	out := model.AggregateStats{
		TotalActiveDeposit:     num.Zero,
		TotalHistoricalDeposit: num.Zero,
		TotalInterestPaid:      num.Zero,
		Deficit:                num.Zero,
		OneYearInterestRate:    num.Zero,
		NumActiveUsers:         activeUsers,
	}

	for _, s := range stats {
		out.TotalActiveDeposit = out.TotalActiveDeposit.Add(s.TotalActiveDeposit)
		out.TotalHistoricalDeposit = out.TotalHistoricalDeposit.Add(s.TotalHistoricalDeposit)
		out.TotalInterestPaid = out.TotalInterestPaid.Add(s.TotalInterestPaid)
		out.Deficit = out.Deficit.Add(s.Deficit)
		out.NumUsers += s.NumUsers
		out.NumDeposits += s.NumDeposits
		out.NumActiveDeposits += s.NumActiveDeposits
	}
	out.TotalValue = out.TotalActiveDeposit.Add(out.Deficit)

	best, pool, ok := BestPool(stats, opts.Pools.Eligible(opts.Excluded))
	if ok {
		addr := pool.Address
		out.BestPool = &addr
		out.BestPoolName = pool.Name
		out.OneYearInterestRate = DisplayRate(opts.Fee, best.OneYearInterestRate)
	}

	return out
}

func index(stats []model.PoolStats) map[common.Address]model.PoolStats {
	m := make(map[common.Address]model.PoolStats, len(stats))
	for _, s := range stats {
		if _, dup := m[s.Address]; !dup {
			m[s.Address] = s
		}
	}
	return m
}
