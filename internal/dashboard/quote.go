package dashboard

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Bacon-labs/88mph-frontend/internal/model"
	"github.com/Bacon-labs/88mph-frontend/internal/num"
	"github.com/Bacon-labs/88mph-frontend/internal/validation"
	"github.com/Bacon-labs/88mph-frontend/internal/yield"
)

var (
	ErrUnknownPool   = errors.New("unknown pool")
	ErrInvalidAmount = errors.New("deposit amount must be positive")
	ErrLockTooShort  = errors.New("deposit period is shorter than the minimum")
)

// QuoteRequest describes a prospective deposit.
type QuoteRequest struct {
	Pool   common.Address
	Amount num.Num
	Period time.Duration
}

// Quote is the offer for a prospective deposit.
type Quote struct {
	Pool     common.Address `json:"pool"`
	PoolName string         `json:"poolName"`

	// UpfrontRate is the interest paid at deposit time, in percent of Amount.
	UpfrontRate num.Num `json:"upfrontRate"`
	Interest    num.Num `json:"interest"`
	APY         num.Num `json:"apy"`

	MaturationTimestamp time.Time                `json:"maturationTimestamp"`
	Instruction         model.DepositInstruction `json:"instruction"`
}

// Quote prices a deposit into req.Pool at now using the rates in snap.
func (e *Engine) Quote(snap model.Snapshot, req QuoteRequest, now time.Time) (Quote, error) {
	name, ok := e.opts.Pools.Name(req.Pool)
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ErrUnknownPool, req.Pool.Hex())
	}
	if req.Amount.IsNaN() || req.Amount.Sign() <= 0 {
		return Quote{}, fmt.Errorf("%w: %s", ErrInvalidAmount, req.Amount)
	}
	if req.Period < e.opts.MinDepositPeriod {
		return Quote{}, fmt.Errorf("%w: %s < %s", ErrLockTooShort, req.Period, e.opts.MinDepositPeriod)
	}

	var (
		stats model.PoolStats
		found bool
	)
	for _, s := range validation.SanitizePools(snap.Pools, e.validation) {
		if s.Address == req.Pool {
			stats, found = s, true
			break
		}
	}
	if !found {
		return Quote{}, fmt.Errorf("%w: no stats for %s", ErrUnknownPool, req.Pool.Hex())
	}

	m := e.opts.Model
	upfront := m.UpfrontInterestRate(m.Fee.Apply(stats.OneYearInterestRate), int64(req.Period/time.Second)).OrZero()
	interest := req.Amount.Mul(upfront)
	maturation := now.Add(req.Period)

	return Quote{
		Pool:                req.Pool,
		PoolName:            name,
		UpfrontRate:         upfront.Mul(num.Hundred),
		Interest:            interest,
		APY:                 yield.ProjectedAPY(req.Amount, interest, req.Period).OrZero(),
		MaturationTimestamp: maturation,
		Instruction: model.DepositInstruction{
			PoolAddress:                req.Pool,
			AmountBaseUnits:            req.Amount.BaseUnits(e.opts.TokenDecimals),
			MaturationTimestampSeconds: maturation.Unix(),
		},
	}, nil
}
