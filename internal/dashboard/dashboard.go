// Package dashboard recomputes everything the front-end displays from a single
// query-service snapshot and an injected clock reading.
//
// An Engine holds only configuration. Every call reads the snapshot it is
// given and nothing else, so a superseded snapshot can simply be dropped.
package dashboard

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Bacon-labs/88mph-frontend/internal/aggregate"
	"github.com/Bacon-labs/88mph-frontend/internal/model"
	"github.com/Bacon-labs/88mph-frontend/internal/num"
	"github.com/Bacon-labs/88mph-frontend/internal/rate"
	"github.com/Bacon-labs/88mph-frontend/internal/types"
	"github.com/Bacon-labs/88mph-frontend/internal/validation"
	"github.com/Bacon-labs/88mph-frontend/internal/withdraw"
	"github.com/Bacon-labs/88mph-frontend/internal/yield"
)

// DefaultMinDepositPeriod is the protocol's minimum lock.
const DefaultMinDepositPeriod = 91 * 24 * time.Hour

// Options configures an Engine.
type Options struct {
	Pools    types.Registry
	Excluded []common.Address
	Model    rate.Model

	// MinDepositPeriod is enforced by Quote, not by the rate model.
	MinDepositPeriod time.Duration

	// TokenDecimals is the base-unit scale of deposit instructions.
	TokenDecimals int32
}

// Engine computes dashboard views.
type Engine struct {
	opts       Options
	validation validation.ValidationOptions
}

// New creates an Engine.
func New(opts Options) *Engine {
	return &Engine{
		opts:       opts,
		validation: validation.DefaultValidationOptions(opts.Pools),
	}
}

// PoolView is one pool as displayed.
type PoolView struct {
	Address common.Address  `json:"address"`
	Name    string          `json:"name"`
	Stats   model.PoolStats `json:"stats"`

	// OneYearInterestRate is in percent with the fee applied.
	OneYearInterestRate num.Num `json:"oneYearInterestRate"`
	TotalValue          num.Num `json:"totalValue"`
	Eligible            bool    `json:"eligible"`
}

// DepositView is one user deposit as displayed.
type DepositView struct {
	model.Deposit

	PoolName          string          `json:"poolName"`
	APY               num.Num         `json:"apy"`
	Matured           bool            `json:"matured"`
	TimeLeft          yield.Countdown `json:"timeLeft"`
	TimeLeftString    string          `json:"timeLeftString"`
	LengthDays        int64           `json:"lengthDays"`
	EarlyWithdrawable bool            `json:"earlyWithdrawable"`
}

// UserView is the connected wallet's share. It is all zero when no wallet is
// connected.
type UserView struct {
	Connected           bool                          `json:"connected"`
	Address             *common.Address               `json:"address,omitempty"`
	TotalActiveDeposit  num.Num                       `json:"totalActiveDeposit"`
	TotalInterestEarned num.Num                       `json:"totalInterestEarned"`
	Deposits            []DepositView                 `json:"deposits"`
	Withdrawals         []model.WithdrawalInstruction `json:"withdrawals"`
}

// View is the complete display state for one snapshot.
type View struct {
	Protocol   model.AggregateStats `json:"protocol"`
	Pools      []PoolView           `json:"pools"`
	User       UserView             `json:"user"`
	ComputedAt time.Time            `json:"computedAt"`
}

// Compute builds the view for snap at now.
func (e *Engine) Compute(snap model.Snapshot, now time.Time) View {
	snap = validation.SanitizeSnapshot(snap, e.validation)

	protocol := aggregate.Aggregate(snap.Pools, snap.ActiveUsers, aggregate.Options{
		Pools:    e.opts.Pools,
		Excluded: e.opts.Excluded,
		Fee:      e.opts.Model.Fee,
	})
	protocol.OneYearInterestRate = protocol.OneYearInterestRate.OrZero()

	return View{
		Protocol:   protocol,
		Pools:      e.poolViews(snap.Pools),
		User:       e.userView(snap.User, now),
		ComputedAt: now,
	}
}

// Withdrawals returns the batched withdrawals for the matured deposits in
// snap at now. It is empty when no wallet is connected.
func (e *Engine) Withdrawals(snap model.Snapshot, now time.Time) []model.WithdrawalInstruction {
	if snap.User == nil {
		return []model.WithdrawalInstruction{}
	}
	return withdraw.Partition(validation.SanitizeDeposits(snap.User.Deposits), now)
}

func (e *Engine) poolViews(stats []model.PoolStats) []PoolView {
	byAddr := make(map[common.Address]model.PoolStats, len(stats))
	for _, s := range stats {
		byAddr[s.Address] = s
	}
	eligible := e.opts.Pools.Eligible(e.opts.Excluded)

	views := make([]PoolView, 0, len(e.opts.Pools))
	for _, p := range e.opts.Pools {
		s, ok := byAddr[p.Address]
		if !ok {
			continue
		}
		views = append(views, PoolView{
			Address:             p.Address,
			Name:                p.Name,
			Stats:               s,
			OneYearInterestRate: aggregate.DisplayRate(e.opts.Model.Fee, s.OneYearInterestRate).OrZero(),
			TotalValue:          s.TotalValue(),
			Eligible:            eligible.Contains(p.Address),
		})
	}
	return views
}

func (e *Engine) userView(user *model.UserSnapshot, now time.Time) UserView {
	if user == nil {
		return UserView{
			TotalActiveDeposit:  num.Zero,
			TotalInterestEarned: num.Zero,
			Deposits:            []DepositView{},
			Withdrawals:         []model.WithdrawalInstruction{},
		}
	}

	addr := user.Address
	view := UserView{
		Connected:           true,
		Address:             &addr,
		TotalActiveDeposit:  user.TotalActiveDeposit,
		TotalInterestEarned: user.TotalInterestEarned,
		Deposits:            make([]DepositView, 0, len(user.Deposits)),
		Withdrawals:         withdraw.Partition(user.Deposits, now),
	}
	for _, d := range user.Deposits {
		name, _ := e.opts.Pools.Name(d.PoolAddress)
		left := yield.TimeDifference(d.MaturationTimestamp, now)
		_, early := withdraw.Early(d, now)
		view.Deposits = append(view.Deposits, DepositView{
			Deposit:           d,
			PoolName:          name,
			APY:               yield.DepositAPY(d).OrZero(),
			Matured:           d.Matured(now),
			TimeLeft:          left,
			TimeLeftString:    left.String(),
			LengthDays:        yield.DaysBetween(d.MaturationTimestamp, d.DepositTimestamp),
			EarlyWithdrawable: early,
		})
	}
	return view
}
