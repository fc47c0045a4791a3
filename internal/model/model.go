// Package model defines the records exchanged between the query service, the
// valuation engine and the transaction service.
package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Bacon-labs/88mph-frontend/internal/num"
)

// PoolStats is one pool's state as reported by the query service.
type PoolStats struct {
	Address common.Address `json:"address"`

	TotalActiveDeposit     num.Num `json:"totalActiveDeposit"`
	TotalHistoricalDeposit num.Num `json:"totalHistoricalDeposit"`
	TotalInterestPaid      num.Num `json:"totalInterestPaid"`

	NumUsers          int64 `json:"numUsers,string"`
	NumActiveUsers    int64 `json:"numActiveUsers,string"`
	NumDeposits       int64 `json:"numDeposits,string"`
	NumActiveDeposits int64 `json:"numActiveDeposits,string"`

	// Deficit is positive for a shortfall and negative for a surplus.
	Deficit num.Num `json:"deficit"`

	// OneYearInterestRate is a proportion, before the protocol fee.
	OneYearInterestRate num.Num `json:"oneYearInterestRate"`
}

// TotalValue is the active deposit plus the deficit.
func (p PoolStats) TotalValue() num.Num {
	return p.TotalActiveDeposit.Add(p.Deficit)
}

// Deposit is a single fixed-term deposit. It never changes after creation.
type Deposit struct {
	Index       int64          `json:"index"`
	PoolAddress common.Address `json:"poolAddress"`

	// Amount is the principal.
	Amount num.Num `json:"amount"`

	DepositTimestamp    time.Time `json:"depositTimestamp"`
	MaturationTimestamp time.Time `json:"maturationTimestamp"`

	// InterestEarned was paid upfront when the deposit was created.
	InterestEarned num.Num `json:"interestEarned"`

	CanEarlyWithdraw bool `json:"canEarlyWithdraw"`
}

// Matured reports whether the lock period has elapsed at now.
func (d Deposit) Matured(now time.Time) bool {
	return !now.Before(d.MaturationTimestamp)
}

// Length is the lock period.
func (d Deposit) Length() time.Duration {
	return d.MaturationTimestamp.Sub(d.DepositTimestamp)
}

// UserSnapshot is the connected wallet's share of a snapshot.
type UserSnapshot struct {
	Address             common.Address `json:"address"`
	TotalActiveDeposit  num.Num        `json:"totalActiveDeposit"`
	TotalInterestEarned num.Num        `json:"totalInterestEarned"`
	Deposits            []Deposit      `json:"deposits"`
}

// Snapshot is one point-in-time read of the query service. User is nil when
// no wallet is connected.
type Snapshot struct {
	Pools []PoolStats `json:"pools"`

	// ActiveUsers comes from the protocol-wide counter; summing per-pool
	// counts would double count users active in several pools.
	ActiveUsers int64 `json:"activeUsers"`

	User *UserSnapshot `json:"user,omitempty"`

	FetchedAt time.Time `json:"fetchedAt"`
}

// AggregateStats are protocol-wide figures recomputed from every snapshot.
type AggregateStats struct {
	TotalActiveDeposit     num.Num `json:"totalActiveDeposit"`
	TotalHistoricalDeposit num.Num `json:"totalHistoricalDeposit"`
	TotalInterestPaid      num.Num `json:"totalInterestPaid"`
	Deficit                num.Num `json:"deficit"`
	TotalValue             num.Num `json:"totalValue"`

	NumUsers          int64 `json:"numUsers"`
	NumActiveUsers    int64 `json:"numActiveUsers"`
	NumDeposits       int64 `json:"numDeposits"`
	NumActiveDeposits int64 `json:"numActiveDeposits"`

	// OneYearInterestRate is the best eligible pool's rate in percent with
	// the protocol fee applied.
	OneYearInterestRate num.Num `json:"oneYearInterestRate"`

	BestPool     *common.Address `json:"bestPool,omitempty"`
	BestPoolName string          `json:"bestPoolName,omitempty"`
}

// WithdrawalInstruction withdraws a batch of deposits from one pool.
type WithdrawalInstruction struct {
	PoolAddress    common.Address `json:"poolAddress"`
	DepositIndices []int64        `json:"depositIndices"`
	Early          bool           `json:"early,omitempty"`
}

// DepositInstruction opens a new deposit.
type DepositInstruction struct {
	PoolAddress                common.Address `json:"poolAddress"`
	AmountBaseUnits            *big.Int       `json:"amountBaseUnits"`
	MaturationTimestampSeconds int64          `json:"maturationTimestampSeconds"`
}
