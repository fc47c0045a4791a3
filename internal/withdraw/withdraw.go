// Package withdraw turns a user's deposits into per-pool withdrawal batches.
package withdraw

import (
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Bacon-labs/88mph-frontend/internal/model"
)

// Partition groups the deposits that have matured at now by pool. Groups are
// ordered by the first appearance of their pool in deposits; indices within a
// group are ascending. Each group is an independent instruction: deposits in
// N distinct pools yield exactly N instructions.
func Partition(deposits []model.Deposit, now time.Time) []model.WithdrawalInstruction {
	var (
		order  []common.Address
		groups = make(map[common.Address][]int64)
	)
	for _, d := range Matured(deposits, now) {
		if _, ok := groups[d.PoolAddress]; !ok {
			order = append(order, d.PoolAddress)
		}
		groups[d.PoolAddress] = append(groups[d.PoolAddress], d.Index)
	}

	out := make([]model.WithdrawalInstruction, 0, len(order))
	for _, addr := range order {
		indices := groups[addr]
		sort.SliceStable(indices, func(i, j int) bool { return indices[i] < indices[j] })
		out = append(out, model.WithdrawalInstruction{PoolAddress: addr, DepositIndices: indices})
	}
	return out
}

// Early returns a single-deposit early withdrawal for d when it has not
// matured at now and the pool allows early exit.
func Early(d model.Deposit, now time.Time) (model.WithdrawalInstruction, bool) {
	if d.Matured(now) || !d.CanEarlyWithdraw {
		return model.WithdrawalInstruction{}, false
	}
	return model.WithdrawalInstruction{
		PoolAddress:    d.PoolAddress,
		DepositIndices: []int64{d.Index},
		Early:          true,
	}, true
}

// Matured filters the deposits that have matured at now.
func Matured(deposits []model.Deposit, now time.Time) []model.Deposit {
	var out []model.Deposit
	for _, d := range deposits {
		if d.Matured(now) {
			out = append(out, d)
		}
	}
	return out
}
