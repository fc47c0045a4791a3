package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bacon-labs/88mph-frontend/internal/num"
)

func TestPoolStatsTotalValue(t *testing.T) {
	tests := []struct {
		name    string
		active  string
		deficit string
		want    string
	}{
		{"shortfall", "1000.5", "20", "1020.5"},
		{"surplus", "1000.5", "-0.5", "1000"},
		{"no deficit", "42", "0", "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PoolStats{TotalActiveDeposit: num.MustParse(tt.active), Deficit: num.MustParse(tt.deficit)}
			assert.Equal(t, tt.want, p.TotalValue().String())
		})
	}
}

func TestPoolStatsDecodesSubgraphEncoding(t *testing.T) {
	raw := `{
		"address": "0x9b226970cdeada0026aed50d02e4a0dd37c92b6f",
		"totalActiveDeposit": "1500.25",
		"totalHistoricalDeposit": "2000",
		"totalInterestPaid": "35.5",
		"numUsers": "12",
		"numActiveUsers": "7",
		"numDeposits": "30",
		"numActiveDeposits": "11",
		"deficit": "-3.1",
		"oneYearInterestRate": "0.0712"
	}`

	var p PoolStats
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, common.HexToAddress("0x9b226970cdeada0026aed50d02e4a0dd37c92b6f"), p.Address)
	assert.Equal(t, "1500.25", p.TotalActiveDeposit.String())
	assert.Equal(t, int64(7), p.NumActiveUsers)
	assert.Equal(t, int64(11), p.NumActiveDeposits)
	assert.Equal(t, "-3.1", p.Deficit.String())
	assert.Equal(t, "0.0712", p.OneYearInterestRate.String())
}

func TestDepositMatured(t *testing.T) {
	start := time.Unix(1_600_000_000, 0)
	d := Deposit{DepositTimestamp: start, MaturationTimestamp: start.Add(90 * 24 * time.Hour)}

	assert.False(t, d.Matured(start))
	assert.False(t, d.Matured(d.MaturationTimestamp.Add(-time.Millisecond)))
	assert.True(t, d.Matured(d.MaturationTimestamp))
	assert.True(t, d.Matured(d.MaturationTimestamp.Add(time.Hour)))
	assert.Equal(t, 90*24*time.Hour, d.Length())
}
