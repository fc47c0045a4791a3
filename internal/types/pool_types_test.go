package types

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	addrA = "0x9b226970cdeada0026aed50d02e4a0dd37c92b6f"
	addrB = "0x0000000000000000000000000000000000000b0b"
	addrC = "0x0000000000000000000000000000000000000c0c"
)

func TestParseRegistry(t *testing.T) {
	reg, err := ParseRegistry(" Legacy=" + addrA + ", Pool B=" + addrB + ",Pool C=" + addrC + ",")
	require.NoError(t, err)
	require.Len(t, reg, 3)

	assert.Equal(t, "Legacy", reg[0].Name)
	assert.Equal(t, "Pool B", reg[1].Name)
	assert.Equal(t, common.HexToAddress(addrC), reg[2].Address)

	name, ok := reg.Name(common.HexToAddress(addrB))
	assert.True(t, ok)
	assert.Equal(t, "Pool B", name)

	_, ok = reg.Name(common.HexToAddress("0x01"))
	assert.False(t, ok)
	assert.True(t, reg.Contains(common.HexToAddress(addrA)))
}

func TestParseRegistryErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"missing separator", "Pool " + addrA},
		{"bad address", "Pool=0xnothex"},
		{"duplicate", "A=" + addrA + ",B=" + addrA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRegistry(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestDefaultPoolSpecParses(t *testing.T) {
	reg, err := ParseRegistry(DefaultPoolSpec)
	require.NoError(t, err)
	assert.Len(t, reg, 1)
}

func TestEligibleKeepsOrder(t *testing.T) {
	reg, err := ParseRegistry("A=" + addrA + ",B=" + addrB + ",C=" + addrC)
	require.NoError(t, err)

	eligible := reg.Eligible([]common.Address{common.HexToAddress(addrA)})
	require.Len(t, eligible, 2)
	assert.Equal(t, "B", eligible[0].Name)
	assert.Equal(t, "C", eligible[1].Name)

	assert.Equal(t, reg, reg.Eligible(nil))
	assert.Equal(t, []common.Address{
		common.HexToAddress(addrA), common.HexToAddress(addrB), common.HexToAddress(addrC),
	}, reg.Addresses())
}

func TestParseAddresses(t *testing.T) {
	got, err := ParseAddresses(addrA + " , " + addrB)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{common.HexToAddress(addrA), common.HexToAddress(addrB)}, got)

	got, err = ParseAddresses("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseAddresses("nope")
	assert.Error(t, err)
}
