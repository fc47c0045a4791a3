package num

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArithmetic(t *testing.T) {
	a := MustParse("1.5")
	b := MustParse("0.25")

	assert.Equal(t, "1.75", a.Add(b).String())
	assert.Equal(t, "1.25", a.Sub(b).String())
	assert.Equal(t, "0.375", a.Mul(b).String())
	assert.Equal(t, "6", a.Div(b).String())
	assert.Equal(t, "-1.5", a.Neg().String())
	assert.Equal(t, "1.5", a.Neg().Abs().String())
}

func TestNaNPropagation(t *testing.T) {
	tests := []struct {
		name string
		got  Num
	}{
		{"divide by zero", One.Div(Zero)},
		{"zero over zero", Zero.Div(Zero)},
		{"add NaN", One.Add(NaN())},
		{"sub NaN", NaN().Sub(One)},
		{"mul NaN", NaN().Mul(Zero)},
		{"div NaN", NaN().Div(One)},
		{"malformed string", FromString("not-a-number")},
		{"literal NaN", FromString("NaN")},
		{"nil big int", FromBigInt(nil, 18)},
		{"sum with NaN", Sum(One, NaN(), One)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.got.IsNaN())
			assert.True(t, tt.got.OrZero().IsZero())
			assert.Equal(t, "NaN", tt.got.String())
		})
	}
}

func TestComparisonsWithNaN(t *testing.T) {
	_, ok := NaN().Cmp(One)
	assert.False(t, ok)
	assert.False(t, NaN().Equal(NaN()))
	assert.False(t, NaN().LessThan(One))
	assert.False(t, NaN().GreaterThan(Zero))
	assert.False(t, One.GreaterThanOrEqual(NaN()))

	assert.True(t, One.GreaterThan(Zero))
	assert.True(t, Zero.LessThan(One))
	assert.True(t, One.GreaterThanOrEqual(One))
	assert.True(t, MustParse("1.000").Equal(One))
}

func TestIntegerValueTruncatesTowardZero(t *testing.T) {
	assert.Equal(t, "2", MustParse("2.99").IntegerValue().String())
	assert.Equal(t, "-2", MustParse("-2.99").IntegerValue().String())
	assert.True(t, NaN().IntegerValue().IsNaN())
}

func TestStringHasNoExponent(t *testing.T) {
	tiny := MustParse("1").Div(MustParse("1e20"))
	assert.Equal(t, "0.00000000000000000001", tiny.String())
	assert.Equal(t, "100000000000000000000000", MustParse("1e23").String())
	assert.Equal(t, "3.14", MustParse("3.14159").StringFixed(2))
}

func TestDivPrecision(t *testing.T) {
	third := One.Div(FromInt(3))
	back := third.Mul(FromInt(3))
	diff := One.Sub(back).Abs()
	assert.True(t, diff.LessThan(MustParse("1e-35")), "diff = %s", diff)
}

func TestBaseUnits(t *testing.T) {
	amount := MustParse("1234.5")
	want, _ := new(big.Int).SetString("1234500000000000000000", 10)
	assert.Zero(t, want.Cmp(amount.BaseUnits(18)))

	back := FromBigInt(want, 18)
	assert.True(t, back.Equal(amount))

	assert.Equal(t, int64(0), NaN().BaseUnits(18).Int64())
	assert.Equal(t, int64(1), MustParse("1.999999").BaseUnits(0).Int64())
}

func TestSumAndMax(t *testing.T) {
	assert.True(t, Sum().IsZero())
	assert.Equal(t, "6", Sum(FromInt(1), FromInt(2), FromInt(3)).String())

	best, ok := Max(FromInt(1), NaN(), MustParse("7.5"), FromInt(3))
	require.True(t, ok)
	assert.Equal(t, "7.5", best.String())

	_, ok = Max(NaN())
	assert.False(t, ok)
}

func TestJSON(t *testing.T) {
	var v struct {
		Quoted Num `json:"quoted"`
		Bare   Num `json:"bare"`
		Null   Num `json:"null"`
		Bad    Num `json:"bad"`
	}
	raw := `{"quoted":"0.123456789012345678","bare":42.5,"null":null,"bad":"NaN"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &v))

	assert.Equal(t, "0.123456789012345678", v.Quoted.String())
	assert.Equal(t, "42.5", v.Bare.String())
	assert.True(t, v.Null.IsZero())
	assert.True(t, v.Bad.IsNaN())

	out, err := json.Marshal(v.Quoted)
	require.NoError(t, err)
	assert.Equal(t, `"0.123456789012345678"`, string(out))

	var broken Num
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &broken))
}

func TestZeroValueIsZero(t *testing.T) {
	var n Num
	assert.True(t, n.IsZero())
	assert.False(t, n.IsNaN())
	assert.Equal(t, "0", n.String())
}
