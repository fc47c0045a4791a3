package fee

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Bacon-labs/88mph-frontend/internal/num"
)

var tolerance = num.MustParse("1e-30")

func near(t *testing.T, want, got num.Num) {
	t.Helper()
	diff := want.Sub(got).Abs()
	assert.True(t, diff.LessThan(tolerance), "want %s, got %s", want, got)
}

func TestApplyUnapply(t *testing.T) {
	tr := Default()

	assert.Equal(t, "0.9", tr.Apply(num.One).String())
	assert.Equal(t, "7.2", tr.Apply(num.MustParse("8")).String())
	near(t, num.MustParse("10"), tr.Unapply(num.MustParse("9")))
	assert.True(t, tr.Apply(num.Zero).IsZero())
	assert.True(t, tr.Unapply(num.Zero).IsZero())
}

func TestRoundTrip(t *testing.T) {
	tr := Default()

	for _, s := range []string{"0", "0.01", "0.5", "0.9999"} {
		t.Run(s, func(t *testing.T) {
			x := num.MustParse(s)
			near(t, x, tr.Apply(tr.Unapply(x)))
			near(t, x, tr.Unapply(tr.Apply(x)))
		})
	}
}

func TestFullFeeIsIndeterminate(t *testing.T) {
	tr := New(num.One)
	assert.True(t, tr.Unapply(num.MustParse("0.05")).IsNaN())
	assert.True(t, tr.Apply(num.MustParse("0.05")).IsZero())
}

func TestNaNInput(t *testing.T) {
	tr := Default()
	assert.True(t, tr.Apply(num.NaN()).IsNaN())
	assert.True(t, tr.Unapply(num.NaN()).IsNaN())
}
