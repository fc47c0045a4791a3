// Package fee applies and strips the protocol's proportional fee.
package fee

import "github.com/Bacon-labs/88mph-frontend/internal/num"

// DefaultRate is the protocol fee charged on interest.
var DefaultRate = num.MustParse("0.1")

// Transform applies a flat proportional fee to rates and amounts.
//
// Display rates carry the fee exactly once. Money-market derivations strip it
// with Unapply before doing any further math and re-apply it at the end.
type Transform struct {
	rate num.Num
}

// New returns a Transform charging the given fee rate.
func New(rate num.Num) Transform {
	return Transform{rate: rate}
}

// Default returns a Transform charging DefaultRate.
func Default() Transform {
	return New(DefaultRate)
}

// Apply returns (1 - fee) * x.
func (t Transform) Apply(x num.Num) num.Num {
	return num.One.Sub(t.rate).Mul(x)
}

// Unapply returns x / (1 - fee). A fee of 1 yields NaN.
func (t Transform) Unapply(x num.Num) num.Num {
	return x.Div(num.One.Sub(t.rate))
}
