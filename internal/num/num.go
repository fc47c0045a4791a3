// Package num provides the decimal type used for every money and rate value.
//
// A Num is a shopspring decimal with an explicit NaN state. Arithmetic never
// fails: dividing by zero, or operating on a NaN, yields NaN. Callers that hand
// values to a display surface or a transaction instruction substitute zero with
// OrZero.
package num

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// DivPrecision is the number of fractional digits kept by Div.
const DivPrecision int32 = 36

// Num is an arbitrary-precision decimal or NaN. The zero value is 0.
type Num struct {
	d   decimal.Decimal
	nan bool
}

var (
	Zero    = Num{d: decimal.Zero}
	One     = FromInt(1)
	Hundred = FromInt(100)
)

// NaN returns the indeterminate value.
func NaN() Num {
	return Num{nan: true}
}

// FromInt builds a Num from an integer.
func FromInt(i int64) Num {
	return Num{d: decimal.NewFromInt(i)}
}

// FromBigInt builds a Num from a base-unit integer scaled by 10^-decimals.
func FromBigInt(i *big.Int, decimals int32) Num {
	if i == nil {
		return NaN()
	}
	return Num{d: decimal.NewFromBigInt(i, -decimals)}
}

// FromString parses a decimal string. Malformed input yields NaN.
func FromString(s string) Num {
	if s == "NaN" {
		return NaN()
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return NaN()
	}
	return Num{d: d}
}

// MustParse parses s and panics on malformed input. Meant for constants.
func MustParse(s string) Num {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("num: invalid literal %q: %v", s, err))
	}
	return Num{d: d}
}

func (n Num) IsNaN() bool { return n.nan }

func (n Num) IsZero() bool { return !n.nan && n.d.IsZero() }

// Sign returns -1, 0 or +1. NaN reports 0.
func (n Num) Sign() int {
	if n.nan {
		return 0
	}
	return n.d.Sign()
}

func (n Num) Add(o Num) Num {
	if n.nan || o.nan {
		return NaN()
	}
	return Num{d: n.d.Add(o.d)}
}

func (n Num) Sub(o Num) Num {
	if n.nan || o.nan {
		return NaN()
	}
	return Num{d: n.d.Sub(o.d)}
}

func (n Num) Mul(o Num) Num {
	if n.nan || o.nan {
		return NaN()
	}
	return Num{d: n.d.Mul(o.d)}
}

// Div divides to DivPrecision fractional digits. Division by zero is NaN.
func (n Num) Div(o Num) Num {
	if n.nan || o.nan || o.d.IsZero() {
		return NaN()
	}
	return Num{d: n.d.DivRound(o.d, DivPrecision)}
}

func (n Num) Neg() Num {
	if n.nan {
		return n
	}
	return Num{d: n.d.Neg()}
}

func (n Num) Abs() Num {
	if n.nan {
		return n
	}
	return Num{d: n.d.Abs()}
}

// IntegerValue truncates toward zero.
func (n Num) IntegerValue() Num {
	if n.nan {
		return n
	}
	return Num{d: n.d.Truncate(0)}
}

// Cmp compares two numbers. Any comparison involving NaN reports ok=false.
func (n Num) Cmp(o Num) (c int, ok bool) {
	if n.nan || o.nan {
		return 0, false
	}
	return n.d.Cmp(o.d), true
}

func (n Num) Equal(o Num) bool {
	c, ok := n.Cmp(o)
	return ok && c == 0
}

func (n Num) LessThan(o Num) bool {
	c, ok := n.Cmp(o)
	return ok && c < 0
}

func (n Num) GreaterThan(o Num) bool {
	c, ok := n.Cmp(o)
	return ok && c > 0
}

func (n Num) GreaterThanOrEqual(o Num) bool {
	c, ok := n.Cmp(o)
	return ok && c >= 0
}

// OrZero substitutes zero for NaN.
func (n Num) OrZero() Num {
	if n.nan {
		return Zero
	}
	return n
}

// Decimal returns the underlying decimal; NaN maps to zero.
func (n Num) Decimal() decimal.Decimal {
	if n.nan {
		return decimal.Zero
	}
	return n.d
}

// Float64 is lossy and only meant for metrics export.
func (n Num) Float64() float64 {
	if n.nan {
		return 0
	}
	f, _ := n.d.Float64()
	return f
}

// BaseUnits scales n by 10^decimals and truncates to an integer, the form
// token amounts take in a transaction. NaN maps to zero.
func (n Num) BaseUnits(decimals int32) *big.Int {
	if n.nan {
		return new(big.Int)
	}
	return n.d.Shift(decimals).BigInt()
}

// String formats without exponent notation.
func (n Num) String() string {
	if n.nan {
		return "NaN"
	}
	return n.d.String()
}

// StringFixed rounds to places fractional digits.
func (n Num) StringFixed(places int32) string {
	if n.nan {
		return "NaN"
	}
	return n.d.StringFixed(places)
}

func (n Num) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

// UnmarshalJSON accepts quoted decimal strings (the subgraph's BigDecimal and
// BigInt encoding) as well as bare JSON numbers.
func (n *Num) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*n = Zero
		return nil
	}
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	if s == "NaN" {
		*n = NaN()
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("num: invalid decimal %q: %w", s, err)
	}
	*n = Num{d: d}
	return nil
}

// Sum adds all values; a NaN anywhere makes the result NaN.
func Sum(values ...Num) Num {
	total := Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Max returns the largest non-NaN value and false if there is none.
func Max(values ...Num) (Num, bool) {
	var (
		best  Num
		found bool
	)
	for _, v := range values {
		if v.nan {
			continue
		}
		if !found || v.d.GreaterThan(best.d) {
			best, found = v, true
		}
	}
	return best, found
}
