package pattern

import "github.com/shopspring/decimal"

// Scale estimates another actor's P/L from the observed one by the ratio of
// their trade sizes. It is a display transform only; ledger values are
// never scaled.
type Scale struct {
	multiplier decimal.Decimal
}

// NewScale returns actual/observed, or the identity when either size is
// not positive.
func NewScale(actualSize, observedSize decimal.Decimal) Scale {
	if !actualSize.IsPositive() || !observedSize.IsPositive() {
		return Scale{multiplier: decimal.NewFromInt(1)}
	}
	return Scale{multiplier: actualSize.DivRound(observedSize, 8)}
}

// Multiplier returns the scaling ratio.
func (s Scale) Multiplier() decimal.Decimal {
	if s.multiplier.IsZero() {
		return decimal.NewFromInt(1)
	}
	return s.multiplier
}

// IsIdentity reports whether Apply returns its input unchanged.
func (s Scale) IsIdentity() bool {
	return s.Multiplier().Equal(decimal.NewFromInt(1))
}

// Apply scales v.
func (s Scale) Apply(v decimal.Decimal) decimal.Decimal {
	return v.Mul(s.Multiplier())
}
