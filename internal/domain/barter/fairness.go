package barter

import "github.com/shopspring/decimal"

// FairnessClass is the advisory classification of a trade's value balance.
// It is shown to both parties and never blocks a transition.
type FairnessClass string

const (
	FairnessFair       FairnessClass = "Fair"
	FairnessReasonable FairnessClass = "Reasonable"
	FairnessUnbalanced FairnessClass = "Unbalanced"
)

var (
	fairLow        = decimal.RequireFromString("0.9")
	fairHigh       = decimal.RequireFromString("1.1")
	reasonableLow  = decimal.RequireFromString("0.8")
	reasonableHigh = decimal.RequireFromString("1.2")
)

// Fairness holds the computed value comparison for a trade
type Fairness struct {
	OfferedValue   decimal.Decimal `json:"offered_value"`
	RequestedValue decimal.Decimal `json:"requested_value"`
	Ratio          decimal.Decimal `json:"ratio"`
	Class          FairnessClass   `json:"class"`
}

// ComputeFairness computes offeredValue / requestedValue rounded to two
// decimal places and classifies the result. The computation is symmetric:
// both parties call this with the same stored snapshot values, so no
// perspective-dependent rounding can occur. A zero requested value cannot be
// classified and is reported as Unbalanced with a zero ratio.
func ComputeFairness(offered, requested TradeLine) Fairness {
	offeredValue := offered.Value()
	requestedValue := requested.Value()

	if requestedValue.IsZero() {
		return Fairness{
			OfferedValue:   offeredValue,
			RequestedValue: requestedValue,
			Ratio:          decimal.Zero,
			Class:          FairnessUnbalanced,
		}
	}

	ratio := offeredValue.Div(requestedValue).Round(2)

	return Fairness{
		OfferedValue:   offeredValue,
		RequestedValue: requestedValue,
		Ratio:          ratio,
		Class:          classifyRatio(ratio),
	}
}

// Fairness recomputes the advisory value ratio from the trade's current
// quantities and price snapshots. It is never persisted.
func (t *Trade) Fairness() Fairness {
	return ComputeFairness(t.Offered, t.Requested)
}

func classifyRatio(ratio decimal.Decimal) FairnessClass {
	switch {
	case ratio.GreaterThanOrEqual(fairLow) && ratio.LessThanOrEqual(fairHigh):
		return FairnessFair
	case ratio.GreaterThanOrEqual(reasonableLow) && ratio.LessThanOrEqual(reasonableHigh):
		return FairnessReasonable
	default:
		return FairnessUnbalanced
	}
}
