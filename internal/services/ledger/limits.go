package ledger

import (
	"github.com/fastprodman/wagerengine/internal/errs"
	"github.com/fastprodman/wagerengine/internal/money"
)

// Limits bounds a single stake. A zero Max means no upper bound.
type Limits struct {
	Min money.Minor
	Max money.Minor
}

// DefaultLimits are 0.01 to 10000.00.
var DefaultLimits = Limits{Min: 1, Max: 1_000_000}

// Check validates stake against the limits.
func (l Limits) Check(stake money.Minor) error {
	switch {
	case stake <= 0:
		return ErrInvalidAmount
	case stake < l.Min:
		return errs.Newf(errs.ErrValidation, "minimum bet is %s", l.Min)
	case l.Max > 0 && stake > l.Max:
		return errs.Newf(errs.ErrValidation, "maximum bet is %s", l.Max)
	default:
		return nil
	}
}
