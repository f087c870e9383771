package giving

import (
	"fmt"

	"FaithGive/internal/models"
)

// ComputeFee returns (fee, net) for a gross amount charged through the
// given method. All arithmetic is int64 minor units; the percentage part
// is basis points with truncating division, so net+fee == gross exactly.
func ComputeFee(method *models.PaymentMethod, gross int64) (int64, int64, error) {
	if gross < 1 {
		return 0, 0, fmt.Errorf("%w: amount must be at least 1 minor unit", ErrInvalidAmount)
	}
	if gross < method.MinAmount {
		return 0, 0, fmt.Errorf("%w: minimum for %s is %d", ErrInvalidAmount, method.Code, method.MinAmount)
	}
	if method.MaxAmount > 0 && gross > method.MaxAmount {
		return 0, 0, fmt.Errorf("%w: maximum for %s is %d", ErrInvalidAmount, method.Code, method.MaxAmount)
	}

	fee := gross*method.FeeBps/10000 + method.FeeFixed
	if fee < 0 {
		fee = 0
	}
	if fee > gross {
		return 0, 0, fmt.Errorf("%w: fee %d exceeds gross %d for %s", ErrInvalidAmount, fee, gross, method.Code)
	}

	return fee, gross - fee, nil
}
