package giving_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"FaithGive/internal/giving"
	"FaithGive/internal/models"
)

func TestComputeFee(t *testing.T) {
	momo := &models.PaymentMethod{
		Code: "momo", FeeBps: 100, MinAmount: 100, MaxAmount: 1000000,
	}
	cash := &models.PaymentMethod{
		Code: "cash", MinAmount: 1,
	}
	fixed := &models.PaymentMethod{
		Code: "card", FeeBps: 250, FeeFixed: 50, MinAmount: 100,
	}

	tests := []struct {
		name    string
		method  *models.PaymentMethod
		gross   int64
		wantFee int64
		wantNet int64
		wantErr error
	}{
		{name: "one percent of 10000", method: momo, gross: 10000, wantFee: 100, wantNet: 9900},
		{name: "truncating division", method: momo, gross: 199, wantFee: 1, wantNet: 198},
		{name: "zero fee method passes gross through", method: cash, gross: 10000, wantFee: 0, wantNet: 10000},
		{name: "bps plus fixed", method: fixed, gross: 10000, wantFee: 300, wantNet: 9700},
		{name: "below method minimum", method: momo, gross: 99, wantErr: giving.ErrInvalidAmount},
		{name: "above method maximum", method: momo, gross: 1000001, wantErr: giving.ErrInvalidAmount},
		{name: "zero amount", method: cash, gross: 0, wantErr: giving.ErrInvalidAmount},
		{name: "negative amount", method: cash, gross: -500, wantErr: giving.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, net, err := giving.ComputeFee(tt.method, tt.gross)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantFee, fee)
			assert.Equal(t, tt.wantNet, net)
			assert.Equal(t, tt.gross, fee+net)
		})
	}
}

func TestComputeFeeConserves(t *testing.T) {
	method := &models.PaymentMethod{Code: "momo", FeeBps: 175, FeeFixed: 25, MinAmount: 1}

	// Nothing is lost to rounding at any amount: the split always sums
	// back to the gross.
	for gross := int64(100); gross <= 5000; gross += 37 {
		fee, net, err := giving.ComputeFee(method, gross)
		assert.NoError(t, err)
		assert.Equal(t, gross, fee+net, "gross %d", gross)
		assert.GreaterOrEqual(t, fee, int64(0))
	}
}

func TestComputeFeeRejectsConfiscatoryFee(t *testing.T) {
	method := &models.PaymentMethod{Code: "bad", FeeFixed: 500, MinAmount: 1}

	_, _, err := giving.ComputeFee(method, 100)
	assert.ErrorIs(t, err, giving.ErrInvalidAmount)
}
