package billing_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carl-sl-li/lambda-no-secret/pkg/billing"
)

func TestRoundAmount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "truncates extra precision", in: "67.891", want: "67.89"},
		{name: "half rounds to even", in: "2.345", want: "2.34"},
		{name: "half rounds to even up", in: "2.355", want: "2.36"},
		{name: "zero", in: "0", want: "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := decimal.RequireFromString(tt.in)
			assert.Equal(t, tt.want, billing.RoundAmount(d).StringFixed(2))
		})
	}
}

func TestRoundAmountIdempotent(t *testing.T) {
	d := decimal.RequireFromString("123.456")
	once := billing.RoundAmount(d)
	twice := billing.RoundAmount(once)
	require.True(t, once.Equal(twice))
}

func TestResult(t *testing.T) {
	ok := billing.Success(decimal.RequireFromString("67.891"))
	require.False(t, ok.Failed())
	assert.Equal(t, "67.89", ok.Amount.StringFixed(2))

	failed := billing.Failure(errors.New("query rejected"))
	require.True(t, failed.Failed())
}
