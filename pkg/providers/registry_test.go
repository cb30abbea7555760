package providers

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carl-sl-li/lambda-no-secret/pkg/billing"
)

type namedProvider string

func (p namedProvider) Name() string { return string(p) }

func (p namedProvider) LastMonthCost(ctx context.Context, period billing.Period) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(namedProvider("AWS")))
	require.NoError(t, r.Register(namedProvider("GCP")))
	require.NoError(t, r.Register(namedProvider("Azure")))

	assert.Equal(t, []string{"AWS", "GCP", "Azure"}, r.Names())

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "AWS", all[0].Name())
	assert.Equal(t, "GCP", all[1].Name())
	assert.Equal(t, "Azure", all[2].Name())
}

func TestRegistryDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(namedProvider("AWS")))
	assert.Error(t, r.Register(namedProvider("AWS")))
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(namedProvider("GCP")))

	p, err := r.Get("GCP")
	require.NoError(t, err)
	assert.Equal(t, "GCP", p.Name())

	_, err = r.Get("missing")
	assert.Error(t, err)
}
