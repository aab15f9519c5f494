package factor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stringer07/factor-mining/internal/analysis"
	"github.com/stringer07/factor-mining/internal/errors"
	"github.com/stringer07/factor-mining/internal/market/kline"
)

type stubFactor struct {
	name string
}

func (s stubFactor) Metadata() Metadata {
	return Metadata{Name: s.name, Category: "test"}
}

func (s stubFactor) Compute(klines kline.Series) (analysis.TimeSeries, error) {
	return analysis.TimeSeries{}, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Len())

	r.Register(stubFactor{name: "beta"})
	r.Register(stubFactor{name: "alpha"})

	f, err := r.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", f.Metadata().Name)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name, "listing is sorted by name")
	assert.Equal(t, "beta", list[1].Name)
}

func TestRegistryUnknownFactor(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("missing")
	assert.True(t, errors.IsCode(err, errors.ErrCodeFactorNotFound))
}

func TestRegistryOverwrite(t *testing.T) {
	r := NewRegistry()
	r.Register(stubFactor{name: "alpha"})
	r.Register(stubFactor{name: "alpha"})
	assert.Equal(t, 1, r.Len())
}
