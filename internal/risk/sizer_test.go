package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSizer(t *testing.T) {
	_, err := NewSizer(SizerConfig{InvestmentPerTrade: 10000})
	assert.NoError(t, err)

	_, err = NewSizer(SizerConfig{InvestmentPerTrade: 0})
	assert.Error(t, err)

	_, err = NewSizer(SizerConfig{InvestmentPerTrade: math.NaN()})
	assert.Error(t, err)

	_, err = NewSizer(SizerConfig{InvestmentPerTrade: 100, MaxQuantity: -1})
	assert.Error(t, err)
}

func TestSizer_Quantity(t *testing.T) {
	sizer, err := NewSizer(SizerConfig{InvestmentPerTrade: 10000})
	require.NoError(t, err)

	tests := []struct {
		name  string
		price float64
		want  int
	}{
		{"exact division", 100, 100},
		{"floors fractional shares", 300, 33},
		{"price above budget", 10001, 0},
		{"zero price", 0, 0},
		{"negative price", -5, 0},
		{"NaN price", math.NaN(), 0},
		{"tiny price", 1e-12, math.MaxInt32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sizer.Quantity(tt.price))
		})
	}
}

func TestSizer_MaxQuantity(t *testing.T) {
	sizer, err := NewSizer(SizerConfig{InvestmentPerTrade: 10000, MaxQuantity: 25})
	require.NoError(t, err)

	assert.Equal(t, 25, sizer.Quantity(100))
	assert.Equal(t, 10, sizer.Quantity(1000))
}
