package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crickarena/auction-api/internal/config"
)

func defaultTiers() []config.IncrementTier {
	return []config.IncrementTier{
		{MinPrice: 0, Step: 500_000},
		{MinPrice: 10_000_000, Step: 1_000_000},
		{MinPrice: 50_000_000, Step: 2_000_000},
	}
}

func TestPricingEngine_Increment(t *testing.T) {
	p := NewPricingEngine(defaultTiers())

	tests := []struct {
		name string
		bid  int64
		want int64
	}{
		{"floor", 0, 500_000},
		{"inside first tier", 7_500_000, 500_000},
		{"just below second tier", 9_999_999, 500_000},
		{"exactly at second tier", 10_000_000, 1_000_000},
		{"inside second tier", 25_000_000, 1_000_000},
		{"exactly at third tier", 50_000_000, 2_000_000},
		{"far above third tier", 120_000_000, 2_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Increment(tt.bid))
		})
	}
}

func TestPricingEngine_RequiredBid(t *testing.T) {
	p := NewPricingEngine(defaultTiers())

	t.Run("opening bid lands exactly on base price", func(t *testing.T) {
		assert.Equal(t, int64(2_000_000), p.RequiredBid(2_000_000, 0))
	})

	t.Run("second bid adds the tier increment", func(t *testing.T) {
		assert.Equal(t, int64(2_500_000), p.RequiredBid(2_000_000, 2_000_000))
	})

	t.Run("increment follows the current bid's tier", func(t *testing.T) {
		assert.Equal(t, int64(11_000_000), p.RequiredBid(2_000_000, 10_000_000))
		assert.Equal(t, int64(52_000_000), p.RequiredBid(2_000_000, 50_000_000))
	})
}

func TestPricingEngine_MonotonicSequence(t *testing.T) {
	p := NewPricingEngine(defaultTiers())

	base := int64(2_000_000)
	bid := p.RequiredBid(base, 0)
	assert.Equal(t, base, bid)

	prev := bid
	for i := 0; i < 100; i++ {
		next := p.RequiredBid(base, prev)
		assert.Greater(t, next, prev)
		assert.Equal(t, p.Increment(prev), next-prev)
		prev = next
	}
}

func TestPricingEngine_SingleTier(t *testing.T) {
	p := NewPricingEngine([]config.IncrementTier{{MinPrice: 0, Step: 100_000}})

	assert.Equal(t, int64(100_000), p.Increment(0))
	assert.Equal(t, int64(100_000), p.Increment(99_000_000))
	assert.Equal(t, int64(5_100_000), p.RequiredBid(1_000_000, 5_000_000))
}
