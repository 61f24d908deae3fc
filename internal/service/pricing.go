package service

import (
	"github.com/crickarena/auction-api/internal/config"
)

// PricingEngine maps a current bid to the minimum raise. The tier table is
// ascending, so larger bids step in larger increments and a late bidder
// cannot creep to a win in tiny raises.
type PricingEngine struct {
	tiers []config.IncrementTier
}

// NewPricingEngine creates a pricing engine from a validated tier table
func NewPricingEngine(tiers []config.IncrementTier) *PricingEngine {
	return &PricingEngine{tiers: tiers}
}

// Increment returns the raise required above the given bid
func (p *PricingEngine) Increment(currentBid int64) int64 {
	step := p.tiers[0].Step
	for _, tier := range p.tiers {
		if currentBid < tier.MinPrice {
			break
		}
		step = tier.Step
	}
	return step
}

// RequiredBid returns the amount the next bid must land on. The opening
// bid is exactly the base price, every later bid is the current bid plus
// its tier increment.
func (p *PricingEngine) RequiredBid(basePrice, currentBid int64) int64 {
	if currentBid == 0 {
		return basePrice
	}
	return currentBid + p.Increment(currentBid)
}
