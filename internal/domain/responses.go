package domain

// RoundProgress is the queue breakdown of the active round
type RoundProgress struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Sold    int `json:"sold"`
	Unsold  int `json:"unsold"`
}

// StateResponse is the assembled auction state served to clients. Clients
// poll it and derive the countdown locally from RemainingMs.
type StateResponse struct {
	Auction       *AuctionState      `json:"auction"`
	CurrentRound  *AuctionRound      `json:"current_round,omitempty"`
	CurrentPlayer *AuctionPlayer     `json:"current_player,omitempty"`
	CurrentBidder *FranchiseSummary  `json:"current_bidder,omitempty"`
	RemainingMs   *int64             `json:"remaining_ms,omitempty"`
	QueuePreview  []AuctionPlayer    `json:"queue_preview"`
	Rounds        []AuctionRound     `json:"rounds"`
	Franchises    []FranchiseSummary `json:"franchises"`
	Progress      *RoundProgress     `json:"progress,omitempty"`
	// Notice is set when an action was skipped because another caller
	// already resolved the player.
	Notice string `json:"notice,omitempty"`
}

// RoundResponse is a created or updated round with its queue size
type RoundResponse struct {
	Round       *AuctionRound `json:"round"`
	PlayerCount int           `json:"player_count"`
}

// BidResponse lets the bidder's client re-render without a follow-up
// state read
type BidResponse struct {
	NewBid          int64  `json:"new_bid"`
	BidderID        string `json:"bidder_id"`
	RemainingTimeMs int64  `json:"remaining_time_ms"`
}

// ImportResponse reports how many players an import added
type ImportResponse struct {
	RoundID string `json:"round_id"`
	Count   int    `json:"count"`
}
