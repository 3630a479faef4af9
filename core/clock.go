package core

import "time"

// AuctionClock holds the auction end time. The auction is open strictly
// before the end time. The clock itself is pure state; the engine gates
// SetEndTime behind the administrator capability and the pre-close check.
type AuctionClock struct {
	endTime time.Time
}

// NewAuctionClock returns a clock ending at end.
func NewAuctionClock(end time.Time) *AuctionClock {
	return &AuctionClock{endTime: end}
}

// IsOpen reports whether the auction is still accepting bids at now.
func (c *AuctionClock) IsOpen(now time.Time) bool {
	return now.Before(c.endTime)
}

// EndTime returns the configured end time.
func (c *AuctionClock) EndTime() time.Time {
	return c.endTime
}

// SetEndTime replaces the end time. Administrators may extend or shorten.
func (c *AuctionClock) SetEndTime(end time.Time) {
	c.endTime = end
}
