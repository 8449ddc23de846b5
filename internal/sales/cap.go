package sales

import "github.com/holiman/uint256"

// CapTracker keeps the running total of accepted payments below a hard cap.
// It is not safe for concurrent use; Service serializes access.
type CapTracker struct {
	hardCap     *uint256.Int
	totalRaised *uint256.Int
}

// NewCapTracker creates a tracker with nothing raised yet.
func NewCapTracker(hardCap *uint256.Int) *CapTracker {
	return &CapTracker{
		hardCap:     new(uint256.Int).Set(hardCap),
		totalRaised: new(uint256.Int),
	}
}

// Reserve adds amount to the total, or returns ErrCapExceeded and changes nothing.
// Reaching the cap exactly is allowed.
func (c *CapTracker) Reserve(amount *uint256.Int) error {
	newTotal, overflow := new(uint256.Int).AddOverflow(c.totalRaised, amount)
	if overflow || newTotal.Gt(c.hardCap) {
		return ErrCapExceeded
	}
	c.totalRaised = newTotal
	return nil
}

// Release undoes a Reserve of amount belonging to a purchase that did not commit.
func (c *CapTracker) Release(amount *uint256.Int) {
	c.totalRaised = new(uint256.Int).Sub(c.totalRaised, amount)
}

// TotalRaised returns a copy of the accepted volume.
func (c *CapTracker) TotalRaised() *uint256.Int {
	return new(uint256.Int).Set(c.totalRaised)
}

// HardCap returns a copy of the cap.
func (c *CapTracker) HardCap() *uint256.Int {
	return new(uint256.Int).Set(c.hardCap)
}

// Remaining returns how much payment volume can still be accepted.
func (c *CapTracker) Remaining() *uint256.Int {
	return new(uint256.Int).Sub(c.hardCap, c.totalRaised)
}

// Reached reports whether the total equals the cap.
func (c *CapTracker) Reached() bool {
	return c.totalRaised.Eq(c.hardCap)
}
