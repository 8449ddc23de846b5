package sales

import "time"

// Window is the half-open interval [Open, Close) during which purchases are accepted.
type Window struct {
	Open  time.Time
	Close time.Time
}

// IsOpen reports whether now falls inside the window.
func (w Window) IsOpen(now time.Time) bool {
	return !now.Before(w.Open) && now.Before(w.Close)
}

// HasClosed reports whether the closing time has been reached.
func (w Window) HasClosed(now time.Time) bool {
	return !now.Before(w.Close)
}
