package timeoracle

import "time"

// ClockState classifies the local clock against the time authorities.
type ClockState int

const (
	// Consistent means an authority answered and agreed within the threshold.
	Consistent ClockState = iota
	// Manipulated means an authority answered and disagreed beyond the threshold.
	Manipulated
	// Unverified means no authority answered.
	Unverified
)

func (s ClockState) String() string {
	switch s {
	case Consistent:
		return "consistent"
	case Manipulated:
		return "manipulated"
	default:
		return "unverified"
	}
}

// ClockStatus is the outcome of one manipulation check. Skew is the
// authority's time minus the local time and is zero when Unverified.
type ClockStatus struct {
	State ClockState
	Skew  time.Duration
}
