package domain

// DefaultRateLimitThreshold is the fraction of the quota ceiling below
// which the executor refuses further requests.
const DefaultRateLimitThreshold = 0.20

// ThrottleStatus is the cost-based rate-limit state Jobber reports in
// extensions.cost.throttleStatus on every GraphQL response.
//
// It is recomputed per response; the most recent value is kept for
// inspection but each response carries its own ground truth.
type ThrottleStatus struct {
	// CurrentlyAvailable is the remaining quota points.
	CurrentlyAvailable int `json:"currentlyAvailable"`
	// MaximumAvailable is the quota ceiling (typically 10,000).
	MaximumAvailable int `json:"maximumAvailable"`
	// RestoreRate is points restored per second (typically 500).
	RestoreRate int `json:"restoreRate"`
}

// Valid reports whether the block is usable for admission control.
// A missing or malformed block must never crash the executor; callers
// skip the threshold check when Valid is false.
func (t ThrottleStatus) Valid() bool {
	return t.MaximumAvailable > 0 &&
		t.RestoreRate > 0 &&
		t.CurrentlyAvailable >= 0 &&
		t.CurrentlyAvailable <= t.MaximumAvailable
}

// Ratio returns CurrentlyAvailable / MaximumAvailable. Zero when the
// ceiling is non-positive.
func (t ThrottleStatus) Ratio() float64 {
	if t.MaximumAvailable <= 0 {
		return 0
	}
	return float64(t.CurrentlyAvailable) / float64(t.MaximumAvailable)
}

// WaitSeconds returns how long the provider needs to restore enough
// points to reach threshold*MaximumAvailable. Never negative.
func (t ThrottleStatus) WaitSeconds(threshold float64) float64 {
	if t.RestoreRate <= 0 {
		return 0
	}
	points := threshold*float64(t.MaximumAvailable) - float64(t.CurrentlyAvailable)
	if points <= 0 {
		return 0
	}
	return points / float64(t.RestoreRate)
}
