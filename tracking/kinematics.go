package tracking

import "github.com/golang/geo/r3"

// Estimator updates a track's smoothed direction and instantaneous speed from
// consecutive ground-plane positions. It is an exponential-moving-average
// filter: O(1) memory, insensitive to history length, trading responsiveness
// for rejection of raycast noise.
type Estimator struct {
	// alpha is the weight of the new raw direction versus the previous
	// smoothed direction. Default 0.7.
	alpha float64
}

// NewDefaultEstimator creates an Estimator with smoothing factor 0.7.
func NewDefaultEstimator() *Estimator {
	return &Estimator{alpha: 0.7}
}

// NewEstimator creates an Estimator with the given smoothing factor.
func NewEstimator(alpha float64) *Estimator {
	return &Estimator{alpha: alpha}
}

// Observe records a newly resolved world position on the track and updates
// speed and direction.
//
// The first observation only sets the position; speed and direction stay at
// their zero values. Elapsed time <= 0 (duplicate or backward timestamp) also
// records the position only, guarding division by zero. A position with
// non-finite components is ignored entirely, and a smoothed direction with
// any non-finite component is discarded in favor of the previous one.
func (est *Estimator) Observe(track *Track, newPos r3.Vector, elapsed float64) {
	if !finiteVec(newPos) {
		// Garbage in, nothing out: keep the last valid state
		return
	}
	prev := track.WorldPosition
	pos := newPos
	track.WorldPosition = &pos
	track.appendTrail(pos)

	if prev == nil || elapsed <= 0 {
		return
	}

	displacement := newPos.Sub(*prev)
	if displacement.Norm() == 0 {
		// Coincident positions carry no direction information
		return
	}
	rawDirection := displacement.Normalize()
	smoothed := track.Direction.Mul(1 - est.alpha).Add(rawDirection.Mul(est.alpha))
	if finiteVec(smoothed) {
		track.Direction = smoothed
	}
	track.Speed = displacement.Norm() / elapsed
}
