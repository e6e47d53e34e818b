package tracking

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
)

// Track is the persistent state of one continuously-observed person.
// Tracks are owned exclusively by the Store; no other component keeps a
// reference across frames.
type Track struct {
	// ID is assigned at creation and never changes.
	ID uuid.UUID
	// BBox is the latest 2D observation region in normalized image
	// coordinates. It is always present and mutated every frame the track is
	// touched by short-term tracking or a detection match.
	BBox Rect
	// WorldPosition is nil until the first successful ground-plane
	// projection, then overwritten on each successful one.
	WorldPosition *r3.Vector
	// Direction is the smoothed velocity direction. Zero until the second
	// observed world position; never contains NaN/Inf components.
	Direction r3.Vector
	// Speed is the last instantaneous scalar speed (distance/time), >= 0.
	Speed float64
	// Confidence is the last detector confidence, 0 for tracks never matched
	// to a detection this session.
	Confidence float64
	// LastUpdate is the monotonic timestamp (seconds) of the most recent
	// successful position update. Used solely for staleness.
	LastUpdate float64

	trail        []r3.Vector
	maxTrailLen  int
	centerFilter *kalman_filter.Kalman2D
}

// NewTrack creates a track from an unmatched detection. Kinematics start at
// zero and there is no world position until the first projection succeeds.
func NewTrack(det Detection, now float64) *Track {
	return &Track{
		ID:          uuid.New(),
		BBox:        det.BBox,
		Confidence:  det.Confidence,
		LastUpdate:  now,
		trail:       make([]r3.Vector, 0, defaultMaxTrailLen),
		maxTrailLen: defaultMaxTrailLen,
	}
}

const defaultMaxTrailLen = 150

// Trail returns the track's world-position history. Be careful: this is not a
// copy of the trail, but a reference to it.
func (track *Track) Trail() []r3.Vector {
	return track.trail
}

// SetMaxTrailLen sets the cap on the world-position history.
func (track *Track) SetMaxTrailLen(maxTrailLen int) {
	track.maxTrailLen = maxTrailLen
}

func (track *Track) appendTrail(pos r3.Vector) {
	track.trail = append(track.trail, pos)
	if len(track.trail) > track.maxTrailLen {
		track.trail = track.trail[1:]
	}
}

// Snapshot extracts the renderer-facing view of the track.
func (track *Track) Snapshot() TrackSnapshot {
	return TrackSnapshot{
		ID:            track.ID,
		WorldPosition: track.WorldPosition,
		Direction:     track.Direction,
		Speed:         track.Speed,
		Confidence:    track.Confidence,
	}
}

// smoothedCenter runs the track's bounding box center through the optional 2D
// Kalman filter. The filter is created lazily on first use; on update failure
// the raw center is returned unchanged.
func (track *Track) smoothedCenter(dt float64) (Point2, error) {
	center := track.BBox.Center()
	if track.centerFilter == nil {
		/* Kalman filter props */
		ux := 1.0
		uy := 1.0
		stdDevA := 2.0
		stdDevMx := 0.1
		stdDevMy := 0.1
		track.centerFilter = kalman_filter.NewKalman2D(dt, ux, uy, stdDevA, stdDevMx, stdDevMy,
			kalman_filter.WithState2D(center.X, center.Y))
		return center, nil
	}
	track.centerFilter.Predict()
	if err := track.centerFilter.Update(center.X, center.Y); err != nil {
		return center, err
	}
	stateX, stateY := track.centerFilter.GetState()
	return Point2{X: stateX, Y: stateY}, nil
}
