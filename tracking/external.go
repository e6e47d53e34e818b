package tracking

import (
	"image"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// The engine never runs neural inference, short-term visual tracking, ray
// casting or rendering itself; the host platform supplies them behind these
// interfaces. All calls are synchronous: a frame's results are fully resolved
// before association, projection and expiry run for that frame.

// Detector produces labeled, scored bounding boxes for one camera frame.
type Detector interface {
	Detect(frame image.Image) ([]Detection, error)
}

// BoxTracker propagates a bounding box from the previous frame to the current
// one. A non-nil error means the box could not be located this frame.
type BoxTracker interface {
	Track(frame image.Image, prev Rect) (Rect, error)
}

// ErrNoIntersection is returned by a GroundPlaneResolver when no horizontal
// plane is found along the ray through the given point.
var ErrNoIntersection = errors.New("no ground plane intersection")

// GroundPlaneResolver casts a ray through a 2D frame point and intersects it
// with the tracked horizontal plane.
type GroundPlaneResolver interface {
	Resolve(point Point2) (r3.Vector, error)
}

// TrackSnapshot is the renderer-facing view of a track.
type TrackSnapshot struct {
	ID            uuid.UUID
	WorldPosition *r3.Vector
	Direction     r3.Vector
	Speed         float64
	Confidence    float64
}

// Renderer consumes track snapshots and owns all visual resource lifecycle.
// Remove is called once per track, before the engine drops it.
type Renderer interface {
	UpdateTrack(snapshot TrackSnapshot)
	Remove(id uuid.UUID)
}
