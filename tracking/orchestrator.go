package tracking

import (
	"image"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Config holds the engine tunables.
type Config struct {
	// TargetLabel is the single detector class kept for association.
	TargetLabel string
	// DetectionInterval runs the detector on the first frame and then every
	// N-th frame after it. Earlier revisions of the pipeline used 3; treat it
	// as a tunable, not a law.
	DetectionInterval int
	// ConfidenceFloor drops detections scored below it before association.
	ConfidenceFloor float64
	// IoUThreshold is the association match threshold.
	IoUThreshold float64
	// Algorithm selects greedy or Hungarian association.
	Algorithm MatchingAlgorithm
	// Alpha is the direction smoothing factor.
	Alpha float64
	// ExpiryWindow removes a track once it has gone unobserved for this many
	// seconds. The boundary is inclusive of removal.
	ExpiryWindow float64
	// SmoothCenters runs each track's projection point through a 2D Kalman
	// filter before ray casting. CenterFilterDt is the filter time step.
	SmoothCenters  bool
	CenterFilterDt float64
}

// DefaultConfig returns the engine defaults: person class, detection every
// 5th frame above confidence 0.5, greedy IoU matching at 0.5, smoothing
// factor 0.7, one second expiry.
func DefaultConfig() Config {
	return Config{
		TargetLabel:       "person",
		DetectionInterval: 5,
		ConfidenceFloor:   0.5,
		IoUThreshold:      0.5,
		Algorithm:         MatchingGreedy,
		Alpha:             0.7,
		ExpiryWindow:      1.0,
		SmoothCenters:     false,
		CenterFilterDt:    1.0 / 30.0,
	}
}

// FrameStats summarizes one orchestrator cycle.
type FrameStats struct {
	Frame      int
	Detections int
	Matched    int
	Spawned    int
	Expired    int
	Live       int
}

// Orchestrator drives the per-frame cycle: short-term tracking every frame,
// detection at a fixed cadence, association, ground projection, kinematic
// update and expiry. It exclusively owns its Store. Single-threaded: one
// cycle runs to completion before the next frame is processed.
type Orchestrator struct {
	cfg      Config
	store    *Store
	assoc    *Associator
	est      *Estimator
	detector Detector
	tracker  BoxTracker
	resolver GroundPlaneResolver
	renderer Renderer
	logger   *slog.Logger

	frames int
}

// NewOrchestrator wires the engine to its external collaborators. A nil
// logger disables diagnostics.
func NewOrchestrator(cfg Config, detector Detector, tracker BoxTracker, resolver GroundPlaneResolver, renderer Renderer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Orchestrator{
		cfg:      cfg,
		store:    NewStore(),
		assoc:    NewAssociator(cfg.IoUThreshold, cfg.Algorithm),
		est:      NewEstimator(cfg.Alpha),
		detector: detector,
		tracker:  tracker,
		resolver: resolver,
		renderer: renderer,
		logger:   logger,
	}
}

// Store exposes the live track set. Mutate it only between Step calls.
func (orch *Orchestrator) Store() *Store {
	return orch.store
}

// Step runs one full cycle for a camera frame with monotonic timestamp t
// (seconds). Every failure inside the cycle is per-track and non-fatal: the
// affected track simply skips its update this frame and stays alive until the
// expiry window elapses.
func (orch *Orchestrator) Step(frame image.Image, t float64) FrameStats {
	orch.frames++
	stats := FrameStats{Frame: orch.frames}

	// Tracks whose bounding box changed this frame, by tracking or detection
	changed := make(map[uuid.UUID]struct{})

	// Short-term tracking runs every frame for every live track. A lost box
	// stays unchanged; timestamp logic handles the rest.
	for _, track := range orch.store.All() {
		box, err := orch.tracker.Track(frame, track.BBox)
		if err != nil {
			orch.logger.Debug("box lost this frame", "track", track.ID, "err", err)
			continue
		}
		track.BBox = box
		changed[track.ID] = struct{}{}
	}

	if orch.isDetectionFrame() {
		detections, err := orch.detector.Detect(frame)
		if err != nil {
			orch.logger.Warn("detector failed, skipping association", "frame", orch.frames, "err", err)
		} else {
			filtered := orch.filterDetections(detections)
			stats.Detections = len(filtered)
			result := orch.assoc.Match(orch.store, filtered, t)
			stats.Matched = len(result.Matched)
			stats.Spawned = len(result.Spawned)
			for _, track := range result.Matched {
				changed[track.ID] = struct{}{}
			}
			for _, track := range result.Spawned {
				changed[track.ID] = struct{}{}
			}
		}
	}

	// Project every moved box onto the ground plane and update kinematics
	for _, track := range orch.store.All() {
		if _, ok := changed[track.ID]; !ok {
			continue
		}
		if err := orch.updateWorldPosition(track, t); err != nil {
			orch.logger.Debug("world position skipped", "track", track.ID, "err", err)
		}
	}

	// Notify the renderer before the store drops the track
	stale := func(track *Track) bool {
		return t-track.LastUpdate >= orch.cfg.ExpiryWindow
	}
	for _, track := range orch.store.All() {
		if stale(track) {
			orch.renderer.Remove(track.ID)
			stats.Expired++
		}
	}
	orch.store.RemoveWhere(stale)

	for _, track := range orch.store.All() {
		orch.renderer.UpdateTrack(track.Snapshot())
	}
	stats.Live = orch.store.Len()
	return stats
}

// isDetectionFrame gates the detector cadence: the first frame always
// detects, then every DetectionInterval-th frame after it.
func (orch *Orchestrator) isDetectionFrame() bool {
	interval := orch.cfg.DetectionInterval
	if interval <= 1 {
		return true
	}
	return (orch.frames-1)%interval == 0
}

func (orch *Orchestrator) filterDetections(detections []Detection) []Detection {
	filtered := make([]Detection, 0, len(detections))
	for _, det := range detections {
		if det.Label != orch.cfg.TargetLabel {
			continue
		}
		if det.Confidence <= orch.cfg.ConfidenceFloor {
			continue
		}
		filtered = append(filtered, det)
	}
	return filtered
}

// updateWorldPosition projects the track's box center through the resolver
// and feeds the result to the estimator. Elapsed time is measured against the
// track's previous successful update.
func (orch *Orchestrator) updateWorldPosition(track *Track, t float64) error {
	point := track.BBox.Center()
	if orch.cfg.SmoothCenters {
		smoothed, err := track.smoothedCenter(orch.cfg.CenterFilterDt)
		if err != nil {
			// Raw center still works when the filter rejects the measurement
			orch.logger.Debug("center filter rejected measurement", "track", track.ID,
				"err", errors.Wrap(err, "can't update center filter"))
		}
		point = smoothed
	}
	worldPos, err := orch.resolver.Resolve(point)
	if err != nil {
		return err
	}
	orch.est.Observe(track, worldPos, t-track.LastUpdate)
	track.LastUpdate = t
	return nil
}
