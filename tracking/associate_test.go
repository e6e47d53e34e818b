package tracking

import (
	"math"
	"testing"
)

func TestGreedyMatchUpdatesInPlace(t *testing.T) {
	store := NewStore()
	track := NewTrack(detAt(0, 0, 1, 1), 0)
	store.Append(track)

	assoc := NewDefaultAssociator()
	// IoU 0.81 against the existing track
	det := Detection{Label: "person", Confidence: 0.8, BBox: NewRect(0, 0, 0.9, 0.9)}
	result := assoc.Match(store, []Detection{det}, 2.0)

	if store.Len() != 1 {
		t.Fatalf("Expected store size 1, got %d", store.Len())
	}
	if len(result.Matched) != 1 || len(result.Spawned) != 0 {
		t.Fatalf("Expected 1 matched / 0 spawned, got %d/%d", len(result.Matched), len(result.Spawned))
	}
	if track.BBox != det.BBox {
		t.Errorf("Track box should be overwritten, got %+v", track.BBox)
	}
	if track.Confidence != 0.8 {
		t.Errorf("Track confidence should be overwritten, got %f", track.Confidence)
	}
	if track.LastUpdate != 2.0 {
		t.Errorf("Track timestamp should be overwritten, got %f", track.LastUpdate)
	}
}

func TestGreedyMatchSpawnsOnMiss(t *testing.T) {
	store := NewStore()
	existing := NewTrack(detAt(0, 0, 1, 1), 0)
	store.Append(existing)

	assoc := NewDefaultAssociator()
	det := Detection{Label: "person", Confidence: 0.7, BBox: NewRect(5, 5, 1, 1)}
	result := assoc.Match(store, []Detection{det}, 1.0)

	if store.Len() != 2 {
		t.Fatalf("Expected store size 2, got %d", store.Len())
	}
	if len(result.Spawned) != 1 {
		t.Fatalf("Expected 1 spawned track, got %d", len(result.Spawned))
	}
	spawned := result.Spawned[0]
	if spawned.ID == existing.ID {
		t.Error("Spawned track should get a fresh id")
	}
	if spawned.Speed != 0 || spawned.Direction.Norm() != 0 {
		t.Error("Spawned track should start with zero kinematics")
	}
	if spawned.WorldPosition != nil {
		t.Error("Spawned track should have no world position yet")
	}
}

func TestGreedyMatchConsumesTrackOncePerBatch(t *testing.T) {
	store := NewStore()
	track := NewTrack(detAt(0, 0, 1, 1), 0)
	store.Append(track)

	assoc := NewDefaultAssociator()
	// Both detections overlap the single track; only the first may claim it
	dets := []Detection{
		{Label: "person", Confidence: 0.9, BBox: NewRect(0, 0, 0.95, 0.95)},
		{Label: "person", Confidence: 0.6, BBox: NewRect(0.05, 0.05, 0.95, 0.95)},
	}
	result := assoc.Match(store, dets, 1.0)

	if store.Len() != 2 {
		t.Fatalf("Expected second detection to spawn, store size %d", store.Len())
	}
	if len(result.Matched) != 1 || len(result.Spawned) != 1 {
		t.Fatalf("Expected 1 matched / 1 spawned, got %d/%d", len(result.Matched), len(result.Spawned))
	}
	if track.Confidence != 0.9 {
		t.Errorf("First detection should win, track confidence %f", track.Confidence)
	}
}

func TestGreedyMatchZeroAreaDetectionSpawns(t *testing.T) {
	store := NewStore()
	store.Append(NewTrack(detAt(0, 0, 1, 1), 0))

	assoc := NewDefaultAssociator()
	det := Detection{Label: "person", Confidence: 0.9, BBox: NewRect(0.5, 0.5, 0, 0)}
	assoc.Match(store, []Detection{det}, 1.0)

	if store.Len() != 2 {
		t.Errorf("Degenerate detection should be a non-match, store size %d", store.Len())
	}
}

func TestHungarianMatchResolvesCrossing(t *testing.T) {
	store := NewStore()
	trackOne := NewTrack(detAt(0, 0, 1, 1), 0)
	trackTwo := NewTrack(detAt(0.4, 0, 1, 1), 0)
	store.Append(trackOne)
	store.Append(trackTwo)

	// detOne overlaps both tracks but fits trackTwo better (IoU 0.818 vs 0.538);
	// detTwo is exactly trackOne's box. A greedy first-match scan would give
	// detOne to trackOne; the optimal assignment does not.
	detOne := Detection{Label: "person", Confidence: 0.9, BBox: NewRect(0.3, 0, 1, 1)}
	detTwo := Detection{Label: "person", Confidence: 0.8, BBox: NewRect(0, 0, 1, 1)}

	assoc := NewAssociator(0.5, MatchingHungarian)
	result := assoc.Match(store, []Detection{detOne, detTwo}, 1.0)

	if store.Len() != 2 {
		t.Fatalf("Expected no spawns, store size %d", store.Len())
	}
	if len(result.Matched) != 2 {
		t.Fatalf("Expected 2 matched tracks, got %d", len(result.Matched))
	}
	if trackOne.BBox != detTwo.BBox {
		t.Errorf("trackOne should take detTwo's box, got %+v", trackOne.BBox)
	}
	if trackTwo.BBox != detOne.BBox {
		t.Errorf("trackTwo should take detOne's box, got %+v", trackTwo.BBox)
	}
}

func TestHungarianMatchSpawnsUnassigned(t *testing.T) {
	store := NewStore()
	store.Append(NewTrack(detAt(0, 0, 1, 1), 0))

	dets := []Detection{
		{Label: "person", Confidence: 0.9, BBox: NewRect(0, 0, 0.9, 0.9)},
		{Label: "person", Confidence: 0.7, BBox: NewRect(5, 5, 1, 1)},
	}
	assoc := NewAssociator(0.5, MatchingHungarian)
	result := assoc.Match(store, dets, 1.0)

	if store.Len() != 2 {
		t.Fatalf("Expected 2 tracks, got %d", store.Len())
	}
	if len(result.Matched) != 1 || len(result.Spawned) != 1 {
		t.Errorf("Expected 1 matched / 1 spawned, got %d/%d", len(result.Matched), len(result.Spawned))
	}
}

func TestHungarianMatchEmptyStore(t *testing.T) {
	store := NewStore()
	assoc := NewAssociator(0.5, MatchingHungarian)
	result := assoc.Match(store, []Detection{detAt(0, 0, 1, 1)}, 0)
	if store.Len() != 1 || len(result.Spawned) != 1 {
		t.Errorf("Expected single spawned track, store size %d", store.Len())
	}
}

func TestIoUCrossingScores(t *testing.T) {
	// Pin the fixture geometry the Hungarian test relies on
	trackOne := NewRect(0, 0, 1, 1)
	trackTwo := NewRect(0.4, 0, 1, 1)
	detOne := NewRect(0.3, 0, 1, 1)

	if v := IoU(detOne, trackOne); math.Abs(v-0.7/1.3) > eps {
		t.Errorf("Wrong IoU: %f, correct: %f", v, 0.7/1.3)
	}
	if v := IoU(detOne, trackTwo); math.Abs(v-0.9/1.1) > eps {
		t.Errorf("Wrong IoU: %f, correct: %f", v, 0.9/1.1)
	}
}
