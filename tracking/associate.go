package tracking

import (
	"github.com/arthurkushman/go-hungarian"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

// Detection is one detector output: a labeled, scored bounding box in
// normalized image coordinates.
type Detection struct {
	Label      string
	Confidence float64
	BBox       Rect
}

// MatchingAlgorithm selects how detections are assigned to tracks.
type MatchingAlgorithm uint16

const (
	// MatchingGreedy scans tracks in store order and takes the first one whose
	// IoU exceeds the threshold (first-match-wins, no global optimum search).
	MatchingGreedy MatchingAlgorithm = iota
	// MatchingHungarian solves the assignment globally with the Hungarian
	// (Kuhn-Munkres) algorithm over the IoU matrix.
	MatchingHungarian
)

// Associator reconciles a batch of detections with the live track set.
type Associator struct {
	// IoU above this value counts as a match. Default 0.5.
	iouThreshold float64
	algorithm    MatchingAlgorithm
}

// NewDefaultAssociator creates an Associator with greedy matching and an IoU
// threshold of 0.5.
func NewDefaultAssociator() *Associator {
	return &Associator{
		iouThreshold: 0.5,
		algorithm:    MatchingGreedy,
	}
}

// NewAssociator creates an Associator with the given threshold and algorithm.
func NewAssociator(iouThreshold float64, algorithm MatchingAlgorithm) *Associator {
	return &Associator{
		iouThreshold: iouThreshold,
		algorithm:    algorithm,
	}
}

// AssocResult reports which tracks a Match call touched.
type AssocResult struct {
	// Matched tracks had box, confidence and LastUpdate overwritten from a
	// detection.
	Matched []*Track
	// Spawned tracks were created for detections that matched nothing.
	Spawned []*Track
}

// Match reconciles detections with the store in place. Matched tracks take
// the detection's box, confidence and timestamp; unmatched detections spawn
// new tracks. A track is consumed by its first match within a batch: later
// detections skip it and keep scanning. Zero-area detections yield IoU 0
// everywhere and always spawn. Match never fails.
func (assoc *Associator) Match(store *Store, detections []Detection, now float64) AssocResult {
	switch assoc.algorithm {
	case MatchingHungarian:
		return assoc.matchHungarian(store, detections, now)
	default:
		return assoc.matchGreedy(store, detections, now)
	}
}

func (assoc *Associator) matchGreedy(store *Store, detections []Detection, now float64) AssocResult {
	result := AssocResult{}
	// Prevent double update of tracks within one batch
	consumed := make(map[uuid.UUID]struct{})

	for _, det := range detections {
		var matched *Track
		for _, track := range store.All() {
			if _, ok := consumed[track.ID]; ok {
				continue
			}
			if IoU(det.BBox, track.BBox) > assoc.iouThreshold {
				matched = track
				break
			}
		}
		if matched == nil {
			spawned := NewTrack(det, now)
			store.Append(spawned)
			result.Spawned = append(result.Spawned, spawned)
			continue
		}
		applyDetection(matched, det, now)
		consumed[matched.ID] = struct{}{}
		result.Matched = append(result.Matched, matched)
	}
	return result
}

// matchHungarian builds the IoU matrix between tracks and detections, pads it
// square, and applies the optimal assignment. Assignments at or below the IoU
// threshold are discarded so the spawn/update rules match the greedy path.
func (assoc *Associator) matchHungarian(store *Store, detections []Detection, now float64) AssocResult {
	result := AssocResult{}
	tracks := store.All()
	numTracks := len(tracks)
	numDetections := len(detections)
	if numTracks == 0 || numDetections == 0 {
		for _, det := range detections {
			spawned := NewTrack(det, now)
			store.Append(spawned)
			result.Spawned = append(result.Spawned, spawned)
		}
		return result
	}

	// Rows = tracks, columns = detections, padded with zero IoU to square.
	// The solver needs at least two rows, so degenerate batches pad up to 2x2.
	size := max(numTracks, numDetections, 2)
	scores := mat.NewDense(size, size, nil)
	for i, track := range tracks {
		for j := range detections {
			scores.Set(i, j, IoU(detections[j].BBox, track.BBox))
		}
	}
	// The solver reduces its input in place, so it gets a copy and the
	// threshold check below reads the untouched score matrix.
	rows := make([][]float64, size)
	for i := range rows {
		rows[i] = make([]float64, size)
		copy(rows[i], scores.RawRowView(i))
	}

	assignments := hungarian.SolveMax(rows)
	matchedDetections := make(map[int]struct{})
	for trackIdx, rowMap := range assignments {
		if trackIdx >= numTracks {
			continue
		}
		for detIdx := range rowMap {
			if detIdx >= numDetections {
				continue
			}
			if scores.At(trackIdx, detIdx) <= assoc.iouThreshold {
				continue
			}
			applyDetection(tracks[trackIdx], detections[detIdx], now)
			matchedDetections[detIdx] = struct{}{}
			result.Matched = append(result.Matched, tracks[trackIdx])
		}
	}

	for j, det := range detections {
		if _, ok := matchedDetections[j]; ok {
			continue
		}
		spawned := NewTrack(det, now)
		store.Append(spawned)
		result.Spawned = append(result.Spawned, spawned)
	}
	return result
}

func applyDetection(track *Track, det Detection, now float64) {
	track.BBox = det.BBox
	track.Confidence = det.Confidence
	track.LastUpdate = now
}
