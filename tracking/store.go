package tracking

// Store owns the current set of live tracks. It is an ordered in-memory
// collection: insertion order is preserved so iteration is deterministic.
// No operation blocks; the engine is single-threaded per frame.
type Store struct {
	tracks []*Track
}

// NewStore creates an empty track store.
func NewStore() *Store {
	return &Store{
		tracks: make([]*Track, 0),
	}
}

// All returns the live tracks in insertion order. Be careful: this is not a
// copy of the underlying slice, but a reference to it.
func (store *Store) All() []*Track {
	return store.tracks
}

// Len returns the number of live tracks.
func (store *Store) Len() int {
	return len(store.tracks)
}

// Append adds a track to the store, preserving insertion order.
func (store *Store) Append(track *Track) {
	store.tracks = append(store.tracks, track)
}

// IndexOf returns the position of the track in the store, or -1 when it is
// not present.
func (store *Store) IndexOf(track *Track) int {
	for i := range store.tracks {
		if store.tracks[i] == track {
			return i
		}
	}
	return -1
}

// RemoveWhere removes every track matching the predicate and returns the
// removed tracks in their former store order.
func (store *Store) RemoveWhere(pred func(*Track) bool) []*Track {
	removed := make([]*Track, 0)
	kept := store.tracks[:0]
	for _, track := range store.tracks {
		if pred(track) {
			removed = append(removed, track)
			continue
		}
		kept = append(kept, track)
	}
	// Release the tail so removed tracks are not retained by the backing array
	for i := len(kept); i < len(store.tracks); i++ {
		store.tracks[i] = nil
	}
	store.tracks = kept
	return removed
}
