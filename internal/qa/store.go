package qa

import (
	"context"
	"sync/atomic"
)

// Store is the process-wide holder of the current Table. Readers never block;
// Refresh swaps in a new snapshot.
type Store struct {
	source *Source
	table  atomic.Pointer[Table]
	origin atomic.Value // Origin
}

// NewStore returns a Store that loads from src. It holds an empty table
// until Load is called.
func NewStore(src *Source) *Store {
	s := &Store{source: src}
	s.table.Store(NewTable(nil))
	s.origin.Store(OriginNone)
	return s
}

// Load fetches the pairs and replaces the snapshot. It never fails: the
// built-in table is the last fallback.
func (s *Store) Load(ctx context.Context) Origin {
	pairs, origin := s.source.Fetch(ctx)
	s.table.Store(NewTable(pairs))
	s.origin.Store(origin)
	return origin
}

// Refresh is Load; it exists so callers can express intent.
func (s *Store) Refresh(ctx context.Context) Origin {
	return s.Load(ctx)
}

// Snapshot returns the current table.
func (s *Store) Snapshot() *Table {
	return s.table.Load()
}

// Origin reports where the current table came from.
func (s *Store) Origin() Origin {
	return s.origin.Load().(Origin)
}

// Lookup answers from the current snapshot.
func (s *Store) Lookup(question string) (string, bool) {
	return s.Snapshot().Lookup(question)
}
