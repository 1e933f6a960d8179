package storage

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Entry is one named value produced when persisting data.
type Entry struct {
	Name string
	Data []byte
}

// Snapshot is the list of entries written when persisting data.
type Snapshot []Entry

// Size returns the total number of bytes of all entries.
func (s Snapshot) Size() uint64 {
	var n uint64
	for _, e := range s {
		n += uint64(len(e.Data))
	}
	return n
}

// Names returns the entry names in order.
func (s Snapshot) Names() []string {
	names := make([]string, len(s))
	for i, e := range s {
		names[i] = e.Name
	}
	return names
}

// Write stores every entry using up to workers concurrent writes.
func (s Snapshot) Write(ctx context.Context, store Store, workers int) error {
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, e := range s {
		e := e
		g.Go(func() error {
			if err := store.Put(ctx, e.Name, e.Data); err != nil {
				return fmt.Errorf("unable to write %q to %s: %w", e.Name, store, err)
			}
			return nil
		})
	}
	return g.Wait()
}
