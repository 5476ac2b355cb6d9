package watcher

import (
	"context"
	"sync"
)

// VersionGate passes a change notification only when a version counter has
// moved since the last one it passed. Serve uses it with the store's
// data_version so its own commits do not trigger a refresh.
type VersionGate struct {
	mu   sync.Mutex
	read func(context.Context) (int64, error)
	last int64
}

// NewVersionGate reads the baseline version
func NewVersionGate(ctx context.Context, read func(context.Context) (int64, error)) (*VersionGate, error) {
	last, err := read(ctx)
	if err != nil {
		return nil, err
	}
	return &VersionGate{read: read, last: last}, nil
}

// Changed reports whether the version moved and records the new value.
// A failed read counts as a change.
func (g *VersionGate) Changed(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	v, err := g.read(ctx)
	if err != nil {
		return true
	}
	if v == g.last {
		return false
	}
	g.last = v
	return true
}
