package consistency

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// VersionStore holds a monotonic counter per key. Unknown keys read as zero.
// Counters are comparable only within one epoch: a store that loses its
// counters must report a new epoch.
type VersionStore interface {
	Versions(ctx context.Context, keys []Key) (epoch string, versions []uint64, err error)
	Bump(ctx context.Context, keys []Key) error
}

// MemoryVersions is a process-local VersionStore. Each instance is its own
// epoch, so stamps handed out before a restart never match again.
type MemoryVersions struct {
	epoch string

	mu       sync.RWMutex
	versions map[Key]uint64
}

func NewMemoryVersions() *MemoryVersions {
	return &MemoryVersions{epoch: uuid.NewString(), versions: make(map[Key]uint64)}
}

func (v *MemoryVersions) Versions(_ context.Context, keys []Key) (string, []uint64, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]uint64, len(keys))
	for i, k := range keys {
		out[i] = v.versions[k]
	}
	return v.epoch, out, nil
}

func (v *MemoryVersions) Bump(_ context.Context, keys []Key) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, k := range keys {
		v.versions[k]++
	}
	return nil
}
