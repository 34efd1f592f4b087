package consistency

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

const defaultMaxEntries = 10_000

// Stamp identifies the state a read was served from. It changes whenever any
// key the read depends on is bumped.
type Stamp string

// ETag renders the stamp as a weak entity tag. An empty stamp has no tag.
func (s Stamp) ETag() string {
	if s == "" {
		return ""
	}
	return `W/"` + string(s) + `"`
}

// MatchesIfNoneMatch reports whether an If-None-Match header value names the
// stamp. Weak comparison is used, so W/ prefixes are ignored.
func (s Stamp) MatchesIfNoneMatch(header string) bool {
	if s == "" || header == "" {
		return false
	}
	want := string(s)
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" {
			return true
		}
		tag = strings.TrimPrefix(tag, "W/")
		if strings.Trim(tag, `"`) == want {
			return true
		}
	}
	return false
}

type entry struct {
	stamp Stamp
	deps  []Key
	value any
}

// Layer is a read-through cache whose entries are valid only while the
// versions of their dependency keys are unchanged.
type Layer struct {
	versions   VersionStore
	enabled    bool
	maxEntries int
	logger     *slog.Logger
	metrics    *Metrics

	mu      sync.Mutex
	entries map[string]entry
	flight  singleflight.Group
}

type Option func(*Layer)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Layer) {
		l.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(l *Layer) {
		l.metrics = m
	}
}

// WithCache turns value caching on or off. Version stamps and ETags work
// either way.
func WithCache(enabled bool) Option {
	return func(l *Layer) {
		l.enabled = enabled
	}
}

func WithMaxEntries(n int) Option {
	return func(l *Layer) {
		if n > 0 {
			l.maxEntries = n
		}
	}
}

func New(versions VersionStore, opts ...Option) *Layer {
	l := &Layer{
		versions:   versions,
		enabled:    true,
		maxEntries: defaultMaxEntries,
		logger:     slog.Default(),
		entries:    make(map[string]entry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func stampFor(cacheKey, epoch string, versions []uint64) Stamp {
	h := fnv.New64a()
	_, _ = h.Write([]byte(cacheKey))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(epoch))
	var b strings.Builder
	b.WriteString(strconv.FormatUint(h.Sum64(), 36))
	for _, v := range versions {
		b.WriteByte('.')
		b.WriteString(strconv.FormatUint(v, 10))
	}
	return Stamp(b.String())
}

// Read returns the cached value for cacheKey when none of deps changed since
// it was loaded, otherwise calls load. Concurrent loads of the same key at
// the same stamp share one call. When versions cannot be read the cache is
// bypassed and the returned stamp is empty. A nil Layer always loads.
func Read[T any](ctx context.Context, l *Layer, cacheKey string, deps []Key, load func(context.Context) (T, error)) (T, Stamp, error) {
	var zero T
	if l == nil {
		v, err := load(ctx)
		return v, "", err
	}

	epoch, versions, err := l.versions.Versions(ctx, deps)
	if err != nil {
		l.logger.WarnContext(ctx, "version lookup failed, bypassing read cache",
			"cache_key", cacheKey,
			"error", err,
		)
		l.metrics.incResult("bypass")
		v, err := load(ctx)
		return v, "", err
	}
	stamp := stampFor(cacheKey, epoch, versions)

	if l.enabled {
		l.mu.Lock()
		e, ok := l.entries[cacheKey]
		l.mu.Unlock()
		if ok && e.stamp == stamp {
			if v, ok := e.value.(T); ok {
				l.metrics.incResult("hit")
				return v, stamp, nil
			}
		}
	}
	l.metrics.incResult("miss")

	// The shared load outlives any single caller; each caller can still give
	// up waiting through its own context.
	loadCtx := context.WithoutCancel(ctx)
	ch := l.flight.DoChan(cacheKey+"@"+string(stamp), func() (any, error) {
		v, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if l.enabled {
			l.store(cacheKey, entry{stamp: stamp, deps: deps, value: v})
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, "", res.Err
		}
		v, ok := res.Val.(T)
		if !ok {
			return zero, "", fmt.Errorf("read cache: unexpected value type %T for %s", res.Val, cacheKey)
		}
		return v, stamp, nil
	}
}

func (l *Layer) store(cacheKey string, e entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.entries[cacheKey]; !exists && len(l.entries) >= l.maxEntries {
		// Map iteration order is random, so this drops an arbitrary tenth.
		drop := l.maxEntries / 10
		for k := range l.entries {
			if drop <= 0 {
				break
			}
			delete(l.entries, k)
			drop--
		}
	}
	l.entries[cacheKey] = e
}

// Invalidate bumps every key affected by the mutations. Call it after the
// unit of work commits and before responding. If the bump fails, local
// entries depending on those keys are dropped so this instance still serves
// fresh data, and the error is returned for logging.
func (l *Layer) Invalidate(ctx context.Context, mutations ...Mutation) error {
	if l == nil {
		return nil
	}
	var keys []Key
	for _, m := range mutations {
		keys = append(keys, Affected(m)...)
	}
	if len(keys) == 0 {
		return nil
	}
	l.metrics.addInvalidated(len(keys))

	if err := l.versions.Bump(ctx, keys); err != nil {
		l.purge(keys)
		return err
	}
	return nil
}

func (l *Layer) purge(keys []Key) {
	stale := make(map[Key]struct{}, len(keys))
	for _, k := range keys {
		stale[k] = struct{}{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for cacheKey, e := range l.entries {
		for _, d := range e.deps {
			if _, ok := stale[d]; ok {
				delete(l.entries, cacheKey)
				break
			}
		}
	}
}
