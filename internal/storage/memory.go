package storage

import (
	"context"
	"sync"
)

// MemoryDB is the lock shared by all in-memory stores of one process.
//
// A unit of work holds the write lock for its whole duration, so readers never
// see a membership transition without its notification. Writes register undo
// steps which run in reverse order when the unit of work fails.
type MemoryDB struct {
	mu sync.RWMutex
}

type journalKey struct {
	db *MemoryDB
}

type journal struct {
	undo []func()
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// Undo collects compensating steps for a write.
type Undo struct {
	j *journal
}

// Add registers fn to run if the enclosing unit of work fails.
func (u Undo) Add(fn func()) {
	u.j.undo = append(u.j.undo, fn)
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{}
}

func (db *MemoryDB) active(ctx context.Context) (*journal, bool) {
	j, ok := ctx.Value(journalKey{db: db}).(*journal)
	return j, ok
}

// RunInTx runs fn holding the write lock. A nested call joins the outer unit.
func (db *MemoryDB) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := db.active(ctx); ok {
		return fn(ctx)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	j := &journal{}
	txCtx := context.WithValue(ctx, journalKey{db: db}, j)

	committed := false
	defer func() {
		if !committed {
			j.rollback()
		}
	}()

	if err := fn(txCtx); err != nil {
		return err
	}
	committed = true
	return nil
}

// Read runs fn under the read lock, or directly when ctx is inside a unit of work.
func (db *MemoryDB) Read(ctx context.Context, fn func()) {
	if _, ok := db.active(ctx); ok {
		fn()
		return
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	fn()
}

// Write runs fn with exclusive access. Outside a unit of work a failing fn is
// rolled back immediately.
func (db *MemoryDB) Write(ctx context.Context, fn func(u Undo) error) error {
	if j, ok := db.active(ctx); ok {
		return fn(Undo{j: j})
	}
	return db.RunInTx(ctx, func(txCtx context.Context) error {
		j, _ := db.active(txCtx)
		return fn(Undo{j: j})
	})
}
