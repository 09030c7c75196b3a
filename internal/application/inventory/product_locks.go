package inventory

import (
	"context"
	"slices"
	"sync"
)

// productLocks serializa las mutaciones por producto dentro del proceso.
// Cada producto tiene un semáforo de capacidad 1; la entrada del mapa vive
// mientras haya alguien esperándolo o reteniéndolo.
type productLocks struct {
	mu    sync.Mutex
	slots map[int64]*lockSlot
}

type lockSlot struct {
	sem  chan struct{}
	refs int
}

func newProductLocks() *productLocks {
	return &productLocks{slots: make(map[int64]*lockSlot)}
}

// Lock adquiere los bloqueos de ids en orden ascendente (sin deadlock entre
// mutaciones que tocan dos productos). Si ctx termina antes, libera lo adquirido.
func (l *productLocks) Lock(ctx context.Context, ids ...int64) (unlock func(), err error) {
	ids = sortedUnique(ids)
	held := make([]int64, 0, len(ids))
	for _, id := range ids {
		slot := l.ref(id)
		select {
		case slot.sem <- struct{}{}:
			held = append(held, id)
		case <-ctx.Done():
			l.unref(id)
			l.release(held)
			return nil, ctx.Err()
		}
	}
	var once sync.Once
	return func() { once.Do(func() { l.release(held) }) }, nil
}

func (l *productLocks) ref(id int64) *lockSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[id]
	if !ok {
		slot = &lockSlot{sem: make(chan struct{}, 1)}
		l.slots[id] = slot
	}
	slot.refs++
	return slot
}

func (l *productLocks) unref(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot := l.slots[id]
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, id)
	}
}

func (l *productLocks) release(ids []int64) {
	for i := len(ids) - 1; i >= 0; i-- {
		l.mu.Lock()
		slot := l.slots[ids[i]]
		l.mu.Unlock()
		<-slot.sem
		l.unref(ids[i])
	}
}

// size entradas vivas del mapa (tests).
func (l *productLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func sortedUnique(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
