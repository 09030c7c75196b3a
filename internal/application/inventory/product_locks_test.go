package inventory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductLocks_ExclusionMutua(t *testing.T) {
	locks := newProductLocks()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locks.Lock(context.Background(), 7)
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, maxInside)
	assert.Zero(t, locks.size(), "las entradas se liberan al quedar sin referencias")
}

func TestProductLocks_ProductosDistintosNoSeBloquean(t *testing.T) {
	locks := newProductLocks()
	unlockA, err := locks.Lock(context.Background(), 1)
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := locks.Lock(ctx, 2)
	require.NoError(t, err)
	unlockB()
}

func TestProductLocks_CancelacionLiberaLoAdquirido(t *testing.T) {
	locks := newProductLocks()
	unlock2, err := locks.Lock(context.Background(), 2)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.Lock(ctx, 2, 1) // adquiere 1, espera 2
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// 1 debe haber quedado libre
	unlock1, err := locks.Lock(context.Background(), 1)
	require.NoError(t, err)
	unlock1()
	unlock2()
	unlock2() // idempotente
	assert.Zero(t, locks.size())
}

func TestSortedUnique(t *testing.T) {
	assert.Equal(t, []int64{1, 3, 9}, sortedUnique([]int64{9, 3, 1, 3}))
}
