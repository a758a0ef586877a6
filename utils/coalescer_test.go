package utils

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalescerCollapsesBursts(t *testing.T) {
	c := NewCoalescer(30 * time.Millisecond)

	var calls int32
	var last int32
	for i := 1; i <= 5; i++ {
		n := int32(i)
		c.Schedule("step:1", func() {
			atomic.AddInt32(&calls, 1)
			atomic.StoreInt32(&last, n)
		})
	}
	assert.True(t, c.Pending("step:1"))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 1
	}, time.Second, 5*time.Millisecond)

	// Only the newest scheduled fn ran
	assert.Equal(t, int32(5), atomic.LoadInt32(&last))
	assert.False(t, c.Pending("step:1"))
}

func TestCoalescerKeysAreIndependent(t *testing.T) {
	c := NewCoalescer(20 * time.Millisecond)

	var a, b int32
	c.Schedule("step:1", func() { atomic.AddInt32(&a, 1) })
	c.Schedule("step:2", func() { atomic.AddInt32(&b, 1) })

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&a) == 1 && atomic.LoadInt32(&b) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestCoalescerFlushRunsImmediately(t *testing.T) {
	c := NewCoalescer(time.Hour)

	var ran int32
	c.Schedule("step:1", func() { atomic.AddInt32(&ran, 1) })
	c.Flush("step:1")

	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
	assert.False(t, c.Pending("step:1"))

	// Flushing with nothing pending is harmless
	c.Flush("step:1")
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestCoalescerCancel(t *testing.T) {
	c := NewCoalescer(20 * time.Millisecond)

	var ran int32
	c.Schedule("step:1", func() { atomic.AddInt32(&ran, 1) })
	c.Cancel("step:1")

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&ran))
}

func TestCoalescerFlushAll(t *testing.T) {
	c := NewCoalescer(time.Hour)

	var ran int32
	c.Schedule("step:1", func() { atomic.AddInt32(&ran, 1) })
	c.Schedule("step:2", func() { atomic.AddInt32(&ran, 1) })
	c.FlushAll()

	assert.Equal(t, int32(2), atomic.LoadInt32(&ran))
	assert.False(t, c.Pending("step:1"))
	assert.False(t, c.Pending("step:2"))
}

func TestFlushBeforeReloadPreservesEarlierEdit(t *testing.T) {
	c := NewCoalescer(time.Hour)

	// Mimics the step save protocol: read, patch a copy, schedule the
	// write. A second edit inside the debounce window flushes first so
	// its read sees the earlier patch instead of replacing it.
	type row struct{ paused, collapsed bool }
	var store row

	copyA := store
	copyA.paused = true
	c.Schedule("step:1", func() { store = copyA })

	c.Flush("step:1")
	copyB := store
	copyB.collapsed = true
	c.Schedule("step:1", func() { store = copyB })
	c.Flush("step:1")

	assert.True(t, store.paused)
	assert.True(t, store.collapsed)
}

func TestFlightGuardSerializesOverlap(t *testing.T) {
	g := NewFlightGuard()

	started := make(chan struct{})
	release := make(chan struct{})
	var order []string
	var mu sync.Mutex

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		g.Do("doc:1", func() {
			close(started)
			<-release
			mu.Lock()
			order = append(order, "first")
			mu.Unlock()
		})
	}()

	<-started
	assert.True(t, g.InFlight("doc:1"))

	// Two overlapping attempts: only the newest survives the queue
	g.Do("doc:1", func() {
		mu.Lock()
		order = append(order, "stale")
		mu.Unlock()
	})
	g.Do("doc:1", func() {
		mu.Lock()
		order = append(order, "newest")
		mu.Unlock()
	})

	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "newest"}, order)
	assert.False(t, g.InFlight("doc:1"))
}

func TestFlightGuardIndependentKeys(t *testing.T) {
	g := NewFlightGuard()

	var ran int32
	g.Do("doc:1", func() { atomic.AddInt32(&ran, 1) })
	g.Do("doc:2", func() { atomic.AddInt32(&ran, 1) })

	assert.Equal(t, int32(2), atomic.LoadInt32(&ran))
	assert.False(t, g.InFlight("doc:1"))
	assert.False(t, g.InFlight("doc:2"))
}
