package lock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTable_ExclusiveSerializes(t *testing.T) {
	table := NewTable()
	key := Slot("2026-10-20", 1, "M1")

	var (
		wg      sync.WaitGroup
		inside  int32
		maxSeen int32
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := table.Acquire(key)
			defer release()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
	assert.Equal(t, 0, table.Len(), "entries are dropped once released")
}

func TestTable_SharedHoldersOverlap(t *testing.T) {
	table := NewTable()

	r1 := table.Acquire(Machine("M1", true))
	acquired := make(chan struct{})
	go func() {
		r2 := table.Acquire(Machine("M1", true))
		close(acquired)
		r2()
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second shared holder was blocked")
	}
	r1()
}

func TestTable_ExclusiveWaitsForShared(t *testing.T) {
	table := NewTable()

	shared := table.Acquire(Machine("M1", true))
	acquired := make(chan struct{})
	go func() {
		release := table.Acquire(Machine("M1", false))
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("exclusive holder entered while a shared holder was inside")
	case <-time.After(50 * time.Millisecond):
	}

	shared()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("exclusive holder never acquired the key")
	}
}

func TestTable_DuplicateKeysMerge(t *testing.T) {
	table := NewTable()

	release := table.Acquire(Slot("d", 0, "M1"), Slot("d", 0, "M1"), Machine("M1", true), Machine("M1", false))
	assert.Equal(t, 2, table.Len())
	release()
	release() // idempotent
	assert.Equal(t, 0, table.Len())
}

func TestTable_OppositeOrderDoesNotDeadlock(t *testing.T) {
	table := NewTable()
	a := Slot("2026-10-20", 0, "M1")
	b := Slot("2026-10-20", 1, "M1")

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(2)
			go func() { defer wg.Done(); table.Acquire(a, b)() }()
			go func() { defer wg.Done(); table.Acquire(b, a)() }()
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("deadlock acquiring keys in opposite order")
	}
}
