package dispatch

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDim2(t *testing.T) {
	assert.Equal(t, 12, Dim2{X: 3, Y: 4}.Size())
	assert.Equal(t, "3x4", Dim2{X: 3, Y: 4}.String())
	assert.True(t, Dim2{X: 1, Y: 1}.Valid())
	assert.False(t, Dim2{X: 0, Y: 4}.Valid())
	assert.False(t, Dim2{X: 3, Y: -1}.Valid())
}

func TestNewBarrierRejectsNonPositiveParties(t *testing.T) {
	assert.Panics(t, func() { NewBarrier(0) })
	assert.Panics(t, func() { NewBarrier(-3) })
	assert.Equal(t, 4, NewBarrier(4).Parties())
}

// TestBarrierLockStep drives one barrier through many generations and
// verifies no party observes a generation before every party has
// arrived at it.
func TestBarrierLockStep(t *testing.T) {
	const parties = 8
	const rounds = 200

	b := NewBarrier(parties)
	arrived := make([]int32, rounds)

	var wg sync.WaitGroup
	wg.Add(parties)
	for p := 0; p < parties; p++ {
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				atomic.AddInt32(&arrived[r], 1)
				b.Await()
				if n := atomic.LoadInt32(&arrived[r]); n != parties {
					t.Errorf("round %d released with %d of %d arrivals", r, n, parties)
					return
				}
			}
		}()
	}
	wg.Wait()
}

// TestLaunchCoverage verifies every logical thread of the launch runs
// exactly once and sees consistent geometry.
func TestLaunchCoverage(t *testing.T) {
	grid := Dim2{X: 3, Y: 2}
	block := Dim2{X: 4, Y: 3}
	visits := make([]int32, grid.Size()*block.Size())

	dev := NewDevice(0)
	err := dev.Launch(grid, block, 0, func(tc *ThreadCtx, shared []float64) {
		if tc.BlockDim != block || tc.GridDim != grid {
			t.Errorf("thread saw geometry grid %s block %s", tc.GridDim, tc.BlockDim)
			return
		}
		blockID := tc.BlockIdx.Y*grid.X + tc.BlockIdx.X
		atomic.AddInt32(&visits[blockID*block.Size()+tc.FlatID()], 1)
	})
	require.NoError(t, err)

	for i, n := range visits {
		assert.Equal(t, int32(1), n, "thread slot %d", i)
	}
}

// TestLaunchSharedScope verifies the shared buffer is per-block and
// that writes before a Sync are visible to all threads after it.
func TestLaunchSharedScope(t *testing.T) {
	grid := Dim2{X: 4, Y: 4}
	block := Dim2{X: 3, Y: 3}
	var mismatches int32

	dev := NewDevice(2)
	err := dev.Launch(grid, block, 1, func(tc *ThreadCtx, shared []float64) {
		blockID := tc.BlockIdx.Y*tc.GridDim.X + tc.BlockIdx.X
		if tc.FlatID() == 0 {
			shared[0] = float64(blockID)
		}
		tc.Sync()
		if shared[0] != float64(blockID) {
			atomic.AddInt32(&mismatches, 1)
		}
	})
	require.NoError(t, err)
	assert.Zero(t, mismatches, "shared buffer leaked across blocks")
}

// TestLaunchSyncOrdering has every thread publish a value, Sync, then
// read a neighbor's slot; a stale read means the barrier released
// early.
func TestLaunchSyncOrdering(t *testing.T) {
	grid := Dim2{X: 2, Y: 2}
	block := Dim2{X: 8, Y: 4}
	var stale int32

	dev := NewDevice(0)
	err := dev.Launch(grid, block, block.Size(), func(tc *ThreadCtx, shared []float64) {
		id := tc.FlatID()
		shared[id] = float64(id + 1)
		tc.Sync()
		neighbor := (id + 1) % block.Size()
		if shared[neighbor] != float64(neighbor+1) {
			atomic.AddInt32(&stale, 1)
		}
	})
	require.NoError(t, err)
	assert.Zero(t, stale, "a thread read its neighbor before the barrier released")
}

func TestLaunchRejectsInvalidGeometry(t *testing.T) {
	dev := NewDevice(1)
	noop := func(tc *ThreadCtx, shared []float64) {}

	err := dev.Launch(Dim2{X: 0, Y: 1}, Dim2{X: 1, Y: 1}, 0, noop)
	assert.Error(t, err)

	err = dev.Launch(Dim2{X: 1, Y: 1}, Dim2{X: 1, Y: -2}, 0, noop)
	assert.Error(t, err)

	err = dev.Launch(Dim2{X: 1, Y: 1}, Dim2{X: 1, Y: 1}, -1, noop)
	assert.Error(t, err)
}
