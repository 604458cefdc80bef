package dispatch

import (
	"fmt"
	"runtime"
	"sync"
)

// Kernel is a block-parallel compute function. It is invoked once per
// logical thread; shared is the block's tile buffer, created zeroed at
// launch entry and discarded at launch exit. All threads of one block
// see the same shared slice; threads of different blocks never do.
type Kernel func(tc *ThreadCtx, shared []float64)

// Device executes kernels over a grid of lock-step thread blocks.
// Blocks run independently and concurrently, chunked over a bounded set
// of scheduler workers; within a block all threads run as goroutines
// synchronized by a single cyclic barrier.
type Device struct {
	workers int
}

// NewDevice creates a CPU execution device. workers bounds the number
// of blocks in flight at once; zero selects runtime.NumCPU().
func NewDevice(workers int) *Device {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Device{workers: workers}
}

// Launch runs kernel over grid x block logical threads and blocks until
// every thread has returned. sharedLen is the per-block shared buffer
// length in elements.
func (d *Device) Launch(grid, block Dim2, sharedLen int, kernel Kernel) error {
	if !grid.Valid() || !block.Valid() {
		return fmt.Errorf("invalid launch geometry: grid %s, block %s", grid, block)
	}
	if sharedLen < 0 {
		return fmt.Errorf("invalid shared buffer length %d", sharedLen)
	}

	numBlocks := grid.Size()
	workers := d.workers
	if numBlocks < workers {
		workers = numBlocks
	}
	blocksPerWorker := (numBlocks + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		start := w * blocksPerWorker
		end := start + blocksPerWorker
		if end > numBlocks {
			end = numBlocks
		}
		go func(start, end int) {
			defer wg.Done()
			for id := start; id < end; id++ {
				blockIdx := Dim2{X: id % grid.X, Y: id / grid.X}
				d.runBlock(blockIdx, grid, block, sharedLen, kernel)
			}
		}(start, end)
	}
	wg.Wait()
	return nil
}

// runBlock executes all threads of one block in lock-step and returns
// when the block completes. The shared buffer lives exactly as long as
// this call.
func (d *Device) runBlock(blockIdx, grid, block Dim2, sharedLen int, kernel Kernel) {
	shared := make([]float64, sharedLen)
	barrier := NewBarrier(block.Size())

	var wg sync.WaitGroup
	wg.Add(block.Size())
	for ty := 0; ty < block.Y; ty++ {
		for tx := 0; tx < block.X; tx++ {
			tc := &ThreadCtx{
				BlockIdx:  blockIdx,
				ThreadIdx: Dim2{X: tx, Y: ty},
				BlockDim:  block,
				GridDim:   grid,
				barrier:   barrier,
			}
			go func(tc *ThreadCtx) {
				defer wg.Done()
				kernel(tc, shared)
			}(tc)
		}
	}
	wg.Wait()
}
