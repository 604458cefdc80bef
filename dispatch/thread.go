package dispatch

// ThreadCtx identifies one logical thread within a block launch and
// carries the block's barrier. Kernels receive one ThreadCtx per thread
// and must route every block-wide synchronization through Sync so that
// all threads of a block execute the same barrier sequence.
type ThreadCtx struct {
	BlockIdx  Dim2
	ThreadIdx Dim2
	BlockDim  Dim2
	GridDim   Dim2

	barrier *Barrier
}

// Sync suspends the calling thread until every thread of its block has
// arrived. Threads outside the currently active update region must call
// Sync exactly as active threads do.
func (tc *ThreadCtx) Sync() {
	tc.barrier.Await()
}

// FlatID returns the thread's flattened block-local id, row-major over
// the block (y*BlockDim.X + x).
func (tc *ThreadCtx) FlatID() int {
	return tc.ThreadIdx.Y*tc.BlockDim.X + tc.ThreadIdx.X
}
