package sweep

import "github.com/notargets/swept2d/dispatch"

// TileView is a strided view over a block's tile buffer. Offsets are
// computed from the declared strides: moving one cell in x adds
// RowStride, one cell in y adds one, one variable adds VarStride.
type TileView struct {
	Data      []float64
	RowStride int
	VarStride int
}

// At reads variable n at the cell dx columns and dy rows away from the
// cell identified by idx.
func (v TileView) At(idx, dx, dy, n int) float64 {
	return v.Data[idx+dx*v.RowStride+dy+n*v.VarStride]
}

// Get reads variable n at the cell identified by idx
func (v TileView) Get(idx, n int) float64 {
	return v.Data[idx+n*v.VarStride]
}

// Set writes variable n at the cell identified by idx
func (v TileView) Set(idx, n int, val float64) {
	v.Data[idx+n*v.VarStride] = val
}

// Stepper advances the NV variables of one cell by one time step. It
// must be a pure function of the neighborhood within OPS cells of idx:
// it reads from tile and writes the advanced values to out (length NV),
// never into the tile itself. The kernel stores out after a block
// barrier, so concurrent steps never observe partially advanced cells.
type Stepper interface {
	Step(tile TileView, idx int, out []float64)
}

// View wraps a tile buffer with this configuration's strides
func (c Config) View(tile []float64) TileView {
	return TileView{Data: tile, RowStride: c.TileRows(), VarStride: c.SGIDS}
}

// ZeroTile clears the tile before any halo or interior load. Every
// thread whose flattened block-local id addresses a tile row clears
// that entire row across all x offsets and variables; a tile sized
// larger than the currently valid region therefore never yields stale
// reads. Ends with a full-block barrier.
func (c Config) ZeroTile(tc *dispatch.ThreadCtx, tile []float64) {
	row := tc.FlatID()
	rows := c.TileRows()
	if row < rows {
		for i := 0; i < c.TileCols(); i++ {
			for n := 0; n < c.NV; n++ {
				tile[row+i*rows+n*c.SGIDS] = 0
			}
		}
	}
	tc.Sync()
}

// LoadHalo populates the tile's halo ring from the global buffer at the
// given time snapshot. Threads whose flattened id addresses a tile row
// copy the OPS left and right halo columns for that row; rows in the
// top or bottom OPS margin copy the entire row, which also covers the
// four corner regions. Inactive threads do no work but still reach the
// trailing barrier.
func (c Config) LoadHalo(tc *dispatch.ThreadCtx, tile, state []float64, timeIdx int) {
	row := tc.FlatID()
	rows := c.TileRows()
	if row < rows {
		base := c.EdgeIndex(tc.BlockIdx.X, tc.BlockIdx.Y, row)

		// Front and back halo columns
		for i := 0; i < c.OPS; i++ {
			c.copyColumn(tile, state, row, i, base, timeIdx)
		}
		for i := c.BlockW + c.OPS; i < c.BlockW+2*c.OPS; i++ {
			c.copyColumn(tile, state, row, i, base, timeIdx)
		}

		// Top and bottom margin rows, corners included
		if row < c.OPS || c.BlockH+c.OPS <= row {
			for i := 0; i < c.TileCols(); i++ {
				c.copyColumn(tile, state, row, i, base, timeIdx)
			}
		}
	}
	tc.Sync()
}

// copyColumn copies all NV variables of one (x offset, row) cell from
// the global buffer into the tile.
func (c Config) copyColumn(tile, state []float64, row, i, base, timeIdx int) {
	rows := c.TileRows()
	for n := 0; n < c.NV; n++ {
		tile[row+i*rows+n*c.SGIDS] = state[base+i*c.M+n*c.VARS+timeIdx*c.TIMES]
	}
}
