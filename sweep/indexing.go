package sweep

// Indexing functions mapping block-local thread coordinates to linear
// offsets. The tile is laid out y-major within each x offset, variables
// outermost; the global buffer is snapshot-major, then variable, then
// spatial with x as the major axis (stride M).

// TileIndex maps padded local coordinates (already offset by OPS) to a
// linear tile index. The tile row stride is BlockH + 2*OPS.
func (c Config) TileIndex(tidx, tidy int) int {
	return tidy + c.TileRows()*tidx
}

// GlobalIndex maps a block+thread coordinate to the spatial index of
// the thread's owned cell within the padded global grid.
func (c Config) GlobalIndex(blockX, blockY, threadX, threadY int) int {
	return c.M*(c.OPS+threadX) + c.OPS + threadY + c.BlockH*blockY + c.BlockW*blockX*c.M
}

// EdgeIndex maps a block coordinate and a padded tile row to the
// spatial index of the row's first cell (x offset zero) in the padded
// global grid. Halo loads walk x offsets from this base in strides of M.
func (c Config) EdgeIndex(blockX, blockY, row int) int {
	return row + c.BlockH*blockY + c.BlockW*blockX*c.M
}
