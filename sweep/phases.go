package sweep

import (
	"fmt"

	"github.com/notargets/swept2d/dispatch"
)

// Kernels binds the launch configuration, the pluggable step rule, and
// the global state buffer into the three swept-rule compute phases.
// Each phase is a dispatch.Kernel over one grid launch; the external
// driver owns the state buffer, sequences phases with boundary
// exchanges between them, and stages the halo plane each phase reads
// (StageHalo: snapshot 0 for UpPyramid, MPSS for the others).
//
// Bound asymmetry: shrinking sweeps use an exclusive upper bound while
// growing sweeps use an inclusive one.
type Kernels struct {
	cfg   Config
	step  Stepper
	state []float64
	halo  []float64
}

// NewKernels validates the state buffer against the configuration
func NewKernels(cfg Config, step Stepper, state []float64) (*Kernels, error) {
	if step == nil {
		return nil, fmt.Errorf("step rule is nil")
	}
	if len(state) < cfg.StateLen() {
		return nil, fmt.Errorf("state buffer holds %d elements, configuration requires %d",
			len(state), cfg.StateLen())
	}
	return &Kernels{
		cfg:   cfg,
		step:  step,
		state: state,
		halo:  make([]float64, cfg.TIMES),
	}, nil
}

// StageHalo snapshots one time plane of the global buffer as the halo
// source for the next launch. Halo loads must consume the exchanged
// pre-launch image: blocks write their owned cells of the live buffer
// throughout a launch, and a neighbor reading those cells mid-launch
// would race.
func (kn *Kernels) StageHalo(timeIdx int) {
	copy(kn.halo, kn.state[timeIdx*kn.cfg.TIMES:(timeIdx+1)*kn.cfg.TIMES])
}

// Config returns the bound launch configuration
func (kn *Kernels) Config() Config {
	return kn.cfg
}

// UpPyramid is the shrinking sweep that starts the pipeline. The tile
// is populated (interior and halo) at snapshot 0; the valid-update
// bounds start at the full interior and shrink by OPS per side after
// each of MPSS sub-steps, writing snapshots 1..MPSS back to the global
// buffer. Cells outside the final shrunk region at snapshot MPSS are
// stale until an external exchange resolves them.
func (kn *Kernels) UpPyramid(tc *dispatch.ThreadCtx, tile []float64) {
	cfg := kn.cfg
	cfg.ZeroTile(tc, tile)

	tidx := tc.ThreadIdx.X + cfg.OPS
	tidy := tc.ThreadIdx.Y + cfg.OPS
	sgid := cfg.TileIndex(tidx, tidy)
	gid := cfg.GlobalIndex(tc.BlockIdx.X, tc.BlockIdx.Y, tc.ThreadIdx.X, tc.ThreadIdx.Y)

	lx, ly := cfg.OPS, cfg.OPS
	ux, uy := cfg.BlockW+cfg.OPS, cfg.BlockH+cfg.OPS

	cfg.LoadHalo(tc, tile, kn.halo, 0)
	kn.loadCell(tc, tile, sgid, gid, 0)

	view := cfg.View(tile)
	out := make([]float64, cfg.NV)
	for k := 0; k < cfg.MPSS; k++ {
		active := tidx < ux && tidx >= lx && tidy < uy && tidy >= ly
		kn.subStep(tc, view, tile, sgid, gid, k+1, active, out)

		ux -= cfg.OPS
		uy -= cfg.OPS
		lx += cfg.OPS
		ly += cfg.OPS
	}
}

// Octahedron is the steady-state repeating unit: one growing sweep
// immediately followed by one shrinking sweep in a single launch,
// avoiding a host round-trip between them. The growing half starts at
// the tile's geometric center and reconstructs the region the previous
// phase left pending, writing snapshots 1..MPSS; the shrinking half
// reloads the halo at snapshot MPSS and advances snapshots
// MPSS+1..2*MPSS-1. Net advance per launch: 2*MPSS-1 snapshots.
func (kn *Kernels) Octahedron(tc *dispatch.ThreadCtx, tile []float64) {
	cfg := kn.cfg
	cfg.ZeroTile(tc, tile)

	tidx := tc.ThreadIdx.X + cfg.OPS
	tidy := tc.ThreadIdx.Y + cfg.OPS
	sgid := cfg.TileIndex(tidx, tidy)
	gid := cfg.GlobalIndex(tc.BlockIdx.X, tc.BlockIdx.Y, tc.ThreadIdx.X, tc.ThreadIdx.Y)

	view := cfg.View(tile)
	out := make([]float64, cfg.NV)

	// Growing half: bounds expand from the geometric center, inclusive
	// comparisons.
	lx := (cfg.BlockW+cfg.OPS)/2 + 1 - cfg.OPS
	ly := (cfg.BlockH+cfg.OPS)/2 + 1 - cfg.OPS
	ux := (cfg.BlockW+cfg.OPS)/2 + cfg.OPS
	uy := (cfg.BlockH+cfg.OPS)/2 + cfg.OPS

	kn.loadCell(tc, tile, sgid, gid, 0)

	for k := 0; k < cfg.MPSS; k++ {
		active := tidx <= ux && tidx >= lx && tidy <= uy && tidy >= ly
		kn.subStep(tc, view, tile, sgid, gid, k+1, active, out)

		ux += cfg.OPS
		uy += cfg.OPS
		lx -= cfg.OPS
		ly -= cfg.OPS
	}

	// Shrinking half: bounds reset to the full interior, halo reloaded
	// with freshly exchanged ghost data at snapshot MPSS, exclusive
	// upper comparisons.
	lx, ly = cfg.OPS, cfg.OPS
	ux, uy = cfg.BlockW+cfg.OPS, cfg.BlockH+cfg.OPS

	cfg.LoadHalo(tc, tile, kn.halo, 0)
	kn.loadCell(tc, tile, sgid, gid, cfg.MPSS)

	for k := cfg.MPSS; k < 2*cfg.MPSS-1; k++ {
		active := tidx < ux && tidx >= lx && tidy < uy && tidy >= ly
		kn.subStep(tc, view, tile, sgid, gid, k+1, active, out)

		ux -= cfg.OPS
		uy -= cfg.OPS
		lx += cfg.OPS
		ly += cfg.OPS
	}
}

// DownPyramid is the growing-only sweep that finalizes the pipeline:
// structurally the octahedron's growing half alone, consuming one
// exchange and producing the final globally consistent snapshot.
func (kn *Kernels) DownPyramid(tc *dispatch.ThreadCtx, tile []float64) {
	cfg := kn.cfg
	cfg.ZeroTile(tc, tile)

	tidx := tc.ThreadIdx.X + cfg.OPS
	tidy := tc.ThreadIdx.Y + cfg.OPS
	sgid := cfg.TileIndex(tidx, tidy)
	gid := cfg.GlobalIndex(tc.BlockIdx.X, tc.BlockIdx.Y, tc.ThreadIdx.X, tc.ThreadIdx.Y)

	cfg.LoadHalo(tc, tile, kn.halo, 0)

	lx := (cfg.BlockW+cfg.OPS)/2 + 1 - cfg.OPS
	ly := (cfg.BlockH+cfg.OPS)/2 + 1 - cfg.OPS
	ux := (cfg.BlockW+cfg.OPS)/2 + cfg.OPS
	uy := (cfg.BlockH+cfg.OPS)/2 + cfg.OPS

	kn.loadCell(tc, tile, sgid, gid, 0)

	view := cfg.View(tile)
	out := make([]float64, cfg.NV)
	for k := 0; k < cfg.MPSS; k++ {
		active := tidx <= ux && tidx >= lx && tidy <= uy && tidy >= ly
		kn.subStep(tc, view, tile, sgid, gid, k+1, active, out)

		ux += cfg.OPS
		uy += cfg.OPS
		lx -= cfg.OPS
		ly -= cfg.OPS
	}
}

// loadCell copies the thread's own cell from the global buffer at the
// given snapshot into the tile, then synchronizes the block so every
// initial value is visible before stepping begins.
func (kn *Kernels) loadCell(tc *dispatch.ThreadCtx, tile []float64, sgid, gid, timeIdx int) {
	cfg := kn.cfg
	for n := 0; n < cfg.NV; n++ {
		tile[sgid+n*cfg.SGIDS] = kn.state[gid+n*cfg.VARS+timeIdx*cfg.TIMES]
	}
	tc.Sync()
}

// subStep performs one sub-step of a sweep: active threads evaluate the
// step rule, then after a block barrier store the advanced values to
// the global buffer at writeIdx and reload them into the tile, so the
// tile always reflects the most recent snapshot. Every thread executes
// both barriers whether or not it is inside the active region.
func (kn *Kernels) subStep(tc *dispatch.ThreadCtx, view TileView, tile []float64,
	sgid, gid, writeIdx int, active bool, out []float64) {
	cfg := kn.cfg
	if active {
		kn.step.Step(view, sgid, out)
	}
	tc.Sync()
	if active {
		for n := 0; n < cfg.NV; n++ {
			kn.state[gid+n*cfg.VARS+writeIdx*cfg.TIMES] = out[n]
			tile[sgid+n*cfg.SGIDS] = kn.state[gid+n*cfg.VARS+writeIdx*cfg.TIMES]
		}
	}
	tc.Sync()
}
