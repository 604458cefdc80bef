package driver

import (
	"fmt"

	"github.com/notargets/swept2d/sweep"
)

// Naive baseline: a fully synchronized step-by-step sweep over the
// whole interior, one global synchronization per time step. Numerically
// equivalent to the swept pipeline wherever the swept pipeline's
// boundary regions are not pending, and the reference the equivalence
// tests compare against.

// RunNaive advances the field `steps` time steps, writing each snapshot
// into the next slot of the state buffer. steps must fit the retained
// snapshot window.
func (s *Solver) RunNaive(steps int) error {
	cfg := s.cfg
	if steps < 0 || steps >= cfg.Snapshots() {
		return fmt.Errorf("step count %d outside retained window [0,%d)", steps, cfg.Snapshots())
	}

	out := make([]float64, cfg.NV)
	for t := 0; t < steps; t++ {
		s.BoundaryUpdateSnapshot(t)
		s.naiveStep(t, out)
	}
	return nil
}

// naiveStep advances snapshot t into snapshot t+1 over the interior.
// Both planes are viewed through the global strides, so the same step
// rule runs unchanged against the global buffer.
func (s *Solver) naiveStep(t int, out []float64) {
	cfg := s.cfg
	src := sweep.TileView{
		Data:      s.state[t*cfg.TIMES : (t+1)*cfg.TIMES],
		RowStride: cfg.M,
		VarStride: cfg.VARS,
	}
	dst := s.state[(t+1)*cfg.TIMES : (t+2)*cfg.TIMES]

	for x := 0; x < cfg.Width; x++ {
		for y := 0; y < cfg.Height; y++ {
			idx := (x+cfg.OPS)*cfg.M + (y + cfg.OPS)
			s.eq.Step(src, idx, out)
			for n := 0; n < cfg.NV; n++ {
				dst[idx+n*cfg.VARS] = out[n]
			}
		}
	}
}
