// Package driver is a host-side collaborator for the swept-rule core:
// it owns the global state buffer, sequences kernel phases, and
// performs the inter-block boundary exchange between launches. It also
// carries a naive fully-synchronized baseline for validation.
package driver

import (
	"fmt"

	"github.com/notargets/gocfd/utils"
	"github.com/notargets/swept2d/dispatch"
	"github.com/notargets/swept2d/equation"
	"github.com/notargets/swept2d/sweep"
)

// Solver owns one simulation: a launch configuration, an equation, the
// flat global state buffer, and a CPU dispatch device. The buffer is
// allocated once and never reallocated during a sweep cycle.
type Solver struct {
	cfg     sweep.Config
	eq      equation.Equation
	dev     *dispatch.Device
	kernels *sweep.Kernels
	state   []float64
}

// NewSolver validates the equation against the configuration and
// allocates the global buffer. workers bounds concurrent blocks; zero
// selects the number of CPUs.
func NewSolver(cfg sweep.Config, eq equation.Equation, workers int) (*Solver, error) {
	if eq.NumVars() != cfg.NV {
		return nil, fmt.Errorf("equation %q has %d variables, configuration declares NV=%d",
			eq.Name(), eq.NumVars(), cfg.NV)
	}
	if eq.StencilRadius() != cfg.OPS {
		return nil, fmt.Errorf("equation %q has stencil radius %d, configuration declares OPS=%d",
			eq.Name(), eq.StencilRadius(), cfg.OPS)
	}

	state := make([]float64, cfg.StateLen())
	kernels, err := sweep.NewKernels(cfg, eq, state)
	if err != nil {
		return nil, err
	}

	return &Solver{
		cfg:     cfg,
		eq:      eq,
		dev:     dispatch.NewDevice(workers),
		kernels: kernels,
		state:   state,
	}, nil
}

// Config returns the solver's launch configuration
func (s *Solver) Config() sweep.Config {
	return s.cfg
}

// State exposes the flat global buffer for external runners and tests
func (s *Solver) State() []float64 {
	return s.state
}

// Init fills the interior of snapshot 0 from f(v, x, y) over interior
// cell coordinates, then populates the boundary ring.
func (s *Solver) Init(f func(v, x, y int) float64) {
	cfg := s.cfg
	for n := 0; n < cfg.NV; n++ {
		for x := 0; x < cfg.Width; x++ {
			for y := 0; y < cfg.Height; y++ {
				s.state[s.cellIndex(0, n, x, y)] = f(n, x, y)
			}
		}
	}
	s.BoundaryUpdate()
}

// InitMatrix fills variable v of snapshot 0 from a Width x Height
// matrix.
func (s *Solver) InitMatrix(v int, m utils.Matrix) error {
	rows, cols := m.Dims()
	if rows != s.cfg.Width || cols != s.cfg.Height {
		return fmt.Errorf("matrix is %dx%d, grid is %dx%d", rows, cols, s.cfg.Width, s.cfg.Height)
	}
	data := m.Data()
	s.Init(func(n, x, y int) float64 {
		if n != v {
			return s.state[s.cellIndex(0, n, x, y)]
		}
		return data[x*s.cfg.Height+y]
	})
	return nil
}

// Snapshot returns variable v of time snapshot t as a Width x Height
// matrix over interior cells.
func (s *Solver) Snapshot(t, v int) (utils.Matrix, error) {
	cfg := s.cfg
	if t < 0 || t >= cfg.Snapshots() {
		return utils.Matrix{}, fmt.Errorf("snapshot %d out of range [0,%d)", t, cfg.Snapshots())
	}
	if v < 0 || v >= cfg.NV {
		return utils.Matrix{}, fmt.Errorf("variable %d out of range [0,%d)", v, cfg.NV)
	}
	m := utils.NewMatrix(cfg.Width, cfg.Height)
	data := m.Data()
	for x := 0; x < cfg.Width; x++ {
		for y := 0; y < cfg.Height; y++ {
			data[x*cfg.Height+y] = s.state[s.cellIndex(t, v, x, y)]
		}
	}
	return m, nil
}

// cellIndex maps interior cell coordinates to the flat buffer index
func (s *Solver) cellIndex(t, v, x, y int) int {
	cfg := s.cfg
	return t*cfg.TIMES + v*cfg.VARS + (x+cfg.OPS)*cfg.M + (y + cfg.OPS)
}

// UpPyramid launches the shrinking sweep over all blocks
func (s *Solver) UpPyramid() error {
	s.kernels.StageHalo(0)
	return s.launch(s.kernels.UpPyramid)
}

// Octahedron launches the growing-then-shrinking sweep over all blocks
func (s *Solver) Octahedron() error {
	s.kernels.StageHalo(s.cfg.MPSS)
	return s.launch(s.kernels.Octahedron)
}

// DownPyramid launches the finalizing growing sweep over all blocks
func (s *Solver) DownPyramid() error {
	s.kernels.StageHalo(s.cfg.MPSS)
	return s.launch(s.kernels.DownPyramid)
}

func (s *Solver) launch(kernel dispatch.Kernel) error {
	cfg := s.cfg
	grid := dispatch.Dim2{X: cfg.GridW, Y: cfg.GridH}
	block := dispatch.Dim2{X: cfg.BlockW, Y: cfg.BlockH}
	return s.dev.Launch(grid, block, cfg.TileLen(), kernel)
}

// RunSwept executes the full swept pipeline:
//
//	UpPyramid -> exchange -> (Octahedron -> exchange)* -> DownPyramid
//
// Each exchange reconciles the boundary ring; after an octahedron it
// also shifts the snapshot window down by MPSS so the next launch reads
// its base data at snapshot 0.
func (s *Solver) RunSwept(cycles int) error {
	if cycles < 0 {
		return fmt.Errorf("cycle count must be non-negative: %d", cycles)
	}
	if err := s.UpPyramid(); err != nil {
		return err
	}
	s.BoundaryUpdate()
	for i := 0; i < cycles; i++ {
		if err := s.Octahedron(); err != nil {
			return err
		}
		s.ShiftWindow()
		s.BoundaryUpdate()
	}
	return s.DownPyramid()
}
