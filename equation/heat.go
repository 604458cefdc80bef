package equation

import (
	"fmt"

	"github.com/notargets/swept2d/sweep"
)

// Heat is the 2D heat equation advanced with forward-time
// centered-space differencing on the standard 5-point stencil.
// Stability requires Alpha*DT*(1/DX^2 + 1/DY^2) <= 1/2.
type Heat struct {
	Alpha      float64
	DX, DY, DT float64
}

// NewHeat validates the FTCS stability bound before any launch
func NewHeat(alpha, dx, dy, dt float64) (*Heat, error) {
	if alpha <= 0 || dx <= 0 || dy <= 0 || dt <= 0 {
		return nil, fmt.Errorf("heat parameters must be positive: alpha=%g dx=%g dy=%g dt=%g",
			alpha, dx, dy, dt)
	}
	if r := alpha * dt * (1/(dx*dx) + 1/(dy*dy)); r > 0.5 {
		return nil, fmt.Errorf("unstable FTCS parameters: alpha*dt*(1/dx^2+1/dy^2) = %g > 0.5", r)
	}
	return &Heat{Alpha: alpha, DX: dx, DY: dy, DT: dt}, nil
}

func (eq *Heat) Name() string {
	return "heat"
}

func (eq *Heat) NumVars() int {
	return 1
}

func (eq *Heat) StencilRadius() int {
	return 1
}

func (eq *Heat) Step(tile sweep.TileView, idx int, out []float64) {
	u := tile.Get(idx, 0)
	uxx := (tile.At(idx, 1, 0, 0) - 2*u + tile.At(idx, -1, 0, 0)) / (eq.DX * eq.DX)
	uyy := (tile.At(idx, 0, 1, 0) - 2*u + tile.At(idx, 0, -1, 0)) / (eq.DY * eq.DY)
	out[0] = u + eq.DT*eq.Alpha*(uxx+uyy)
}

func (eq *Heat) StepSource() string {
	return fmt.Sprintf(`
#define ALPHA %.15e

void stepCell(const double *tile, const int idx, double *out)
{
    const double u   = tile[idx];
    const double uxx = (tile[idx + TILE_ROWS] - 2.0 * u + tile[idx - TILE_ROWS]) / (DX * DX);
    const double uyy = (tile[idx + 1] - 2.0 * u + tile[idx - 1]) / (DY * DY);
    out[0] = u + DT * ALPHA * (uxx + uyy);
}
`, eq.Alpha)
}
