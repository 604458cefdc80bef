package equation

import (
	"fmt"

	"github.com/notargets/swept2d/sweep"
)

// Advection is linear scalar advection with constant velocity (CX, CY),
// advanced with first-order upwind differencing. Stability requires
// |CX|*DT/DX + |CY|*DT/DY <= 1.
type Advection struct {
	CX, CY     float64
	DX, DY, DT float64
}

// NewAdvection validates the CFL bound before any launch
func NewAdvection(cx, cy, dx, dy, dt float64) (*Advection, error) {
	if dx <= 0 || dy <= 0 || dt <= 0 {
		return nil, fmt.Errorf("advection deltas must be positive: dx=%g dy=%g dt=%g", dx, dy, dt)
	}
	cfl := abs(cx)*dt/dx + abs(cy)*dt/dy
	if cfl > 1 {
		return nil, fmt.Errorf("unstable upwind parameters: CFL = %g > 1", cfl)
	}
	return &Advection{CX: cx, CY: cy, DX: dx, DY: dy, DT: dt}, nil
}

func (eq *Advection) Name() string {
	return "advection"
}

func (eq *Advection) NumVars() int {
	return 1
}

func (eq *Advection) StencilRadius() int {
	return 1
}

func (eq *Advection) Step(tile sweep.TileView, idx int, out []float64) {
	u := tile.Get(idx, 0)

	var dudx float64
	if eq.CX >= 0 {
		dudx = (u - tile.At(idx, -1, 0, 0)) / eq.DX
	} else {
		dudx = (tile.At(idx, 1, 0, 0) - u) / eq.DX
	}

	var dudy float64
	if eq.CY >= 0 {
		dudy = (u - tile.At(idx, 0, -1, 0)) / eq.DY
	} else {
		dudy = (tile.At(idx, 0, 1, 0) - u) / eq.DY
	}

	out[0] = u - eq.DT*(eq.CX*dudx+eq.CY*dudy)
}

func (eq *Advection) StepSource() string {
	return fmt.Sprintf(`
#define CX %.15e
#define CY %.15e

void stepCell(const double *tile, const int idx, double *out)
{
    const double u = tile[idx];
    const double dudx = (CX >= 0.0)
        ? (u - tile[idx - TILE_ROWS]) / DX
        : (tile[idx + TILE_ROWS] - u) / DX;
    const double dudy = (CY >= 0.0)
        ? (u - tile[idx - 1]) / DY
        : (tile[idx + 1] - u) / DY;
    out[0] = u - DT * (CX * dudx + CY * dudy);
}
`, eq.CX, eq.CY)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
