package equation

import "github.com/notargets/swept2d/sweep"

// Identity advances every variable unchanged. It exercises the full
// sweep machinery without altering the field, so any pipeline of phases
// must leave interior cells numerically identical to the initial data.
type Identity struct {
	Vars int
}

// NewIdentity creates an identity rule over nv variables
func NewIdentity(nv int) *Identity {
	return &Identity{Vars: nv}
}

func (eq *Identity) Name() string {
	return "identity"
}

func (eq *Identity) NumVars() int {
	return eq.Vars
}

func (eq *Identity) StencilRadius() int {
	return 1
}

func (eq *Identity) Step(tile sweep.TileView, idx int, out []float64) {
	for n := 0; n < eq.Vars; n++ {
		out[n] = tile.Get(idx, n)
	}
}

func (eq *Identity) StepSource() string {
	return `
void stepCell(const double *tile, const int idx, double *out)
{
    for (int n = 0; n < NV; ++n) {
        out[n] = tile[idx + n * SGIDS];
    }
}
`
}
