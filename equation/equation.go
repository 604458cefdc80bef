// Package equation provides pluggable per-cell update rules for the
// swept-rule phases. An equation is selected at configuration time and
// must stay side-effect free: a step reads its neighborhood from the
// tile and writes the advanced values to the supplied output slice.
package equation

import "github.com/notargets/swept2d/sweep"

// Equation is a per-equation strategy with a single pure update
// operation over a stencil neighborhood.
type Equation interface {
	sweep.Stepper

	// Name identifies the equation for driver-facing selection
	Name() string

	// NumVars returns the number of variables per cell
	NumVars() int

	// StencilRadius returns the halo radius the step rule requires
	StencilRadius() int
}

// DeviceSource is implemented by equations that can also run inside a
// generated device kernel. StepSource returns the body of an OKL
// function with the signature
//
//	void stepCell(const double *tile, const int idx, double *out)
//
// reading the tile through the same strides the host step uses.
type DeviceSource interface {
	StepSource() string
}
