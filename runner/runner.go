package runner

import (
	"fmt"
	"unsafe"

	"github.com/notargets/gocca"
	"github.com/notargets/swept2d/equation"
	"github.com/notargets/swept2d/sweep"
)

// DeviceRunner executes the swept phases on an OCCA device. It owns
// the device-resident global state buffer and the compiled phase
// kernels; the host driver sequences phases and performs boundary
// exchanges through WriteState/ReadState.
type DeviceRunner struct {
	Device  *gocca.OCCADevice
	Kernels map[string]*gocca.OCCAKernel

	cfg      sweep.Config
	source   string
	stateMem *gocca.OCCAMemory
}

// NewDeviceRunner generates and compiles the swept kernels for the
// given configuration and equation, and allocates the state buffer in
// device memory. The equation must provide device source.
func NewDeviceRunner(device *gocca.OCCADevice, cfg sweep.Config, eq equation.Equation) (*DeviceRunner, error) {
	if device == nil {
		return nil, fmt.Errorf("device is nil")
	}
	src, ok := eq.(equation.DeviceSource)
	if !ok {
		return nil, fmt.Errorf("equation %q provides no device source", eq.Name())
	}
	if eq.NumVars() != cfg.NV {
		return nil, fmt.Errorf("equation %q has %d variables, configuration declares NV=%d",
			eq.Name(), eq.NumVars(), cfg.NV)
	}
	if eq.StencilRadius() != cfg.OPS {
		return nil, fmt.Errorf("equation %q has stencil radius %d, configuration declares OPS=%d",
			eq.Name(), eq.StencilRadius(), cfg.OPS)
	}

	dr := &DeviceRunner{
		Device:  device,
		Kernels: make(map[string]*gocca.OCCAKernel),
		cfg:     cfg,
		source:  GenerateKernelSource(cfg, src.StepSource()),
	}

	for _, name := range KernelNames {
		kernel, err := dr.buildKernel(name)
		if err != nil {
			dr.Free()
			return nil, err
		}
		dr.Kernels[name] = kernel
	}

	dr.stateMem = device.Malloc(int64(cfg.StateLen()*8), nil, nil)
	return dr, nil
}

// buildKernel compiles one generated kernel by entry point name
func (dr *DeviceRunner) buildKernel(name string) (*gocca.OCCAKernel, error) {
	var kernel *gocca.OCCAKernel
	var err error

	if dr.Device.Mode() == "OpenMP" {
		// OpenMP does not get the default -O3 flag
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		kernel, err = dr.Device.BuildKernelFromString(dr.source, name, props)
	} else {
		kernel, err = dr.Device.BuildKernelFromString(dr.source, name, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build kernel %s: %w", name, err)
	}
	if kernel == nil {
		return nil, fmt.Errorf("kernel build returned nil for %s", name)
	}
	return kernel, nil
}

// Config returns the bound launch configuration
func (dr *DeviceRunner) Config() sweep.Config {
	return dr.cfg
}

// Source returns the generated OKL translation unit
func (dr *DeviceRunner) Source() string {
	return dr.source
}

// WriteState copies the full host state buffer into device memory
func (dr *DeviceRunner) WriteState(host []float64) error {
	if len(host) != dr.cfg.StateLen() {
		return fmt.Errorf("host state holds %d elements, configuration requires %d",
			len(host), dr.cfg.StateLen())
	}
	dr.stateMem.CopyFrom(unsafe.Pointer(&host[0]), int64(len(host)*8))
	return nil
}

// ReadState copies device state back into the host buffer
func (dr *DeviceRunner) ReadState(host []float64) error {
	if len(host) != dr.cfg.StateLen() {
		return fmt.Errorf("host state holds %d elements, configuration requires %d",
			len(host), dr.cfg.StateLen())
	}
	dr.stateMem.CopyTo(unsafe.Pointer(&host[0]), int64(len(host)*8))
	return nil
}

// UpPyramid launches the shrinking sweep on the device
func (dr *DeviceRunner) UpPyramid() error {
	return dr.run("upPyramid")
}

// Octahedron launches the growing-then-shrinking sweep on the device
func (dr *DeviceRunner) Octahedron() error {
	return dr.run("octahedron")
}

// DownPyramid launches the finalizing growing sweep on the device
func (dr *DeviceRunner) DownPyramid() error {
	return dr.run("downPyramid")
}

func (dr *DeviceRunner) run(name string) error {
	kernel, exists := dr.Kernels[name]
	if !exists {
		return fmt.Errorf("kernel %s not compiled", name)
	}
	if err := kernel.RunWithArgs(dr.stateMem); err != nil {
		return fmt.Errorf("kernel %s execution failed: %w", name, err)
	}
	dr.Device.Finish()
	return nil
}

// Free releases kernels and device memory
func (dr *DeviceRunner) Free() {
	for _, kernel := range dr.Kernels {
		kernel.Free()
	}
	if dr.stateMem != nil {
		dr.stateMem.Free()
	}
}
