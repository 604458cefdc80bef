package utils

import (
	"fmt"

	"github.com/notargets/gocca"
)

// CreateDevice creates an OCCA device, preferring parallel backends and
// falling back to Serial. Returns an error when no backend is usable,
// so callers (tests in particular) can skip rather than fail on hosts
// without an OCCA installation.
func CreateDevice() (*gocca.OCCADevice, error) {
	backends := []string{
		`{"mode": "OpenMP"}`,
		`{"mode": "CUDA", "device_id": 0}`,
		`{"mode": "Serial"}`,
	}

	for _, props := range backends {
		device, err := gocca.NewDevice(props)
		if err == nil {
			return device, nil
		}
	}
	return nil, fmt.Errorf("no OCCA backend available")
}

// CreateTestDevice creates a device for testing and panics when none is
// available.
func CreateTestDevice() *gocca.OCCADevice {
	device, err := CreateDevice()
	if err != nil {
		panic(err)
	}
	fmt.Printf("Created %s Device\n", device.Mode())
	return device
}
