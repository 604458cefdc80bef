package dispatch

import "fmt"

// Dim2 is a 2D extent or coordinate in block/thread space
type Dim2 struct {
	X, Y int
}

// Size returns the number of cells covered by the extent
func (d Dim2) Size() int {
	return d.X * d.Y
}

// Valid reports whether both extents are positive
func (d Dim2) Valid() bool {
	return d.X > 0 && d.Y > 0
}

func (d Dim2) String() string {
	return fmt.Sprintf("%dx%d", d.X, d.Y)
}
