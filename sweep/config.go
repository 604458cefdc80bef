package sweep

import "fmt"

// DefaultFastMemBytes is the per-block tile budget used when a Config
// does not declare one. It matches the shared-memory capacity of the
// devices the kernel geometry was sized for.
const DefaultFastMemBytes = 48 * 1024

const elementBytes = 8 // float64

// Config is the immutable launch configuration shared by every kernel
// phase. It is established once, before any launch, and bound into each
// dispatch invocation; there are no process-wide globals.
//
// OPS is the halo radius (stencil half-width), NV the variable count,
// MPSS the pyramid sweep steps performed per phase before an exchange
// is required. Width and Height are the interior grid extents in cells;
// BlockW and BlockH the owned cells per block.
type Config struct {
	OPS  int
	NV   int
	MPSS int

	BlockW, BlockH int
	Width, Height  int

	DX, DY, DT float64

	// FastMemBytes bounds the per-block tile size. Zero selects
	// DefaultFastMemBytes.
	FastMemBytes int

	// Derived geometry, filled by NewConfig.
	GridW, GridH   int // grid extents in blocks
	SplitX, SplitY int // octahedron shift offsets
	SGIDS          int // elements per variable within a tile
	M              int // padded global y extent: major-axis stride
	VARS           int // elements per variable-plane of the global buffer
	TIMES          int // elements per time snapshot of the global buffer
	MOSS           int // snapshots advanced by one octahedron launch
}

// NewConfig validates geometry and derives strides. It fails before any
// launch can occur: an error here means the configuration must not be
// used. MPSS defaults to min(BlockW, BlockH) / (2*OPS) when zero.
func NewConfig(cfg Config) (Config, error) {
	if cfg.OPS <= 0 || cfg.NV <= 0 {
		return Config{}, fmt.Errorf("OPS and NV must be positive: OPS=%d, NV=%d", cfg.OPS, cfg.NV)
	}
	if cfg.BlockW <= 0 || cfg.BlockH <= 0 {
		return Config{}, fmt.Errorf("block dimensions must be positive: %dx%d", cfg.BlockW, cfg.BlockH)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Config{}, fmt.Errorf("grid dimensions must be positive: %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Width%cfg.BlockW != 0 || cfg.Height%cfg.BlockH != 0 {
		return Config{}, fmt.Errorf("blocks must evenly tile the grid: grid %dx%d, block %dx%d",
			cfg.Width, cfg.Height, cfg.BlockW, cfg.BlockH)
	}

	minBlock := cfg.BlockW
	if cfg.BlockH < minBlock {
		minBlock = cfg.BlockH
	}
	if cfg.MPSS == 0 {
		cfg.MPSS = minBlock / (2 * cfg.OPS)
	}
	if cfg.MPSS <= 0 {
		return Config{}, fmt.Errorf("MPSS must be positive: block %dx%d too small for OPS=%d",
			cfg.BlockW, cfg.BlockH, cfg.OPS)
	}
	if 2*cfg.OPS*cfg.MPSS > minBlock {
		return Config{}, fmt.Errorf("sweep depth exceeds block: 2*OPS*MPSS = %d > min(block) = %d",
			2*cfg.OPS*cfg.MPSS, minBlock)
	}

	cfg.GridW = cfg.Width / cfg.BlockW
	cfg.GridH = cfg.Height / cfg.BlockH
	cfg.SplitX = cfg.BlockW / 2
	cfg.SplitY = cfg.BlockH / 2
	cfg.SGIDS = (cfg.BlockW + 2*cfg.OPS) * (cfg.BlockH + 2*cfg.OPS)
	cfg.M = cfg.Height + 2*cfg.OPS
	cfg.VARS = (cfg.Width + 2*cfg.OPS) * (cfg.Height + 2*cfg.OPS)
	cfg.TIMES = cfg.VARS * cfg.NV
	cfg.MOSS = 2*cfg.MPSS - 1

	budget := cfg.FastMemBytes
	if budget == 0 {
		budget = DefaultFastMemBytes
	}
	if tileBytes := cfg.TileLen() * elementBytes; tileBytes > budget {
		return Config{}, fmt.Errorf("tile of %d bytes exceeds fast memory budget of %d bytes",
			tileBytes, budget)
	}
	cfg.FastMemBytes = budget

	return cfg, nil
}

// TileRows returns the padded tile extent in y, which is also the tile
// row stride.
func (c Config) TileRows() int {
	return c.BlockH + 2*c.OPS
}

// TileCols returns the padded tile extent in x
func (c Config) TileCols() int {
	return c.BlockW + 2*c.OPS
}

// TileLen returns the tile buffer length in elements
func (c Config) TileLen() int {
	return c.SGIDS * c.NV
}

// Snapshots returns the number of time snapshots the global buffer
// retains. One octahedron launch writes through snapshot 2*MPSS-1.
func (c Config) Snapshots() int {
	return 2 * c.MPSS
}

// StateLen returns the global state buffer length in elements
func (c Config) StateLen() int {
	return c.Snapshots() * c.TIMES
}
