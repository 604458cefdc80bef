package driver

// Boundary exchange. Blocks write their interior and halo-adjacent
// regions redundantly; between launches the host reconciles the
// boundary ring. This stub driver closes the domain periodically: every
// halo cell is refilled from the interior cell it wraps onto, for every
// retained snapshot and variable.

// BoundaryUpdate refills the halo ring of every snapshot from the
// periodic image of the interior.
func (s *Solver) BoundaryUpdate() {
	for t := 0; t < s.cfg.Snapshots(); t++ {
		s.BoundaryUpdateSnapshot(t)
	}
}

// BoundaryUpdateSnapshot refills the halo ring of one snapshot
func (s *Solver) BoundaryUpdateSnapshot(t int) {
	cfg := s.cfg
	padW := cfg.Width + 2*cfg.OPS
	padH := cfg.Height + 2*cfg.OPS

	for n := 0; n < cfg.NV; n++ {
		base := t*cfg.TIMES + n*cfg.VARS
		for px := 0; px < padW; px++ {
			interiorX := px >= cfg.OPS && px < cfg.Width+cfg.OPS
			for py := 0; py < padH; py++ {
				if interiorX && py >= cfg.OPS && py < cfg.Height+cfg.OPS {
					continue
				}
				srcX := wrap(px-cfg.OPS, cfg.Width) + cfg.OPS
				srcY := wrap(py-cfg.OPS, cfg.Height) + cfg.OPS
				s.state[base+px*cfg.M+py] = s.state[base+srcX*cfg.M+srcY]
			}
		}
	}
}

// ShiftWindow slides the snapshot window down by MPSS: snapshots
// MPSS..2*MPSS-1 become 0..MPSS-1, so the next launch finds its base
// data at snapshot 0. The vacated upper snapshots keep their stale
// contents; every phase overwrites what it reads before trusting it.
func (s *Solver) ShiftWindow() {
	cfg := s.cfg
	for t := 0; t < cfg.MPSS; t++ {
		dst := s.state[t*cfg.TIMES : (t+1)*cfg.TIMES]
		src := s.state[(t+cfg.MPSS)*cfg.TIMES : (t+cfg.MPSS+1)*cfg.TIMES]
		copy(dst, src)
	}
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
