package runner

import (
	"fmt"
	"strings"

	"github.com/notargets/swept2d/sweep"
)

// Kernel source generation for the OCCA device path. The three swept
// kernels are emitted as OKL source with the launch configuration baked
// into the preamble as compile-time constants, so the device compiler
// can unroll against them. Barrier discipline maps onto
// OKL's implicit synchronization between consecutive @inner loops, so
// every thread of a block passes the same barrier sequence regardless
// of the active-region predicate.

// KernelNames lists the generated kernel entry points in launch order
var KernelNames = []string{"upPyramid", "octahedron", "downPyramid"}

// GenerateKernelSource produces the complete OKL translation unit:
// preamble defines, the equation's stepCell function, and the three
// phase kernels.
func GenerateKernelSource(cfg sweep.Config, stepSource string) string {
	var sb strings.Builder

	sb.WriteString(generatePreamble(cfg))
	sb.WriteString(stepSource)
	sb.WriteString("\n")
	sb.WriteString(generateUpPyramid(cfg))
	sb.WriteString(generateOctahedron(cfg))
	sb.WriteString(generateDownPyramid(cfg))

	return sb.String()
}

// generatePreamble emits the configuration constants every kernel and
// the equation's stepCell function compile against.
func generatePreamble(cfg sweep.Config) string {
	var sb strings.Builder

	sb.WriteString("// Launch configuration constants\n")
	sb.WriteString(fmt.Sprintf("#define OPS %d\n", cfg.OPS))
	sb.WriteString(fmt.Sprintf("#define NV %d\n", cfg.NV))
	sb.WriteString(fmt.Sprintf("#define MPSS %d\n", cfg.MPSS))
	sb.WriteString(fmt.Sprintf("#define BLOCK_X %d\n", cfg.BlockW))
	sb.WriteString(fmt.Sprintf("#define BLOCK_Y %d\n", cfg.BlockH))
	sb.WriteString(fmt.Sprintf("#define GRID_X %d\n", cfg.GridW))
	sb.WriteString(fmt.Sprintf("#define GRID_Y %d\n", cfg.GridH))
	sb.WriteString(fmt.Sprintf("#define SGIDS %d\n", cfg.SGIDS))
	sb.WriteString(fmt.Sprintf("#define VARS %d\n", cfg.VARS))
	sb.WriteString(fmt.Sprintf("#define TIMES %d\n", cfg.TIMES))
	sb.WriteString(fmt.Sprintf("#define M_STRIDE %d\n", cfg.M))
	sb.WriteString(fmt.Sprintf("#define TILE_ROWS %d\n", cfg.TileRows()))
	sb.WriteString(fmt.Sprintf("#define TILE_COLS %d\n", cfg.TileCols()))
	sb.WriteString(fmt.Sprintf("#define TILE_LEN %d\n", cfg.TileLen()))
	sb.WriteString(fmt.Sprintf("#define SPLITX %d\n", cfg.SplitX))
	sb.WriteString(fmt.Sprintf("#define SPLITY %d\n", cfg.SplitY))
	sb.WriteString(fmt.Sprintf("#define DX %.15e\n", cfg.DX))
	sb.WriteString(fmt.Sprintf("#define DY %.15e\n", cfg.DY))
	sb.WriteString(fmt.Sprintf("#define DT %.15e\n", cfg.DT))
	sb.WriteString("\n")

	return sb.String()
}

// emitKernelOpen starts a phase kernel: @outer loops over the block
// grid, the shared tile, the per-thread output registers, and the
// zero-fill pass over the tile.
func emitKernelOpen(sb *strings.Builder, name string) {
	sb.WriteString(fmt.Sprintf("@kernel void %s(double *state)\n", name))
	sb.WriteString("{\n")
	sb.WriteString("    for (int by = 0; by < GRID_Y; ++by; @outer) {\n")
	sb.WriteString("        for (int bx = 0; bx < GRID_X; ++bx; @outer) {\n")
	sb.WriteString("            @shared double tile[TILE_LEN];\n")
	sb.WriteString("            @exclusive double out[NV];\n")
	sb.WriteString("\n")
	sb.WriteString("            // Clear the tile: one full row per participating thread\n")
	sb.WriteString("            for (int ty = 0; ty < BLOCK_Y; ++ty; @inner) {\n")
	sb.WriteString("                for (int tx = 0; tx < BLOCK_X; ++tx; @inner) {\n")
	sb.WriteString("                    const int flat = ty * BLOCK_X + tx;\n")
	sb.WriteString("                    if (flat < TILE_ROWS) {\n")
	sb.WriteString("                        for (int i = 0; i < TILE_COLS; ++i) {\n")
	sb.WriteString("                            for (int n = 0; n < NV; ++n) {\n")
	sb.WriteString("                                tile[flat + i * TILE_ROWS + n * SGIDS] = 0.0;\n")
	sb.WriteString("                            }\n")
	sb.WriteString("                        }\n")
	sb.WriteString("                    }\n")
	sb.WriteString("                }\n")
	sb.WriteString("            }\n")
}

// emitHaloLoad copies the halo ring from the global buffer at snapshot
// timeIdx (a C expression) into the tile.
func emitHaloLoad(sb *strings.Builder, timeIdx string) {
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("            // Halo load at snapshot %s\n", timeIdx))
	sb.WriteString("            for (int ty = 0; ty < BLOCK_Y; ++ty; @inner) {\n")
	sb.WriteString("                for (int tx = 0; tx < BLOCK_X; ++tx; @inner) {\n")
	sb.WriteString("                    const int flat = ty * BLOCK_X + tx;\n")
	sb.WriteString("                    if (flat < TILE_ROWS) {\n")
	sb.WriteString("                        const int base = flat + by * BLOCK_Y + bx * BLOCK_X * M_STRIDE;\n")
	sb.WriteString("                        for (int i = 0; i < OPS; ++i) {\n")
	emitColumnCopy(sb, timeIdx, "                            ")
	sb.WriteString("                        }\n")
	sb.WriteString("                        for (int i = BLOCK_X + OPS; i < TILE_COLS; ++i) {\n")
	emitColumnCopy(sb, timeIdx, "                            ")
	sb.WriteString("                        }\n")
	sb.WriteString("                        if (flat < OPS || BLOCK_Y + OPS <= flat) {\n")
	sb.WriteString("                            for (int i = 0; i < TILE_COLS; ++i) {\n")
	emitColumnCopy(sb, timeIdx, "                                ")
	sb.WriteString("                            }\n")
	sb.WriteString("                        }\n")
	sb.WriteString("                    }\n")
	sb.WriteString("                }\n")
	sb.WriteString("            }\n")
}

func emitColumnCopy(sb *strings.Builder, timeIdx, indent string) {
	sb.WriteString(indent + "for (int n = 0; n < NV; ++n) {\n")
	sb.WriteString(indent + "    tile[flat + i * TILE_ROWS + n * SGIDS] =\n")
	sb.WriteString(indent + fmt.Sprintf("        state[base + i * M_STRIDE + n * VARS + (%s) * TIMES];\n", timeIdx))
	sb.WriteString(indent + "}\n")
}

// emitCellLoad copies each thread's own cell at snapshot timeIdx
func emitCellLoad(sb *strings.Builder, timeIdx string) {
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("            // Interior load at snapshot %s\n", timeIdx))
	sb.WriteString("            for (int ty = 0; ty < BLOCK_Y; ++ty; @inner) {\n")
	sb.WriteString("                for (int tx = 0; tx < BLOCK_X; ++tx; @inner) {\n")
	sb.WriteString("                    const int sgid = (ty + OPS) + (tx + OPS) * TILE_ROWS;\n")
	sb.WriteString("                    const int gid = M_STRIDE * (OPS + tx) + OPS + ty + BLOCK_Y * by + BLOCK_X * bx * M_STRIDE;\n")
	sb.WriteString("                    for (int n = 0; n < NV; ++n) {\n")
	sb.WriteString(fmt.Sprintf("                        tile[sgid + n * SGIDS] = state[gid + n * VARS + (%s) * TIMES];\n", timeIdx))
	sb.WriteString("                    }\n")
	sb.WriteString("                }\n")
	sb.WriteString("            }\n")
}

// emitSweep generates the sub-step loop of one sweep half. kFrom/kTo
// bound the sequential sub-step loop; activePred is the bounds
// predicate in terms of tidx, tidy and k. Step and store run in
// separate @inner passes so the store never races a neighbor's read.
func emitSweep(sb *strings.Builder, comment, kFrom, kTo, activePred string) {
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("            // %s\n", comment))
	sb.WriteString(fmt.Sprintf("            for (int k = %s; k < %s; ++k) {\n", kFrom, kTo))
	sb.WriteString("                for (int ty = 0; ty < BLOCK_Y; ++ty; @inner) {\n")
	sb.WriteString("                    for (int tx = 0; tx < BLOCK_X; ++tx; @inner) {\n")
	sb.WriteString("                        const int tidx = tx + OPS;\n")
	sb.WriteString("                        const int tidy = ty + OPS;\n")
	sb.WriteString(fmt.Sprintf("                        if (%s) {\n", activePred))
	sb.WriteString("                            const int sgid = tidy + tidx * TILE_ROWS;\n")
	sb.WriteString("                            stepCell(tile, sgid, out);\n")
	sb.WriteString("                        }\n")
	sb.WriteString("                    }\n")
	sb.WriteString("                }\n")
	sb.WriteString("                for (int ty = 0; ty < BLOCK_Y; ++ty; @inner) {\n")
	sb.WriteString("                    for (int tx = 0; tx < BLOCK_X; ++tx; @inner) {\n")
	sb.WriteString("                        const int tidx = tx + OPS;\n")
	sb.WriteString("                        const int tidy = ty + OPS;\n")
	sb.WriteString(fmt.Sprintf("                        if (%s) {\n", activePred))
	sb.WriteString("                            const int sgid = tidy + tidx * TILE_ROWS;\n")
	sb.WriteString("                            const int gid = M_STRIDE * (OPS + tx) + OPS + ty + BLOCK_Y * by + BLOCK_X * bx * M_STRIDE;\n")
	sb.WriteString("                            for (int n = 0; n < NV; ++n) {\n")
	sb.WriteString("                                state[gid + n * VARS + (k + 1) * TIMES] = out[n];\n")
	sb.WriteString("                                tile[sgid + n * SGIDS] = out[n];\n")
	sb.WriteString("                            }\n")
	sb.WriteString("                        }\n")
	sb.WriteString("                    }\n")
	sb.WriteString("                }\n")
	sb.WriteString("            }\n")
}

func emitKernelClose(sb *strings.Builder) {
	sb.WriteString("        }\n")
	sb.WriteString("    }\n")
	sb.WriteString("}\n\n")
}

// Shrinking bounds at sub-step k, exclusive upper comparison
const shrinkPred = "tidx < BLOCK_X + OPS - k * OPS && tidx >= OPS + k * OPS && " +
	"tidy < BLOCK_Y + OPS - k * OPS && tidy >= OPS + k * OPS"

// Growing bounds at sub-step k from the geometric center, inclusive
// comparisons.
const growPred = "tidx <= (BLOCK_X + OPS) / 2 + OPS + k * OPS && " +
	"tidx >= (BLOCK_X + OPS) / 2 + 1 - OPS - k * OPS && " +
	"tidy <= (BLOCK_Y + OPS) / 2 + OPS + k * OPS && " +
	"tidy >= (BLOCK_Y + OPS) / 2 + 1 - OPS - k * OPS"

// Shrinking bounds for the octahedron's second half, where the
// sub-step counter continues from MPSS.
const shrinkFromMPSSPred = "tidx < BLOCK_X + OPS - (k - MPSS) * OPS && tidx >= OPS + (k - MPSS) * OPS && " +
	"tidy < BLOCK_Y + OPS - (k - MPSS) * OPS && tidy >= OPS + (k - MPSS) * OPS"

func generateUpPyramid(cfg sweep.Config) string {
	var sb strings.Builder
	emitKernelOpen(&sb, "upPyramid")
	emitHaloLoad(&sb, "0")
	emitCellLoad(&sb, "0")
	emitSweep(&sb, "Shrinking sweep over MPSS sub-steps", "0", "MPSS", shrinkPred)
	emitKernelClose(&sb)
	return sb.String()
}

func generateOctahedron(cfg sweep.Config) string {
	var sb strings.Builder
	emitKernelOpen(&sb, "octahedron")
	emitCellLoad(&sb, "0")
	emitSweep(&sb, "Growing half from the tile center", "0", "MPSS", growPred)
	emitHaloLoad(&sb, "MPSS")
	emitCellLoad(&sb, "MPSS")
	emitSweep(&sb, "Shrinking half over MPSS-1 sub-steps", "MPSS", "2 * MPSS - 1", shrinkFromMPSSPred)
	emitKernelClose(&sb)
	return sb.String()
}

func generateDownPyramid(cfg sweep.Config) string {
	var sb strings.Builder
	emitKernelOpen(&sb, "downPyramid")
	emitHaloLoad(&sb, "MPSS")
	emitCellLoad(&sb, "0")
	emitSweep(&sb, "Growing sweep over MPSS sub-steps", "0", "MPSS", growPred)
	emitKernelClose(&sb)
	return sb.String()
}
