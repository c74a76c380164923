package pit

import (
	"sort"

	"github.com/e2nIEE/pipeflow/pkg/idx"
)

// TableRange is a per-table row interval in the reduced index space,
// ordered by the table's original start offset.
type TableRange struct {
	Table string
	Range
}

// Active is the reduced PIT actually handed to the solver: only rows
// connected to a reference node, with every node reference rewritten to
// the reduced index space.
type Active struct {
	Schema idx.Schema
	Node   [][]float64
	Branch [][]float64

	NodeRemap   []int32 // full row -> reduced row, -1 if dropped
	BranchRemap []int32
	NodeRows    []int32 // reduced row -> full row
	BranchRows  []int32

	NodeRanges   []TableRange
	BranchRanges []TableRange

	Full bool // every row connected; reduction was a straight copy
}

// Reduce projects the PIT down to the connected rows. When everything is
// connected the projection is a plain copy and Full is set; otherwise
// rows are compacted through a cumulative-sum remap and all from/to
// references are rewritten.
func Reduce(p *PIT, l *Lookup, nodesConn, branchesConn []bool) *Active {
	nn, nb := p.NodeCount(), p.BranchCount()

	a := &Active{
		Schema:      p.Schema,
		NodeRemap:   make([]int32, nn),
		BranchRemap: make([]int32, nb),
	}

	a.Full = allTrue(nodesConn) && allTrue(branchesConn)
	if a.Full {
		a.Node = copyColumns(p.Node, nil)
		a.Branch = copyColumns(p.Branch, nil)
		a.NodeRows = identity(nn)
		a.BranchRows = identity(nb)
		copy(a.NodeRemap, a.NodeRows)
		copy(a.BranchRemap, a.BranchRows)
		a.NodeRanges = reduceRanges(l.NodeRanges, a.NodeRemap, nn)
		a.BranchRanges = reduceRanges(l.BranchRanges, a.BranchRemap, nb)
		return a
	}

	a.NodeRows, a.NodeRemap = compact(nodesConn)
	a.BranchRows, a.BranchRemap = compact(branchesConn)

	a.Node = copyColumns(p.Node, a.NodeRows)
	a.Branch = copyColumns(p.Branch, a.BranchRows)

	// Node references must live in the reduced index space.
	for _, col := range []int{idx.BranchFrom, idx.BranchTo, idx.BranchFromT, idx.BranchToT} {
		c := a.Branch[col]
		for r := range c {
			c[r] = float64(a.NodeRemap[int(c[r])])
		}
	}
	ctrl := a.Branch[idx.BranchCtrlNode]
	for r := range ctrl {
		if ctrl[r] >= 0 {
			ctrl[r] = float64(a.NodeRemap[int(ctrl[r])])
		}
	}

	a.NodeRanges = reduceRanges(l.NodeRanges, a.NodeRemap, nn)
	a.BranchRanges = reduceRanges(l.BranchRanges, a.BranchRemap, nb)
	return a
}

// WriteBack scatters the reduced rows into the full PIT so result
// extraction sees converged values.
func (a *Active) WriteBack(p *PIT) {
	for c := range a.Node {
		src, dst := a.Node[c], p.Node[c]
		for r, full := range a.NodeRows {
			dst[full] = src[r]
		}
	}
	for c := range a.Branch {
		if skipWriteBackBranchCol(c) {
			continue
		}
		src, dst := a.Branch[c], p.Branch[c]
		for r, full := range a.BranchRows {
			dst[full] = src[r]
		}
	}
}

// Node reference columns hold reduced-space rows and must not overwrite
// the full-space references of the full PIT.
func skipWriteBackBranchCol(c int) bool {
	switch c {
	case idx.BranchFrom, idx.BranchTo, idx.BranchFromT, idx.BranchToT, idx.BranchCtrlNode:
		return true
	}
	return false
}

func (a *Active) NodeCount() int {
	if len(a.Node) == 0 {
		return 0
	}
	return len(a.Node[0])
}

func (a *Active) BranchCount() int {
	if len(a.Branch) == 0 {
		return 0
	}
	return len(a.Branch[0])
}

func allTrue(mask []bool) bool {
	for _, v := range mask {
		if !v {
			return false
		}
	}
	return true
}

func identity(n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(i)
	}
	return out
}

// compact turns a keep-mask into (kept rows, old->new remap).
func compact(mask []bool) (rows, remap []int32) {
	remap = make([]int32, len(mask))
	next := int32(0)
	for i, keep := range mask {
		if keep {
			rows = append(rows, int32(i))
			remap[i] = next
			next++
		} else {
			remap[i] = -1
		}
	}
	return rows, remap
}

func copyColumns(cols [][]float64, rows []int32) [][]float64 {
	out := make([][]float64, len(cols))
	for c := range cols {
		if rows == nil {
			out[c] = append([]float64(nil), cols[c]...)
			continue
		}
		col := make([]float64, len(rows))
		for r, full := range rows {
			col[r] = cols[c][full]
		}
		out[c] = col
	}
	return out
}

// reduceRanges rebuilds per-table row ranges in the reduced space,
// ordered by original start offset.
func reduceRanges(full map[string]Range, remap []int32, total int) []TableRange {
	names := make([]string, 0, len(full))
	for name := range full {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return full[names[i]].Start < full[names[j]].Start })

	var out []TableRange
	cursor := 0
	for _, name := range names {
		r := full[name]
		count := 0
		for row := r.Start; row < r.End && row < total; row++ {
			if remap[row] >= 0 {
				count++
			}
		}
		out = append(out, TableRange{Table: name, Range: Range{Start: cursor, End: cursor + count}})
		cursor += count
	}
	return out
}
