// Package pit holds the internal numeric tables the solver operates on:
// one homogeneous float64 table for nodes and one for branches, built
// once per pipeflow call from the user-facing component tables.
package pit

import (
	"github.com/e2nIEE/pipeflow/pkg/idx"
)

// PIT is the pair of internal tables. Columns are stored column-major:
// Node[col][row], with column meanings given by idx and the Schema.
type PIT struct {
	Schema idx.Schema
	Node   [][]float64
	Branch [][]float64
}

func newPIT(schema idx.Schema, nodes, branches int) *PIT {
	p := &PIT{Schema: schema}
	p.Node = make([][]float64, schema.NodeCols)
	for c := range p.Node {
		p.Node[c] = make([]float64, nodes)
	}
	p.Branch = make([][]float64, schema.BranchCols)
	for c := range p.Branch {
		p.Branch[c] = make([]float64, branches)
	}
	return p
}

func (p *PIT) NodeCount() int {
	if len(p.Node) == 0 {
		return 0
	}
	return len(p.Node[0])
}

func (p *PIT) BranchCount() int {
	if len(p.Branch) == 0 {
		return 0
	}
	return len(p.Branch[0])
}

// Range is a half-open row interval [Start, End) in a PIT table.
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int { return r.End - r.Start }

// Lookup maps component-table identity to PIT rows and back. Element-id
// lookups go through signed arrays with -1 for absent ids, so membership
// tests stay O(1) during assembly and result extraction.
type Lookup struct {
	tableIDs   map[string]int
	tableNames []string

	NodeRanges   map[string]Range
	BranchRanges map[string]Range

	nodeIndex   map[string][]int32
	branchIndex map[string][]int32
}

func newLookup() *Lookup {
	return &Lookup{
		tableIDs:     make(map[string]int),
		NodeRanges:   make(map[string]Range),
		BranchRanges: make(map[string]Range),
		nodeIndex:    make(map[string][]int32),
		branchIndex:  make(map[string][]int32),
	}
}

func (l *Lookup) tableID(name string) int {
	if id, ok := l.tableIDs[name]; ok {
		return id
	}
	id := len(l.tableNames)
	l.tableIDs[name] = id
	l.tableNames = append(l.tableNames, name)
	return id
}

// TableName resolves a numeric owning-table id back to its name.
func (l *Lookup) TableName(id int) string {
	if id < 0 || id >= len(l.tableNames) {
		return ""
	}
	return l.tableNames[id]
}

// NodeRow returns the PIT node row of element id in table, or -1.
func (l *Lookup) NodeRow(table string, id int) int {
	return lookupRow(l.nodeIndex[table], id)
}

// BranchRow returns the first PIT branch row of element id in table, or -1.
// Elements spanning several rows (subdivided pipes) occupy consecutive rows
// starting there.
func (l *Lookup) BranchRow(table string, id int) int {
	return lookupRow(l.branchIndex[table], id)
}

func lookupRow(index []int32, id int) int {
	if id < 0 || id >= len(index) {
		return -1
	}
	return int(index[id])
}
