package pit

import (
	"github.com/e2nIEE/pipeflow/pkg/idx"
)

// Contributor is implemented by every component table. Contributors are
// invoked in fixed dependency order: node-owning tables first, so that
// branch tables can resolve their endpoint rows while populating.
type Contributor interface {
	Table() string
	// Count reports how many node and branch rows this table will
	// occupy, including out-of-service elements and internal nodes of
	// subdivided elements. Inactivity is a flag, not a deletion.
	Count() (nodes, branches int)
	Populate(b *Builder) error
}

// Builder fills the PIT and the lookup structures during one build pass.
type Builder struct {
	pit    *PIT
	lookup *Lookup

	table        string
	tableID      int
	nodeCursor   int
	branchCursor int

	problems []Problem
}

// Build allocates the PIT for the given contributors and lets each one
// populate its rows. Configuration problems are aggregated and returned
// once as a *ConfigError.
func Build(schema idx.Schema, contribs []Contributor) (*PIT, *Lookup, error) {
	var nodes, branches int
	for _, c := range contribs {
		n, b := c.Count()
		nodes += n
		branches += b
	}

	b := &Builder{pit: newPIT(schema, nodes, branches), lookup: newLookup()}
	for _, c := range contribs {
		b.table = c.Table()
		b.tableID = b.lookup.tableID(b.table)
		nodeStart, branchStart := b.nodeCursor, b.branchCursor

		if err := c.Populate(b); err != nil {
			return nil, nil, err
		}

		if b.nodeCursor > nodeStart {
			b.lookup.NodeRanges[b.table] = Range{Start: nodeStart, End: b.nodeCursor}
		}
		if b.branchCursor > branchStart {
			b.lookup.BranchRanges[b.table] = Range{Start: branchStart, End: b.branchCursor}
		}
	}

	if len(b.problems) > 0 {
		return nil, nil, &ConfigError{Problems: b.problems}
	}
	return b.pit, b.lookup, nil
}

// PIT exposes the tables for direct column writes during Populate.
func (b *Builder) PIT() *PIT { return b.pit }

// NewNodeRow appends a node row for element id of the current table and
// returns its row index. Defaults: active, plain type, fully present in
// both modes.
func (b *Builder) NewNodeRow(id int) int {
	r := b.nodeCursor
	b.nodeCursor++

	n := b.pit.Node
	n[idx.NodeTableIdx][r] = float64(b.tableID)
	n[idx.NodeElement][r] = float64(id)
	n[idx.NodeType][r] = idx.TypeNone
	n[idx.NodeTypeT][r] = idx.TypeNone
	n[idx.NodeActive][r] = 1
	n[idx.NodeActiveT][r] = 1

	if lookupRow(b.lookup.nodeIndex[b.table], id) < 0 {
		b.indexRow(b.lookup.nodeIndex, id, r)
	}
	return r
}

// NewBranchRow appends a branch row between two node rows and returns
// its index. For multi-row elements only the first row is indexed.
func (b *Builder) NewBranchRow(id, from, to int) int {
	r := b.branchCursor
	b.branchCursor++

	br := b.pit.Branch
	br[idx.BranchTableIdx][r] = float64(b.tableID)
	br[idx.BranchElement][r] = float64(id)
	br[idx.BranchFrom][r] = float64(from)
	br[idx.BranchTo][r] = float64(to)
	br[idx.BranchFromT][r] = float64(from)
	br[idx.BranchToT][r] = float64(to)
	br[idx.BranchActive][r] = 1
	br[idx.BranchActiveT][r] = 1
	br[idx.BranchCtrlNode][r] = -1

	if lookupRow(b.lookup.branchIndex[b.table], id) < 0 {
		b.indexRow(b.lookup.branchIndex, id, r)
	}
	return r
}

func (b *Builder) indexRow(index map[string][]int32, id, row int) {
	arr := index[b.table]
	for len(arr) <= id {
		arr = append(arr, -1)
	}
	arr[id] = int32(row)
	index[b.table] = arr
}

// NodeRow resolves an element of another table to its node row. A miss
// is recorded as a configuration problem and reported once after the
// build pass; the caller should skip the element.
func (b *Builder) NodeRow(table string, id int) int {
	r := b.lookup.NodeRow(table, id)
	if r < 0 {
		b.Problem("references missing "+table, id)
	}
	return r
}

// Problem records a configuration defect for the current table.
func (b *Builder) Problem(reason string, ids ...int) {
	for i := range b.problems {
		if b.problems[i].Table == b.table && b.problems[i].Reason == reason {
			b.problems[i].IDs = append(b.problems[i].IDs, ids...)
			return
		}
	}
	b.problems = append(b.problems, Problem{Table: b.table, IDs: ids, Reason: reason})
}

// Lookup returns the lookup built so far. Ranges of the running table
// are final only after its Populate returns.
func (b *Builder) Lookup() *Lookup { return b.lookup }
