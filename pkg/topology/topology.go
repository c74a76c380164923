// Package topology decides which PIT rows take part in a solve: a node
// or branch is relevant only if it can reach a reference node of the
// mode through active branches. Unreachable rows are deactivated in
// place, so a repeated check on an unchanged network is idempotent.
package topology

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/e2nIEE/pipeflow/pkg/idx"
	"github.com/e2nIEE/pipeflow/pkg/pit"
)

// ErrNoSupply is raised when no active reference node remains to anchor
// the system; solving would be pointless and the caller must not try.
var ErrNoSupply = errors.New("pipeflow: no reference node supplies any active part of the network")

// Branches carrying less than this cannot transport heat.
const flowEps = 1e-12

type state int

const (
	stateBuilt state = iota
	stateChecked
	stateReconciled
)

// Connectivity is the result lookup-table pair of one check.
type Connectivity struct {
	NodesConnected    []bool
	BranchesConnected []bool
}

// Analyzer runs the reachability search and reconciles user-declared
// activity with graph-derived activity.
type Analyzer struct {
	log *zap.Logger
	// quitOnInconsistency makes a reachable but user-deactivated node a
	// fatal configuration error instead of auto-activating it.
	quitOnInconsistency bool
	state               state
}

func NewAnalyzer(log *zap.Logger, quitOnInconsistency bool) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{log: log, quitOnInconsistency: quitOnInconsistency}
}

// Check performs the reachability search for one mode and reconciles the
// active flags. The PIT is mutated in place: unreachable active rows are
// deactivated (logged, not fatal), reachable inactive nodes are either
// activated or rejected per policy.
func (a *Analyzer) Check(p *pit.PIT, l *pit.Lookup, mode idx.Mode) (*Connectivity, error) {
	nodeActive, branchActive := activeColumns(mode)
	nn, nb := p.NodeCount(), p.BranchCount()

	a.state = stateBuilt
	reachable := a.search(p, mode, nodeActive, branchActive)
	a.state = stateChecked

	conn := &Connectivity{
		NodesConnected:    make([]bool, nn),
		BranchesConnected: make([]bool, nb),
	}

	var problems []pit.Problem
	for r := 0; r < nn; r++ {
		active := p.Node[nodeActive][r] != 0
		switch {
		case reachable[r] && !active:
			if a.quitOnInconsistency {
				problems = appendProblem(problems, l, p, r)
				continue
			}
			a.log.Warn("activating user-deactivated node reachable from a reference",
				zap.String("table", l.TableName(int(p.Node[idx.NodeTableIdx][r]))),
				zap.Int("element", int(p.Node[idx.NodeElement][r])))
			p.Node[nodeActive][r] = 1
			conn.NodesConnected[r] = true
		case !reachable[r] && active:
			a.log.Warn("deactivating unsupplied node",
				zap.String("mode", mode.String()),
				zap.String("table", l.TableName(int(p.Node[idx.NodeTableIdx][r]))),
				zap.Int("element", int(p.Node[idx.NodeElement][r])))
			p.Node[nodeActive][r] = 0
		case reachable[r]:
			conn.NodesConnected[r] = true
		}
	}
	if len(problems) > 0 {
		return nil, &pit.ConfigError{Problems: problems}
	}

	for r := 0; r < nb; r++ {
		if p.Branch[branchActive][r] == 0 {
			continue
		}
		from := int(p.Branch[idx.BranchFrom][r])
		to := int(p.Branch[idx.BranchTo][r])
		if conn.NodesConnected[from] && conn.NodesConnected[to] {
			conn.BranchesConnected[r] = true
			continue
		}
		a.log.Warn("deactivating branch with unsupplied endpoint",
			zap.String("mode", mode.String()),
			zap.String("table", l.TableName(int(p.Branch[idx.BranchTableIdx][r]))),
			zap.Int("element", int(p.Branch[idx.BranchElement][r])))
		p.Branch[branchActive][r] = 0
	}
	a.state = stateReconciled

	if !anyTrue(conn.NodesConnected) {
		return nil, ErrNoSupply
	}
	return conn, nil
}

// search runs a breadth-first reachability pass from a virtual node tied
// to every active reference node of the mode. In heat mode a branch only
// conducts if it actually carries flow.
func (a *Analyzer) search(p *pit.PIT, mode idx.Mode, nodeActive, branchActive int) []bool {
	nn, nb := p.NodeCount(), p.BranchCount()
	adj := make([][]int32, nn+1)
	virtual := nn

	for r := 0; r < nb; r++ {
		if p.Branch[branchActive][r] == 0 {
			continue
		}
		if mode == idx.Heat && math.Abs(p.Branch[idx.BranchM][r]) <= flowEps {
			continue
		}
		from := int32(p.Branch[idx.BranchFrom][r])
		to := int32(p.Branch[idx.BranchTo][r])
		adj[from] = append(adj[from], to)
		adj[to] = append(adj[to], from)
	}

	refType, refCol := idx.TypeP, idx.NodeType
	if mode == idx.Heat {
		refType, refCol = idx.TypeT, idx.NodeTypeT
	}
	for r := 0; r < nn; r++ {
		if p.Node[refCol][r] == refType && p.Node[nodeActive][r] != 0 {
			adj[virtual] = append(adj[virtual], int32(r))
		}
	}

	visited := make([]bool, nn+1)
	visited[virtual] = true
	queue := []int32{int32(virtual)}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range adj[v] {
			if !visited[w] {
				visited[w] = true
				queue = append(queue, w)
			}
		}
	}
	return visited[:nn]
}

func activeColumns(mode idx.Mode) (node, branch int) {
	if mode == idx.Heat {
		return idx.NodeActiveT, idx.BranchActiveT
	}
	return idx.NodeActive, idx.BranchActive
}

func appendProblem(problems []pit.Problem, l *pit.Lookup, p *pit.PIT, row int) []pit.Problem {
	table := l.TableName(int(p.Node[idx.NodeTableIdx][row]))
	id := int(p.Node[idx.NodeElement][row])
	for i := range problems {
		if problems[i].Table == table {
			problems[i].IDs = append(problems[i].IDs, id)
			return problems
		}
	}
	return append(problems, pit.Problem{
		Table:  table,
		IDs:    []int{id},
		Reason: "deactivated node is reachable from a reference node",
	})
}

func anyTrue(mask []bool) bool {
	for _, v := range mask {
		if v {
			return true
		}
	}
	return false
}
