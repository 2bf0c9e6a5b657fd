// SPDX-License-Identifier: MIT

package ordering

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/katalvlaran/sparsegraph/sparse"
)

// adjacency is the undirected, loop-free structure of a pattern with each
// neighbor list sorted by (degree, index).
type adjacency struct {
	nbrs [][]sparse.Index
	deg  []int
}

// newAdjacency symmetrizes p over [0, p.Size()); columns outside that range
// are not nodes and are ignored.
func newAdjacency(p sparse.Pattern) adjacency {
	n := p.Size()
	nbrs := make([][]sparse.Index, n)
	for i, cols := range p.All() {
		for _, j := range cols {
			if j == i || j >= sparse.Index(n) {
				continue
			}
			nbrs[i] = append(nbrs[i], j)
			nbrs[j] = append(nbrs[j], i)
		}
	}
	deg := make([]int, n)
	for i := range nbrs {
		slices.Sort(nbrs[i])
		nbrs[i] = slices.Compact(nbrs[i])
		deg[i] = len(nbrs[i])
	}
	a := adjacency{nbrs: nbrs, deg: deg}
	for i := range nbrs {
		slices.SortFunc(nbrs[i], a.byDegree)
	}
	return a
}

// byDegree orders nodes by ascending degree, then index.
func (a adjacency) byDegree(x, y sparse.Index) int {
	if c := cmp.Compare(a.deg[x], a.deg[y]); c != 0 {
		return c
	}
	return cmp.Compare(x, y)
}

// walker encapsulates mutable Cuthill–McKee state.
type walker struct {
	adj     adjacency
	opts    Options
	visited []bool
	order   Permutation

	// mark/stamp give levelStructure an O(component) reset.
	mark  []int
	stamp int
}

// CuthillMcKee returns the Cuthill–McKee order of p's rows, or the reverse
// order with WithReverse. Every index in [0, p.Size()) appears exactly once;
// rows without off-diagonal entries form their own components.
//
// Errors: ErrNilPattern, ErrOptionViolation, context cancellation;
// sparse.ErrBadSize if p spans more than sparse.MaxCSRRows rows.
// Complexity: O(n log n + nnz·log(maxdeg)) plus the peripheral search.
func CuthillMcKee(p sparse.Pattern, opts ...Option) (Permutation, error) {
	if p == nil {
		return nil, ErrNilPattern
	}
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}
	if n := p.Size(); n > sparse.MaxCSRRows {
		return nil, fmt.Errorf("cuthill-mckee: %d rows exceed limit %d: %w", n, sparse.MaxCSRRows, sparse.ErrBadSize)
	}

	adj := newAdjacency(p)
	n := len(adj.deg)
	w := &walker{
		adj:     adj,
		opts:    o,
		visited: make([]bool, n),
		order:   make(Permutation, 0, n),
		mark:    make([]int, n),
	}

	// Components are started from their lowest-degree node.
	starts := make([]sparse.Index, n)
	for i := range starts {
		starts[i] = sparse.Index(i)
	}
	slices.SortFunc(starts, adj.byDegree)

	for _, s := range starts {
		if w.visited[s] {
			continue
		}
		if err := w.walk(w.peripheral(s)); err != nil {
			return nil, err
		}
	}

	if o.Reverse {
		slices.Reverse(w.order)
	}
	return w.order, nil
}

// levelStructure runs a BFS from root and returns the last level and the
// eccentricity of root.
func (w *walker) levelStructure(root sparse.Index) ([]sparse.Index, int) {
	w.stamp++
	w.mark[root] = w.stamp
	frontier := []sparse.Index{root}
	ecc := 0
	for {
		var next []sparse.Index
		for _, v := range frontier {
			for _, u := range w.adj.nbrs[v] {
				if w.mark[u] != w.stamp {
					w.mark[u] = w.stamp
					next = append(next, u)
				}
			}
		}
		if len(next) == 0 {
			return frontier, ecc
		}
		frontier = next
		ecc++
	}
}

// peripheral finds a pseudo-peripheral node of start's component: move to
// the lowest-degree node of the last level while the eccentricity grows.
func (w *walker) peripheral(start sparse.Index) sparse.Index {
	root := start
	last, ecc := w.levelStructure(root)
	for {
		cand := slices.MinFunc(last, w.adj.byDegree)
		candLast, candEcc := w.levelStructure(cand)
		if candEcc <= ecc {
			return root
		}
		root, last, ecc = cand, candLast, candEcc
	}
}

type queueItem struct {
	node  sparse.Index
	level int
}

// walk appends root's component to the order breadth-first.
func (w *walker) walk(root sparse.Index) error {
	w.visited[root] = true
	queue := []queueItem{{node: root}}
	for len(queue) > 0 {
		// cancellation check (once per node)
		select {
		case <-w.opts.Ctx.Done():
			return w.opts.Ctx.Err()
		default:
		}

		item := queue[0]
		queue = queue[1:]
		w.order = append(w.order, item.node)
		w.opts.OnVisit(item.node, item.level)

		for _, nbr := range w.adj.nbrs[item.node] {
			if !w.visited[nbr] {
				w.visited[nbr] = true
				queue = append(queue, queueItem{node: nbr, level: item.level + 1})
			}
		}
	}
	return nil
}
