package ssa

import "github.com/pkg/errors"

// buildDomTree computes immediate dominators with the
// Lengauer-Tarjan semi-dominator algorithm, in its simple (path-
// compression-only, no union-by-rank) form — the same shape
// cmd/compile/internal/ssa/dom.go in the real Go toolchain uses for
// this pass. Runs after reachability pruning and block fusion have
// settled the final block set, so every block here is live.
//
// Produces, per block: its immediate dominator (domNode.idom), the
// list of blocks it immediately dominates (domNode.children), and a
// pre/post DFS numbering over the dominator tree supporting the O(1)
// "does a dominate b" query.
func buildDomTree(f *Proc) {
	n := len(f.Blocks)
	if n == 0 {
		return
	}
	entry := f.Blocks[0]

	semi := make(map[*Block]int, n)
	vertex := make([]*Block, 0, n)
	parent := make(map[*Block]*Block, n)
	ancestor := make(map[*Block]*Block, n)
	label := make(map[*Block]*Block, n)
	idom := make(map[*Block]*Block, n)
	bucket := make(map[*Block][]*Block, n)

	var dfs func(v *Block)
	dfs = func(v *Block) {
		semi[v] = len(vertex)
		vertex = append(vertex, v)
		label[v] = v
		for _, w := range v.Succs {
			if _, ok := semi[w]; !ok {
				parent[w] = v
				dfs(w)
			}
		}
	}
	dfs(entry)
	if len(vertex) != n {
		// pruneUnreachable runs first, so every block must be DFS-visited;
		// a shortfall means the CFG edges were corrupted upstream.
		panic(errors.Errorf("dominator construction in %s: %d of %d blocks unreachable from entry %q",
			f.Name, n-len(vertex), n, entry.Label))
	}

	var compress func(v *Block)
	compress = func(v *Block) {
		a := ancestor[v]
		if a == nil {
			return
		}
		if ancestor[a] != nil {
			compress(a)
			if semi[label[a]] < semi[label[v]] {
				label[v] = label[a]
			}
			ancestor[v] = ancestor[a]
		}
	}
	eval := func(v *Block) *Block {
		if ancestor[v] == nil {
			return v
		}
		compress(v)
		return label[v]
	}
	link := func(v, w *Block) { ancestor[w] = v }

	for i := len(vertex) - 1; i >= 1; i-- {
		w := vertex[i]
		for _, v := range w.Preds {
			if _, ok := semi[v]; !ok {
				continue // unreachable predecessor edge; cannot occur post-pruning
			}
			u := eval(v)
			if semi[u] < semi[w] {
				semi[w] = semi[u]
			}
		}
		sdomBlock := vertex[semi[w]]
		bucket[sdomBlock] = append(bucket[sdomBlock], w)
		link(parent[w], w)

		for _, v := range bucket[parent[w]] {
			u := eval(v)
			if semi[u] < semi[v] {
				idom[v] = u
			} else {
				idom[v] = parent[w]
			}
		}
		bucket[parent[w]] = nil
	}
	for i := 1; i < len(vertex); i++ {
		w := vertex[i]
		if idom[w] != vertex[semi[w]] {
			idom[w] = idom[idom[w]]
		}
	}

	for _, b := range f.Blocks {
		b.dom = domNode{}
	}
	for i := 1; i < len(vertex); i++ {
		w := vertex[i]
		d := idom[w]
		w.dom.idom = d
		d.dom.children = append(d.dom.children, w)
	}

	clock := 0
	var number func(b *Block)
	number = func(b *Block) {
		clock++
		b.dom.pre = clock
		for _, c := range b.dom.children {
			number(c)
		}
		clock++
		b.dom.post = clock
	}
	number(entry)
}
