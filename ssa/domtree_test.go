package ssa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Loop A->B->C->B with exit C->D gives
// idom(B)=A, idom(C)=B, idom(D)=C.
func TestDomTreeLoop(t *testing.T) {
	m := newTestModule()
	p := m.NewProc("loop", simpleSig(), nil)
	a := p.NewBlock("A")
	b := p.NewBlock("B")
	c := p.NewBlock("C")
	d := p.NewBlock("D")

	AddEdge(a, b)
	AddEdge(b, c)
	AddEdge(c, b)
	AddEdge(c, d)

	buildDomTree(p)

	require.NotNil(t, b.Idom())
	assert.Same(t, a, b.Idom())
	assert.Same(t, b, c.Idom())
	assert.Same(t, c, d.Idom())
	assert.Nil(t, a.Idom(), "the entry has no immediate dominator")
}

// The pre/post numbering answers ancestor queries.
func TestDomTreeAncestorQuery(t *testing.T) {
	m := newTestModule()
	p := m.NewProc("loop", simpleSig(), nil)
	a := p.NewBlock("A")
	b := p.NewBlock("B")
	c := p.NewBlock("C")
	d := p.NewBlock("D")

	AddEdge(a, b)
	AddEdge(b, c)
	AddEdge(c, b)
	AddEdge(c, d)

	buildDomTree(p)

	assert.True(t, a.Dominates(d))
	assert.True(t, b.Dominates(d))
	assert.True(t, c.Dominates(d))
	assert.True(t, a.Dominates(a))
	assert.False(t, d.Dominates(b))
	assert.False(t, c.Dominates(b), "the back edge does not make C dominate B")
}

// DomChildren is the inverse of Idom.
func TestDomTreeChildren(t *testing.T) {
	m := newTestModule()
	p := m.NewProc("chain", simpleSig(), nil)
	a := p.NewBlock("A")
	b := p.NewBlock("B")
	c := p.NewBlock("C")

	AddEdge(a, b)
	AddEdge(b, c)

	buildDomTree(p)

	require.Len(t, a.DomChildren(), 1)
	assert.Same(t, b, a.DomChildren()[0])
	require.Len(t, b.DomChildren(), 1)
	assert.Same(t, c, b.DomChildren()[0])
	assert.Empty(t, c.DomChildren())
}
