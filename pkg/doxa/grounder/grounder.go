// Package grounder enumerates ground instances of quantified clauses.
//
// A Grounder keeps the per-sort pools of names the reasoner may quantify
// over: the ordinary names it has seen in axioms and queries, and the
// placeholder names it mints to stand for "something else not yet
// enumerated". Pools only grow; the Version counter lets callers notice
// growth and re-ground.
package grounder

import (
	"github.com/cognicore/doxa/pkg/doxa/clause"
	"github.com/cognicore/doxa/pkg/doxa/formula"
	"github.com/cognicore/doxa/pkg/doxa/term"
)

// Grounder tracks name pools and mints placeholders.
type Grounder struct {
	f            *term.Factory
	ordinary     map[term.Sort][]term.Term
	placeholders map[term.Sort][]term.Term
	seen         map[term.Term]struct{}
	sorts        []term.Sort
	sortSeen     map[term.Sort]struct{}
	version      int
}

// New creates a grounder minting from f.
func New(f *term.Factory) *Grounder {
	return &Grounder{
		f:            f,
		ordinary:     make(map[term.Sort][]term.Term),
		placeholders: make(map[term.Sort][]term.Term),
		seen:         make(map[term.Term]struct{}),
		sortSeen:     make(map[term.Sort]struct{}),
	}
}

// Version counts pool growth. It changes whenever a name or placeholder is
// added to any pool.
func (g *Grounder) Version() int { return g.version }

// Sorts returns every sort a pool or term has been seen for.
func (g *Grounder) Sorts() []term.Sort { return g.sorts }

func (g *Grounder) noteSort(s term.Sort) {
	if _, ok := g.sortSeen[s]; !ok {
		g.sortSeen[s] = struct{}{}
		g.sorts = append(g.sorts, s)
	}
}

func (g *Grounder) noteTerm(t term.Term) bool {
	g.noteSort(t.Sort())
	if t.Name() && !t.Placeholder() {
		if _, ok := g.seen[t]; !ok {
			g.seen[t] = struct{}{}
			g.ordinary[t.Sort()] = append(g.ordinary[t.Sort()], t)
			g.version++
		}
	}
	return true
}

// AddClause feeds the names of a clause into the pools.
func (g *Grounder) AddClause(c clause.Clause) {
	c.EachTerm(g.noteTerm)
}

// AddFormula feeds the names of a formula into the pools.
func (g *Grounder) AddFormula(phi *formula.Formula) {
	phi.EachTerm(g.noteTerm)
}

// EnsurePlaceholders mints placeholder names of sort s until the pool holds
// at least n of them.
func (g *Grounder) EnsurePlaceholders(s term.Sort, n int) {
	g.noteSort(s)
	for len(g.placeholders[s]) < n {
		g.placeholders[s] = append(g.placeholders[s], g.f.NewPlaceholder(s))
		g.version++
	}
}

// PlaceholderCount returns the number of placeholders minted for sort s.
func (g *Grounder) PlaceholderCount(s term.Sort) int { return len(g.placeholders[s]) }

// Pool returns the names of sort s, ordinary names first, with at least
// minPlaceholders placeholders ensured.
func (g *Grounder) Pool(s term.Sort, minPlaceholders int) []term.Term {
	g.EnsurePlaceholders(s, minPlaceholders)
	pool := make([]term.Term, 0, len(g.ordinary[s])+len(g.placeholders[s]))
	pool = append(pool, g.ordinary[s]...)
	pool = append(pool, g.placeholders[s]...)
	return pool
}

// SplitNames returns the names a level-k case split over a term of sort s
// ranges over: the ordinary names plus the top k+1 placeholders, so that
// every split in a depth-k recursion has a fresh "everything else"
// available.
func (g *Grounder) SplitNames(s term.Sort, k int) []term.Term {
	g.EnsurePlaceholders(s, k+1)
	pool := make([]term.Term, 0, len(g.ordinary[s])+k+1)
	pool = append(pool, g.ordinary[s]...)
	pool = append(pool, g.placeholders[s][:k+1]...)
	return pool
}

// Ground enumerates the instances of c over the pools: every free variable
// is replaced by every name of its sort, with one placeholder more than the
// clause has variables of that sort.
func (g *Grounder) Ground(c clause.Clause) []clause.Clause {
	vars := c.FreeVars()
	if len(vars) == 0 {
		return []clause.Clause{c}
	}
	perSort := make(map[term.Sort]int)
	for _, x := range vars {
		perSort[x.Sort()]++
	}
	pools := make([][]term.Term, len(vars))
	for i, x := range vars {
		pools[i] = g.Pool(x.Sort(), perSort[x.Sort()]+1)
	}
	var out []clause.Clause
	assign := make(map[term.Term]term.Term, len(vars))
	var enum func(i int)
	enum = func(i int) {
		if i == len(vars) {
			out = append(out, c.Substitute(g.f, func(t term.Term) (term.Term, bool) {
				n, ok := assign[t]
				return n, ok
			}))
			return
		}
		for _, n := range pools[i] {
			assign[vars[i]] = n
			enum(i + 1)
		}
		delete(assign, vars[i])
	}
	enum(0)
	return out
}
