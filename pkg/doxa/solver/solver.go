// Package solver decides entailment and consistency queries against a
// clause store at a bounded case-split level, and assembles knowledge
// bases with plausibility spheres for conditional belief.
package solver

import (
	"github.com/cognicore/doxa/pkg/doxa/clause"
	"github.com/cognicore/doxa/pkg/doxa/formula"
	"github.com/cognicore/doxa/pkg/doxa/grounder"
	"github.com/cognicore/doxa/pkg/doxa/setup"
	"github.com/cognicore/doxa/pkg/doxa/term"
)

// Solver answers objective queries against one setup. Queries fork shallow
// copies of the setup and leave it unchanged.
type Solver struct {
	f *term.Factory
	g *grounder.Grounder
	s *setup.Setup
}

// New creates a solver with an empty setup.
func New(f *term.Factory, g *grounder.Grounder) *Solver {
	return &Solver{f: f, g: g, s: setup.New()}
}

// Setup exposes the underlying clause store.
func (sv *Solver) Setup() *setup.Setup { return sv.s }

// AddUnivClause grounds the quasi-primitive clause c over the current
// pools and adds every instance to the setup.
func (sv *Solver) AddUnivClause(c clause.Clause) {
	for _, gc := range sv.g.Ground(c) {
		sv.s.AddClause(gc)
	}
}

// Entails decides Know<k> psi for an objective, normalized, closed psi.
// Sound but incomplete: false means "not derivable within k splits".
func (sv *Solver) Entails(k int, psi *formula.Formula) bool {
	if psi.TriviallyValid() {
		return true
	}
	return sv.splitKnow(k, psi)
}

// splitKnow implements split-and-check: the query holds if it already
// follows from the setup, or if some undetermined primitive term can be
// split such that it follows in every branch with the remaining budget.
// The split disjunction is exhaustive because the split names include a
// placeholder for "everything else".
func (sv *Solver) splitKnow(k int, psi *formula.Formula) bool {
	if sv.holds(psi) {
		return true
	}
	if k <= 0 {
		return false
	}
	for _, t := range sv.splitTerms(psi) {
		if sv.s.Determines(t) {
			continue
		}
		names := sv.g.SplitNames(t.Sort(), k)
		all := len(names) > 0
		for _, n := range names {
			sc := sv.s.ShallowCopy()
			sc.AddUnit(clause.Eq(t, n))
			ok := sv.splitKnow(k-1, psi)
			sc.Close()
			if !ok {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// holds evaluates psi against the setup with no budget left, by the
// decomposition laws: a clause is known iff subsumed, a conjunction iff
// each conjunct is, an existential iff some instance over the pool is, a
// universal iff every instance is.
func (sv *Solver) holds(psi *formula.Formula) bool {
	switch psi.Kind() {
	case formula.KindAtomic:
		c := psi.Clause()
		return c.Valid() || (c.Ground() && sv.s.Subsumes(c))

	case formula.KindOr:
		return sv.holds(psi.Left()) || sv.holds(psi.Right())

	case formula.KindExists:
		x := psi.Var()
		for _, n := range sv.g.Pool(x.Sort(), 1) {
			if sv.holds(psi.Arg().GroundVar(sv.f, x, n)) {
				return true
			}
		}
		return false

	case formula.KindNot:
		chi := psi.Arg()
		switch chi.Kind() {
		case formula.KindAtomic:
			c := chi.Clause()
			if !c.Ground() {
				return false
			}
			for _, a := range c.Literals() {
				if !sv.s.Subsumes(clause.Unit(a.Flip())) {
					return false
				}
			}
			return true
		case formula.KindOr:
			return sv.holds(formula.Not(chi.Left())) && sv.holds(formula.Not(chi.Right()))
		case formula.KindNot:
			return sv.holds(chi.Arg())
		case formula.KindExists:
			x := chi.Var()
			for _, n := range sv.g.Pool(x.Sort(), 1) {
				if !sv.holds(formula.Not(chi.Arg().GroundVar(sv.f, x, n))) {
					return false
				}
			}
			return true
		}
		return false
	}
	return false
}

// Consistent decides Cons<k> psi: whether some branch of at most k splits
// leaves the setup compatible with psi. Sound but incomplete in the same
// discipline as Entails.
func (sv *Solver) Consistent(k int, psi *formula.Formula) bool {
	if psi.TriviallyInvalid() {
		return false
	}
	return sv.splitCons(k, psi)
}

func (sv *Solver) splitCons(k int, psi *formula.Formula) bool {
	if sv.compatible(psi) {
		return true
	}
	if k <= 0 {
		return false
	}
	for _, t := range sv.splitTerms(psi) {
		if sv.s.Determines(t) {
			continue
		}
		for _, n := range sv.g.SplitNames(t.Sort(), k) {
			sc := sv.s.ShallowCopy()
			res := sc.AddUnit(clause.Eq(t, n))
			ok := res != setup.UnitConflict && !sv.s.EmptyClause() && sv.splitCons(k-1, psi)
			sc.Close()
			if ok {
				return true
			}
		}
	}
	return false
}

// compatible checks whether psi can be assumed without tripping the
// bucket consistency check: psi's clauses join the check as extras,
// disjunctions and existentials branch, negated structure is pulled apart
// into conjuncts. Assumed clauses are never propagated as units — the only
// units are those the splits committed to — so an undecided disjunction in
// the setup keeps counting against consistency until a split resolves it.
func (sv *Solver) compatible(psi *formula.Formula) bool {
	return sv.assume([]*formula.Formula{psi}, nil)
}

func (sv *Solver) assume(conj []*formula.Formula, extra []clause.Clause) bool {
	if len(conj) == 0 {
		return sv.s.ConsistentWith(extra)
	}
	phi := conj[0]
	rest := conj[1:]
	switch phi.Kind() {
	case formula.KindAtomic:
		c := phi.Clause()
		if c.Valid() {
			return sv.assume(rest, extra)
		}
		if c.Empty() || !c.Ground() {
			return false
		}
		e2 := make([]clause.Clause, len(extra), len(extra)+1)
		copy(e2, extra)
		return sv.assume(rest, append(e2, c))

	case formula.KindOr:
		if sv.assume(prependConj(phi.Left(), rest), extra) {
			return true
		}
		return sv.assume(prependConj(phi.Right(), rest), extra)

	case formula.KindExists:
		x := phi.Var()
		for _, n := range sv.g.Pool(x.Sort(), 1) {
			if sv.assume(prependConj(phi.Arg().GroundVar(sv.f, x, n), rest), extra) {
				return true
			}
		}
		return false

	case formula.KindNot:
		chi := phi.Arg()
		switch chi.Kind() {
		case formula.KindAtomic:
			c := chi.Clause()
			if !c.Ground() {
				return false
			}
			units := make([]*formula.Formula, 0, c.Size()+len(rest))
			for _, a := range c.Literals() {
				units = append(units, formula.Atomic(clause.Unit(a.Flip())))
			}
			return sv.assume(append(units, rest...), extra)
		case formula.KindOr:
			conj2 := make([]*formula.Formula, 0, 2+len(rest))
			conj2 = append(conj2, formula.Not(chi.Left()), formula.Not(chi.Right()))
			return sv.assume(append(conj2, rest...), extra)
		case formula.KindNot:
			return sv.assume(prependConj(chi.Arg(), rest), extra)
		case formula.KindExists:
			x := chi.Var()
			pool := sv.g.Pool(x.Sort(), 1)
			insts := make([]*formula.Formula, 0, len(pool)+len(rest))
			for _, n := range pool {
				insts = append(insts, formula.Not(chi.Arg().GroundVar(sv.f, x, n)))
			}
			return sv.assume(append(insts, rest...), extra)
		}
		return false
	}
	return false
}

func prependConj(phi *formula.Formula, rest []*formula.Formula) []*formula.Formula {
	conj := make([]*formula.Formula, 0, 1+len(rest))
	conj = append(conj, phi)
	return append(conj, rest...)
}

// splitTerms returns the candidate split terms: the primitive terms of the
// query in the fixed term order, then those of the setup.
func (sv *Solver) splitTerms(psi *formula.Formula) []term.Term {
	seen := make(map[term.Term]struct{})
	var query []term.Term
	psi.EachTerm(func(t term.Term) bool {
		if t.Primitive() {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				query = append(query, t)
			}
		}
		return true
	})
	term.SortTerms(query)
	out := query
	for _, t := range sv.s.PrimitiveTerms() {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
