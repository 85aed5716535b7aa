package solver

import (
	"github.com/cognicore/doxa/pkg/doxa/clause"
	"github.com/cognicore/doxa/pkg/doxa/formula"
	"github.com/cognicore/doxa/pkg/doxa/grounder"
	"github.com/cognicore/doxa/pkg/doxa/term"
)

// conditional is a stored Bel axiom: believe conse given ante, with the
// material clause of !ante || conse ready for grounding.
type conditional struct {
	k, l     int
	ante     *formula.Formula
	conse    *formula.Formula
	material clause.Clause
}

// KnowledgeBase holds the universal objective knowledge as clauses, the
// conditional-belief axioms, and the name pools, and answers queries. The
// grounded setups are rebuilt lazily whenever axioms or pools grow; queries
// themselves never mutate them, so a knowledge base is re-entrant across
// queries.
type KnowledgeBase struct {
	f *term.Factory
	g *grounder.Grounder

	knowledge []clause.Clause
	beliefs   []conditional

	base    *Solver
	spheres []*Solver
	built   bool
	version int
}

// NewKnowledgeBase creates an empty knowledge base minting from f.
func NewKnowledgeBase(f *term.Factory) *KnowledgeBase {
	return &KnowledgeBase{f: f, g: grounder.New(f)}
}

// Grounder exposes the name pools.
func (kb *KnowledgeBase) Grounder() *grounder.Grounder { return kb.g }

// Base returns the solver over the objective knowledge.
func (kb *KnowledgeBase) Base() *Solver {
	kb.refresh()
	return kb.base
}

// Add normalizes alpha and stores it if it is acceptable: a universally
// quantified objective clause (possibly under Guarantee or Know), or a Bel
// conditional whose material form is such a clause. It reports whether the
// axiom was accepted.
func (kb *KnowledgeBase) Add(alpha *formula.Formula) bool {
	phi := alpha.NF(kb.f, true)
	for phi.Kind() == formula.KindGuarantee {
		phi = phi.Arg()
	}
	switch phi.Kind() {
	case formula.KindKnow:
		c, ok := phi.Arg().AsUnivClause()
		if !ok {
			return false
		}
		kb.addKnowledge(c)
		return true
	case formula.KindBel:
		if !phi.Antecedent().Objective() || !phi.Consequent().Objective() {
			return false
		}
		c, ok := phi.Material().AsUnivClause()
		if !ok {
			return false
		}
		kb.beliefs = append(kb.beliefs, conditional{
			k:        phi.K(),
			l:        phi.L(),
			ante:     phi.Antecedent(),
			conse:    phi.Consequent(),
			material: c,
		})
		kb.g.AddClause(c)
		kb.g.AddFormula(phi.Antecedent())
		kb.built = false
		return true
	default:
		c, ok := phi.AsUnivClause()
		if !ok {
			return false
		}
		kb.addKnowledge(c)
		return true
	}
}

func (kb *KnowledgeBase) addKnowledge(c clause.Clause) {
	kb.knowledge = append(kb.knowledge, c)
	kb.g.AddClause(c)
	kb.built = false
}

// Entails normalizes alpha and decides it. Queries are sound but
// incomplete: false covers both "refutable" and "inconclusive".
func (kb *KnowledgeBase) Entails(alpha *formula.Formula, distribute bool) bool {
	phi := alpha.NF(kb.f, distribute)
	kb.g.AddFormula(phi)
	kb.prepare(phi)
	kb.refresh()
	return kb.eval(phi)
}

// prepare mints the placeholders a query at its maximal split level can
// need, so that evaluation does not grow the pools mid-query. A Guarantee
// still mints one more placeholder per sort while it is evaluated.
func (kb *KnowledgeBase) prepare(phi *formula.Formula) {
	k := maxLevel(phi)
	for _, b := range kb.beliefs {
		if b.k > k {
			k = b.k
		}
		if b.l > k {
			k = b.l
		}
	}
	for _, s := range kb.g.Sorts() {
		kb.g.EnsurePlaceholders(s, k+2)
	}
}

func maxLevel(phi *formula.Formula) int {
	k := 0
	var walk func(*formula.Formula)
	walk = func(psi *formula.Formula) {
		switch psi.Kind() {
		case formula.KindAtomic:
		case formula.KindOr:
			walk(psi.Left())
			walk(psi.Right())
		case formula.KindKnow, formula.KindCons:
			if psi.K() > k {
				k = psi.K()
			}
			walk(psi.Arg())
		case formula.KindBel:
			if psi.K() > k {
				k = psi.K()
			}
			if psi.L() > k {
				k = psi.L()
			}
			walk(psi.Material())
		default:
			walk(psi.Arg())
		}
	}
	walk(phi)
	return k
}

// refresh rebuilds the base setup and the plausibility spheres when axioms
// or pools changed since the last build. Grounding can itself mint
// placeholders, so the build repeats until the pools are stable.
func (kb *KnowledgeBase) refresh() {
	for !kb.built || kb.version != kb.g.Version() {
		v := kb.g.Version()
		kb.build()
		kb.built = true
		if kb.g.Version() == v {
			kb.version = v
		}
	}
}

func (kb *KnowledgeBase) build() {
	newSolver := func(withBeliefs func(int) bool) *Solver {
		sv := New(kb.f, kb.g)
		for _, c := range kb.knowledge {
			sv.AddUnivClause(c)
		}
		for i, b := range kb.beliefs {
			if withBeliefs != nil && withBeliefs(i) {
				sv.AddUnivClause(b.material)
			}
		}
		return sv
	}

	kb.base = newSolver(nil)
	if len(kb.beliefs) == 0 {
		kb.spheres = []*Solver{kb.base}
		return
	}

	// Lakemeyer-Levesque sphere construction: sphere p carries the material
	// clauses of the conditionals still possible there; conditionals whose
	// antecedent is inconsistent at sphere p are retired, sphere p+1 drops
	// their material clauses, and the remaining conditionals are re-examined
	// there. The iteration stops when a round retires nothing; when every
	// conditional has been retired, a final sphere carries the knowledge
	// alone.
	done := make([]bool, len(kb.beliefs))
	var spheres []*Solver
	for {
		sph := newSolver(func(i int) bool { return !done[i] })
		spheres = append(spheres, sph)
		retired := false
		remaining := false
		for i, b := range kb.beliefs {
			if done[i] {
				continue
			}
			if !sph.Consistent(b.k, b.ante) {
				done[i] = true
				retired = true
			} else {
				remaining = true
			}
		}
		if !retired {
			break
		}
		if !remaining {
			spheres = append(spheres, newSolver(func(int) bool { return false }))
			break
		}
	}
	kb.spheres = spheres
}

// eval decides a normalized query: modal leaves go to the solvers, the
// connectives above them are evaluated classically, and quantified-in
// variables are grounded over the pools.
func (kb *KnowledgeBase) eval(phi *formula.Formula) bool {
	switch phi.Kind() {
	case formula.KindKnow:
		body := phi.Arg()
		if !body.Objective() {
			return false
		}
		return kb.base.Entails(phi.K(), body)

	case formula.KindCons:
		body := phi.Arg()
		if !body.Objective() {
			return false
		}
		return kb.base.Consistent(phi.K(), body)

	case formula.KindBel:
		if !phi.Antecedent().Objective() || !phi.Consequent().Objective() {
			return false
		}
		for _, sph := range kb.spheres {
			if sph.Consistent(phi.K(), phi.Antecedent()) {
				return sph.Entails(phi.L(), phi.Material())
			}
		}
		return true

	case formula.KindGuarantee:
		// Validity across all models: the body must hold over the current
		// pool and keep holding when the pool is extended past every name
		// the query could distinguish.
		if !kb.eval(phi.Arg()) {
			return false
		}
		for _, s := range kb.g.Sorts() {
			kb.g.EnsurePlaceholders(s, kb.g.PlaceholderCount(s)+1)
		}
		kb.refresh()
		return kb.eval(phi.Arg())

	case formula.KindNot:
		return !kb.eval(phi.Arg())

	case formula.KindOr:
		return kb.eval(phi.Left()) || kb.eval(phi.Right())

	case formula.KindExists:
		x := phi.Var()
		for _, n := range kb.g.Pool(x.Sort(), 1) {
			if kb.eval(phi.Arg().GroundVar(kb.f, x, n)) {
				return true
			}
		}
		return false

	case formula.KindAtomic:
		return kb.base.Entails(0, phi)
	}
	return false
}
