// Package formula provides first-order epistemic formulas without syntactic
// sugar. The atomic entities are clauses; the connectives are negation,
// disjunction, and the existential quantifier; the modal operators are
// Know, Cons, Bel, and Guarantee.
//
// NF brings a formula into quasi-primitive normal form: bound variables are
// rectified, negations pushed down, adjacent disjunctions folded into
// clauses where the quantifier prefixes allow, nested function terms
// flattened out through fresh existential variables, and — when requested —
// modal operators distributed over the connectives.
package formula

import (
	"github.com/cognicore/doxa/pkg/doxa/clause"
	"github.com/cognicore/doxa/pkg/doxa/term"
)

// Kind tags the formula variants.
type Kind int

const (
	KindAtomic Kind = iota
	KindNot
	KindOr
	KindExists
	KindKnow
	KindCons
	KindBel
	KindGuarantee
)

// Formula is a node of the formula tree. Formulas are uniquely owned by
// their constructor; Clone produces a deep copy.
type Formula struct {
	kind Kind
	c    clause.Clause
	l, r *Formula
	x    term.Term
	k    int
	lv   int
	ante *Formula
	cons *Formula
	fv   map[term.Term]struct{}
}

// Atomic builds an atomic formula from a clause.
func Atomic(c clause.Clause) *Formula { return &Formula{kind: KindAtomic, c: c} }

// Not negates a formula.
func Not(alpha *Formula) *Formula { return &Formula{kind: KindNot, l: alpha} }

// Or disjoins two formulas.
func Or(lhs, rhs *Formula) *Formula { return &Formula{kind: KindOr, l: lhs, r: rhs} }

// Exists quantifies x existentially. x must be a variable.
func Exists(x term.Term, alpha *Formula) *Formula {
	if !x.Variable() {
		panic("formula: Exists binder must be a variable")
	}
	return &Formula{kind: KindExists, x: x, l: alpha}
}

// Know asserts knowledge of alpha at split level k.
func Know(k int, alpha *Formula) *Formula { return &Formula{kind: KindKnow, k: k, l: alpha} }

// Cons asserts consistency of alpha at split level k.
func Cons(k int, alpha *Formula) *Formula { return &Formula{kind: KindCons, k: k, l: alpha} }

// Bel asserts conditional belief in conse given ante at split levels k and
// l. The material form !ante || conse is precomputed and carried along.
func Bel(k, l int, ante, conse *Formula) *Formula {
	return belWith(k, l, ante, conse, Or(Not(ante.Clone()), conse.Clone()))
}

func belWith(k, l int, ante, conse, material *Formula) *Formula {
	return &Formula{kind: KindBel, k: k, lv: l, ante: ante, cons: conse, l: material}
}

// Guarantee asserts validity of alpha across all models.
func Guarantee(alpha *Formula) *Formula { return &Formula{kind: KindGuarantee, l: alpha} }

// Kind returns the variant tag.
func (phi *Formula) Kind() Kind { return phi.kind }

// Clause returns the clause of an atomic formula.
func (phi *Formula) Clause() clause.Clause {
	phi.mustBe(KindAtomic)
	return phi.c
}

// Arg returns the argument of a unary connective or modal operator.
func (phi *Formula) Arg() *Formula {
	switch phi.kind {
	case KindNot, KindExists, KindKnow, KindCons, KindGuarantee:
		return phi.l
	}
	panic("formula: Arg on " + phi.kind.String())
}

// Left returns the left disjunct.
func (phi *Formula) Left() *Formula { phi.mustBe(KindOr); return phi.l }

// Right returns the right disjunct.
func (phi *Formula) Right() *Formula { phi.mustBe(KindOr); return phi.r }

// Var returns the bound variable of an existential.
func (phi *Formula) Var() term.Term { phi.mustBe(KindExists); return phi.x }

// K returns the split level of Know, Cons, or Bel.
func (phi *Formula) K() int {
	switch phi.kind {
	case KindKnow, KindCons, KindBel:
		return phi.k
	}
	panic("formula: K on " + phi.kind.String())
}

// L returns the consequent split level of Bel.
func (phi *Formula) L() int { phi.mustBe(KindBel); return phi.lv }

// Antecedent returns the antecedent of Bel.
func (phi *Formula) Antecedent() *Formula { phi.mustBe(KindBel); return phi.ante }

// Consequent returns the consequent of Bel.
func (phi *Formula) Consequent() *Formula { phi.mustBe(KindBel); return phi.cons }

// Material returns the precomputed !antecedent || consequent of Bel.
func (phi *Formula) Material() *Formula { phi.mustBe(KindBel); return phi.l }

func (phi *Formula) mustBe(k Kind) {
	if phi.kind != k {
		panic("formula: " + k.String() + " accessor on " + phi.kind.String())
	}
}

func (k Kind) String() string {
	switch k {
	case KindAtomic:
		return "Atomic"
	case KindNot:
		return "Not"
	case KindOr:
		return "Or"
	case KindExists:
		return "Exists"
	case KindKnow:
		return "Know"
	case KindCons:
		return "Cons"
	case KindBel:
		return "Bel"
	case KindGuarantee:
		return "Guarantee"
	}
	return "?"
}

// Clone deep-copies the formula.
func (phi *Formula) Clone() *Formula {
	cp := &Formula{kind: phi.kind, c: phi.c, x: phi.x, k: phi.k, lv: phi.lv}
	if phi.l != nil {
		cp.l = phi.l.Clone()
	}
	if phi.r != nil {
		cp.r = phi.r.Clone()
	}
	if phi.ante != nil {
		cp.ante = phi.ante.Clone()
	}
	if phi.cons != nil {
		cp.cons = phi.cons.Clone()
	}
	return cp
}

// Equal reports structural equality. Bel compares antecedent and material
// form, which together determine the consequent.
func (phi *Formula) Equal(psi *Formula) bool {
	if phi.kind != psi.kind {
		return false
	}
	switch phi.kind {
	case KindAtomic:
		return phi.c.Equal(psi.c)
	case KindNot, KindGuarantee:
		return phi.l.Equal(psi.l)
	case KindOr:
		return phi.l.Equal(psi.l) && phi.r.Equal(psi.r)
	case KindExists:
		return phi.x == psi.x && phi.l.Equal(psi.l)
	case KindKnow, KindCons:
		return phi.k == psi.k && phi.l.Equal(psi.l)
	case KindBel:
		return phi.k == psi.k && phi.lv == psi.lv &&
			phi.ante.Equal(psi.ante) && phi.l.Equal(psi.l)
	}
	return false
}

// FreeVars returns the free variables. The result is cached and must not
// be modified.
func (phi *Formula) FreeVars() map[term.Term]struct{} {
	if phi.fv == nil {
		phi.fv = phi.freeVars()
	}
	return phi.fv
}

func (phi *Formula) freeVars() map[term.Term]struct{} {
	fv := make(map[term.Term]struct{})
	switch phi.kind {
	case KindAtomic:
		for _, x := range phi.c.FreeVars() {
			fv[x] = struct{}{}
		}
	case KindOr:
		for x := range phi.l.FreeVars() {
			fv[x] = struct{}{}
		}
		for x := range phi.r.FreeVars() {
			fv[x] = struct{}{}
		}
	case KindExists:
		for x := range phi.l.FreeVars() {
			fv[x] = struct{}{}
		}
		delete(fv, phi.x)
	case KindBel:
		for x := range phi.l.FreeVars() {
			fv[x] = struct{}{}
		}
	default:
		for x := range phi.l.FreeVars() {
			fv[x] = struct{}{}
		}
	}
	return fv
}

// Objective reports whether no modal operator occurs.
func (phi *Formula) Objective() bool {
	switch phi.kind {
	case KindAtomic:
		return true
	case KindKnow, KindCons, KindBel:
		return false
	case KindOr:
		return phi.l.Objective() && phi.r.Objective()
	default:
		return phi.l.Objective()
	}
}

// Subjective reports whether every atomic clause outside a modal operator
// mentions no function symbol.
func (phi *Formula) Subjective() bool {
	switch phi.kind {
	case KindAtomic:
		for _, a := range phi.c.Literals() {
			if !a.FunctionFree() {
				return false
			}
		}
		return true
	case KindKnow, KindCons, KindBel:
		return true
	case KindOr:
		return phi.l.Subjective() && phi.r.Subjective()
	default:
		return phi.l.Subjective()
	}
}

// TriviallyValid reports syntactic validity.
func (phi *Formula) TriviallyValid() bool {
	switch phi.kind {
	case KindAtomic:
		return phi.c.Valid()
	case KindNot:
		return phi.l.TriviallyInvalid()
	case KindOr:
		return phi.l.TriviallyValid() || phi.r.TriviallyValid()
	case KindCons:
		return false
	case KindBel:
		return phi.l.TriviallyValid()
	default:
		return phi.l.TriviallyValid()
	}
}

// TriviallyInvalid reports syntactic invalidity.
func (phi *Formula) TriviallyInvalid() bool {
	switch phi.kind {
	case KindAtomic:
		return phi.c.Empty()
	case KindNot:
		return phi.l.TriviallyValid()
	case KindOr:
		return phi.l.TriviallyInvalid() && phi.r.TriviallyInvalid()
	case KindKnow, KindBel:
		return false
	case KindCons:
		return phi.l.TriviallyInvalid()
	default:
		return phi.l.TriviallyInvalid()
	}
}

// SubstituteFree rewrites the free occurrences of terms in place. theta is
// consulted for every term not bound at its position.
func (phi *Formula) SubstituteFree(f *term.Factory, theta func(term.Term) (term.Term, bool)) {
	phi.substFree(f, theta, make(map[term.Term]int))
}

func (phi *Formula) substFree(f *term.Factory, theta func(term.Term) (term.Term, bool), bound map[term.Term]int) {
	phi.fv = nil
	switch phi.kind {
	case KindAtomic:
		phi.c = phi.c.Substitute(f, func(t term.Term) (term.Term, bool) {
			if bound[t] > 0 {
				return term.Term{}, false
			}
			return theta(t)
		})
	case KindOr:
		phi.l.substFree(f, theta, bound)
		phi.r.substFree(f, theta, bound)
	case KindExists:
		bound[phi.x]++
		phi.l.substFree(f, theta, bound)
		bound[phi.x]--
	case KindBel:
		phi.ante.substFree(f, theta, bound)
		phi.cons.substFree(f, theta, bound)
		phi.l.substFree(f, theta, bound)
	default:
		phi.l.substFree(f, theta, bound)
	}
}

// GroundVar returns a copy of the formula with the free variable x replaced
// by the term n.
func (phi *Formula) GroundVar(f *term.Factory, x, n term.Term) *Formula {
	cp := phi.Clone()
	cp.SubstituteFree(f, func(t term.Term) (term.Term, bool) {
		if t == x {
			return n, true
		}
		return term.Term{}, false
	})
	return cp
}

// EachClause calls fn for every atomic clause in the formula, until fn
// returns false.
func (phi *Formula) EachClause(fn func(clause.Clause) bool) bool {
	switch phi.kind {
	case KindAtomic:
		return fn(phi.c)
	case KindOr:
		return phi.l.EachClause(fn) && phi.r.EachClause(fn)
	case KindBel:
		return phi.ante.EachClause(fn) && phi.cons.EachClause(fn) && phi.l.EachClause(fn)
	default:
		return phi.l.EachClause(fn)
	}
}

// EachTerm calls fn for every term in the formula, until fn returns false.
func (phi *Formula) EachTerm(fn func(term.Term) bool) bool {
	return phi.EachClause(func(c clause.Clause) bool { return c.EachTerm(fn) })
}

// NF returns the quasi-primitive normal form of the formula: rectify,
// normalize, flatten, normalize again. With distribute set, Know and Cons
// are pushed through the connectives of their bodies.
func (phi *Formula) NF(f *term.Factory, distribute bool) *Formula {
	cp := phi.Clone()
	cp.rectify(f)
	cp = cp.normalize(distribute)
	cp = cp.flatten(0, f)
	return cp.normalize(distribute)
}

// rectify renames every bound variable to a fresh one, making binders
// pairwise distinct and disjoint from the free variables.
func (phi *Formula) rectify(f *term.Factory) {
	phi.rect(f, make(map[term.Term]term.Term))
}

func (phi *Formula) rect(f *term.Factory, bound map[term.Term]term.Term) {
	phi.fv = nil
	switch phi.kind {
	case KindAtomic:
		phi.c = phi.c.Substitute(f, func(t term.Term) (term.Term, bool) {
			if t.Variable() {
				if nt, ok := bound[t]; ok {
					return nt, true
				}
			}
			return term.Term{}, false
		})
	case KindOr:
		phi.l.rect(f, bound)
		phi.r.rect(f, bound)
	case KindExists:
		old := phi.x
		fresh := f.NewVariable(old.Sort())
		prev, had := bound[old]
		bound[old] = fresh
		phi.x = fresh
		phi.l.rect(f, bound)
		if had {
			bound[old] = prev
		} else {
			delete(bound, old)
		}
	case KindBel:
		phi.ante.rect(f, bound)
		phi.cons.rect(f, bound)
		phi.l.rect(f, bound)
	default:
		phi.l.rect(f, bound)
	}
}
