package formula

import (
	"strconv"
	"strings"

	"github.com/cognicore/doxa/pkg/doxa/clause"
	"github.com/cognicore/doxa/pkg/doxa/term"
)

// qelem is one step of a quantifier prefix: a negation or a binder.
type qelem struct {
	not bool
	x   term.Term
}

// qprefix is the chain of negations and existentials above a formula,
// outermost first.
type qprefix []qelem

// quantifierPrefix splits the formula into its leading Not/Exists chain and
// the first suffix of another kind.
func (phi *Formula) quantifierPrefix() (qprefix, *Formula) {
	var p qprefix
	cur := phi
	for {
		switch cur.kind {
		case KindNot:
			p = append(p, qelem{not: true})
			cur = cur.l
		case KindExists:
			p = append(p, qelem{x: cur.x})
			cur = cur.l
		default:
			return p, cur
		}
	}
}

func (p qprefix) even() bool {
	n := 0
	for _, e := range p {
		if e.not {
			n++
		}
	}
	return n%2 == 0
}

// prependTo wraps alpha in the prefix, innermost element first.
func (p qprefix) prependTo(alpha *Formula) *Formula {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].not {
			alpha = Not(alpha)
		} else {
			alpha = Exists(p[i].x, alpha)
		}
	}
	return alpha
}

// normalize pushes negations down and folds adjacent disjunctions into
// single clauses where their quantifier prefixes allow. With distribute
// set, Know and Cons are pushed through their bodies.
func (phi *Formula) normalize(distribute bool) *Formula {
	switch phi.kind {
	case KindAtomic:
		return phi.Clone()

	case KindNot:
		alpha := phi.l
		switch alpha.kind {
		case KindAtomic:
			if alpha.c.IsUnit() {
				return Atomic(clause.Unit(alpha.c.Head().Flip()))
			}
			return phi.Clone()
		case KindNot:
			return alpha.l.normalize(distribute)
		case KindExists:
			return Not(Exists(alpha.x, alpha.l.normalize(distribute)))
		default:
			return Not(alpha.normalize(distribute))
		}

	case KindOr:
		l := phi.l.normalize(distribute)
		r := phi.r.normalize(distribute)
		lp, ls := l.quantifierPrefix()
		rp, rs := r.quantifierPrefix()
		if ls.kind == KindAtomic && (lp.even() || ls.c.IsUnit()) &&
			rs.kind == KindAtomic && (rp.even() || rs.c.IsUnit()) {
			lc := ls.c
			rc := rs.c
			if !lp.even() {
				lp = append(lp, qelem{not: true})
				lc = clause.Unit(lc.Head().Flip())
			}
			if !rp.even() {
				rp = append(rp, qelem{not: true})
				rc = clause.Unit(rc.Head().Flip())
			}
			lits := make([]clause.Literal, 0, lc.Size()+rc.Size())
			lits = append(lits, lc.Literals()...)
			lits = append(lits, rc.Literals()...)
			return lp.prependTo(rp.prependTo(Atomic(clause.New(lits...))))
		}
		return Or(l, r)

	case KindExists:
		_, free := phi.l.FreeVars()[phi.x]
		alpha := phi.l.normalize(distribute)
		if free {
			return Exists(phi.x, alpha)
		}
		return alpha

	case KindKnow:
		alpha := phi.l.normalize(distribute)
		if distribute {
			return distK(phi.k, alpha)
		}
		return Know(phi.k, alpha)

	case KindCons:
		alpha := phi.l.normalize(distribute)
		if distribute {
			return distM(phi.k, alpha)
		}
		return Cons(phi.k, alpha)

	case KindBel:
		return belWith(phi.k, phi.lv,
			phi.ante.normalize(distribute),
			phi.cons.normalize(distribute),
			phi.l.normalize(distribute))

	case KindGuarantee:
		return Guarantee(phi.l.normalize(distribute))
	}
	panic("formula: bad kind")
}

// distK pushes Know through a negated body: double negations collapse,
// negated clauses decompose into per-literal Know queries, and Know
// distributes over disjunction and quantification by De Morgan.
func distK(k int, alpha *Formula) *Formula {
	if alpha.kind == KindNot {
		beta := alpha.l
		switch beta.kind {
		case KindAtomic:
			c := beta.c
			if c.IsUnit() {
				return Know(k, Atomic(clause.Unit(c.Head().Flip())))
			}
			if c.Size() >= 2 {
				var gamma *Formula
				for _, a := range c.Literals() {
					delta := Not(Know(k, Atomic(clause.Unit(a.Flip()))))
					if gamma == nil {
						gamma = delta
					} else {
						gamma = Or(gamma, delta)
					}
				}
				return Not(gamma)
			}
		case KindNot:
			return distK(k, beta.l.Clone())
		case KindOr:
			return Not(Or(
				Not(distK(k, Not(beta.l.Clone()))),
				Not(distK(k, Not(beta.r.Clone())))))
		case KindExists:
			return Not(Exists(beta.x, Not(distK(k, Not(beta.l.Clone())))))
		}
	}
	return Know(k, alpha)
}

// distM pushes Cons through its body: a clause of two or more literals
// decomposes into the disjunction of Know queries on the flipped literals,
// and Cons distributes over disjunction and quantification directly.
func distM(k int, alpha *Formula) *Formula {
	switch alpha.kind {
	case KindAtomic:
		c := alpha.c
		if c.Size() >= 2 {
			var gamma *Formula
			for _, a := range c.Literals() {
				delta := Know(k, Atomic(clause.Unit(a.Flip())))
				if gamma == nil {
					gamma = delta
				} else {
					gamma = Or(gamma, delta)
				}
			}
			return gamma
		}
	case KindOr:
		return Or(distM(k, alpha.l.Clone()), distM(k, alpha.r.Clone()))
	case KindExists:
		return Exists(alpha.x, distM(k, alpha.l.Clone()))
	}
	return Cons(k, alpha)
}

// flatten replaces non-quasi-primitive literals by equivalent sets of
// quasi-primitive ones, introducing fresh existentially quantified
// variables for nested function terms. nots counts the negations above the
// current position.
func (phi *Formula) flatten(nots int, f *term.Factory) *Formula {
	switch phi.kind {
	case KindAtomic:
		return phi.flattenAtomic(nots, f)
	case KindNot:
		return Not(phi.l.flatten(nots+1, f))
	case KindOr:
		return Or(phi.l.flatten(nots, f), phi.r.flatten(nots, f))
	case KindExists:
		return Exists(phi.x, phi.l.flatten(nots, f))
	case KindKnow:
		return Know(phi.k, phi.l.flatten(0, f))
	case KindCons:
		return Cons(phi.k, phi.l.flatten(0, f))
	case KindBel:
		return belWith(phi.k, phi.lv,
			phi.ante.flatten(0, f),
			phi.cons.flatten(0, f),
			phi.l.flatten(0, f))
	case KindGuarantee:
		return Guarantee(phi.l.flatten(nots, f))
	}
	panic("formula: bad kind")
}

// flattenAtomic rewrites the clause using the equivalence
//
//	Fa x1 .. Fa xN (t1 != x1 || ... || tN != xN || c[xi/ti])
//	== Ex x1 .. Ex xN (t1 == x1 && ... && tN == xN && c[xi/ti])
//
// The universal form yields one bigger clause and is preferred at even
// negation parity. At odd parity over a unit clause, the unit is flipped,
// flattened, and re-negated so the clausal structure survives.
func (phi *Formula) flattenAtomic(nots int, f *term.Factory) *Formula {
	addDoubleNeg := nots%2 == 1 && phi.c.IsUnit()
	c := phi.c
	if addDoubleNeg {
		c = clause.Unit(c.Head().Flip())
	}

	var queue []clause.Literal
	queued := make(map[clause.Literal]bool)
	push := func(a clause.Literal) {
		if !queued[a] {
			queued[a] = true
			queue = append(queue, a)
		}
	}
	for _, a := range c.Literals() {
		push(a)
	}

	termToVar := make(map[term.Term]term.Term)
	for _, a := range queue {
		if !a.Pos() && a.Lhs().Function() && a.Rhs().Variable() {
			termToVar[a.Lhs()] = a.Rhs()
		}
	}

	varFor := func(t term.Term) (term.Term, bool) {
		if x, ok := termToVar[t]; ok {
			return x, false
		}
		x := f.NewVariable(t.Sort())
		termToVar[t] = x
		return x, true
	}
	replacing := func(old, new term.Term) func(term.Term) (term.Term, bool) {
		return func(t term.Term) (term.Term, bool) {
			if t == old {
				return new, true
			}
			return term.Term{}, false
		}
	}

	var lits []clause.Literal
	var vars []term.Term
	for len(queue) > 0 {
		a := queue[0]
		queue = queue[1:]
		delete(queued, a)
		allPos := true
		for _, b := range queue {
			if !b.Pos() {
				allPos = false
				break
			}
		}
		switch {
		case a.QuasiPrimitive() || a.FunctionFree():
			lits = append(lits, a)
		case a.Rhs().Function() && (!a.Pos() || allPos):
			oldT := a.Rhs()
			if a.Lhs().Arity() < a.Rhs().Arity() {
				oldT = a.Lhs()
			}
			newT, fresh := varFor(oldT)
			if fresh {
				vars = append(vars, newT)
			}
			push(a.Substitute(f, replacing(oldT, newT)))
			push(clause.Neq(newT, oldT))
		default:
			found := false
			for _, arg := range a.Lhs().Args() {
				if arg.Function() {
					newT, fresh := varFor(arg)
					if fresh {
						vars = append(vars, newT)
					}
					push(a.Substitute(f, replacing(arg, newT)))
					push(clause.Neq(newT, arg))
					found = true
					break
				}
			}
			if !found {
				lits = append(lits, a)
			}
		}
	}

	if len(vars) == 0 {
		return phi.Clone()
	}
	res := Not(Atomic(clause.New(lits...)))
	for i := len(vars) - 1; i >= 0; i-- {
		res = Exists(vars[i], res)
	}
	if !addDoubleNeg {
		res = Not(res)
	}
	return res
}

// AsUnivClause interprets the formula as a universally quantified objective
// clause, if it has that shape after normalization.
func (phi *Formula) AsUnivClause() (clause.Clause, bool) {
	return phi.asUnivClause(0)
}

func (phi *Formula) asUnivClause(nots int) (clause.Clause, bool) {
	switch phi.kind {
	case KindAtomic:
		if nots%2 != 0 || !phi.c.QuasiPrimitive() {
			return clause.Clause{}, false
		}
		return phi.c, true
	case KindNot:
		return phi.l.asUnivClause(nots + 1)
	case KindOr:
		if nots%2 != 0 {
			return clause.Clause{}, false
		}
		c1, ok1 := phi.l.asUnivClause(nots)
		if !ok1 {
			return clause.Clause{}, false
		}
		c2, ok2 := phi.r.asUnivClause(nots)
		if !ok2 {
			return clause.Clause{}, false
		}
		lits := make([]clause.Literal, 0, c1.Size()+c2.Size())
		lits = append(lits, c1.Literals()...)
		lits = append(lits, c2.Literals()...)
		return clause.New(lits...), true
	case KindExists:
		if nots%2 == 0 {
			return clause.Clause{}, false
		}
		return phi.l.asUnivClause(nots)
	}
	return clause.Clause{}, false
}

func (phi *Formula) String() string {
	var b strings.Builder
	phi.write(&b)
	return b.String()
}

func (phi *Formula) write(b *strings.Builder) {
	switch phi.kind {
	case KindAtomic:
		b.WriteString(phi.c.String())
	case KindNot:
		b.WriteString("!")
		phi.l.write(b)
	case KindOr:
		b.WriteString("(")
		phi.l.write(b)
		b.WriteString(" || ")
		phi.r.write(b)
		b.WriteString(")")
	case KindExists:
		b.WriteString("Ex ")
		b.WriteString(phi.x.String())
		b.WriteString(". ")
		phi.l.write(b)
	case KindKnow:
		b.WriteString("Know<")
		b.WriteString(strconv.Itoa(phi.k))
		b.WriteString("> ")
		phi.l.write(b)
	case KindCons:
		b.WriteString("Cons<")
		b.WriteString(strconv.Itoa(phi.k))
		b.WriteString("> ")
		phi.l.write(b)
	case KindBel:
		b.WriteString("Bel<")
		b.WriteString(strconv.Itoa(phi.k))
		b.WriteString(",")
		b.WriteString(strconv.Itoa(phi.lv))
		b.WriteString("> (")
		phi.ante.write(b)
		b.WriteString(" => ")
		phi.cons.write(b)
		b.WriteString(")")
	case KindGuarantee:
		b.WriteString("G ")
		phi.l.write(b)
	}
}
