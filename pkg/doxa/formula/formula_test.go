package formula

import (
	"testing"

	"github.com/cognicore/doxa/pkg/doxa/clause"
	"github.com/cognicore/doxa/pkg/doxa/term"
)

type fixture struct {
	f        *term.Factory
	sort     term.Sort
	n1, n2   term.Term
	x, y     term.Term
	fun, gun term.Symbol
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := term.NewFactory()
	s := f.NewSort()
	fx := &fixture{f: f, sort: s}
	fx.n1 = f.NewName(s)
	fx.n2 = f.NewName(s)
	fx.x = f.NewVariable(s)
	fx.y = f.NewVariable(s)
	var err error
	fx.fun, err = f.NewFunction(s, 1)
	if err != nil {
		t.Fatalf("NewFunction: %v", err)
	}
	fx.gun, err = f.NewFunction(s, 1)
	if err != nil {
		t.Fatalf("NewFunction: %v", err)
	}
	return fx
}

func (fx *fixture) apply(t *testing.T, sym term.Symbol, arg term.Term) term.Term {
	t.Helper()
	tt, err := fx.f.NewTerm(sym, arg)
	if err != nil {
		t.Fatalf("NewTerm: %v", err)
	}
	return tt
}

// alphaEqual compares formulas up to renaming of bound variables.
func alphaEqual(a, b *Formula) bool {
	return alphaEq(a, b, make(map[term.Term]term.Term))
}

func alphaEq(a, b *Formula, m map[term.Term]term.Term) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindAtomic:
		return clauseAlphaEq(a.Clause(), b.Clause(), m)
	case KindNot, KindGuarantee:
		return alphaEq(a.Arg(), b.Arg(), m)
	case KindOr:
		return alphaEq(a.Left(), b.Left(), m) && alphaEq(a.Right(), b.Right(), m)
	case KindExists:
		prev, had := m[a.Var()]
		m[a.Var()] = b.Var()
		ok := alphaEq(a.Arg(), b.Arg(), m)
		if had {
			m[a.Var()] = prev
		} else {
			delete(m, a.Var())
		}
		return ok
	case KindKnow, KindCons:
		return a.K() == b.K() && alphaEq(a.Arg(), b.Arg(), m)
	case KindBel:
		return a.K() == b.K() && a.L() == b.L() &&
			alphaEq(a.Antecedent(), b.Antecedent(), m) &&
			alphaEq(a.Material(), b.Material(), m)
	}
	return false
}

func clauseAlphaEq(c, d clause.Clause, m map[term.Term]term.Term) bool {
	if c.Size() != d.Size() {
		return false
	}
	used := make([]bool, d.Size())
	for _, a := range c.Literals() {
		found := false
		for i, b := range d.Literals() {
			if !used[i] && litAlphaEq(a, b, m) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func litAlphaEq(a, b clause.Literal, m map[term.Term]term.Term) bool {
	if a.Pos() != b.Pos() {
		return false
	}
	return (termAlphaEq(a.Lhs(), b.Lhs(), m) && termAlphaEq(a.Rhs(), b.Rhs(), m)) ||
		(termAlphaEq(a.Lhs(), b.Rhs(), m) && termAlphaEq(a.Rhs(), b.Lhs(), m))
}

func termAlphaEq(t, u term.Term, m map[term.Term]term.Term) bool {
	if t.Variable() {
		if v, ok := m[t]; ok {
			return v == u
		}
		return t == u
	}
	if t.Function() {
		if !u.Function() || t.Symbol() != u.Symbol() {
			return false
		}
		for i := range t.Args() {
			if !termAlphaEq(t.Args()[i], u.Args()[i], m) {
				return false
			}
		}
		return true
	}
	return t == u
}

func TestCloneIsDeep(t *testing.T) {
	fx := newFixture(t)
	fn := fx.apply(t, fx.fun, fx.n1)
	phi := Exists(fx.x, Atomic(clause.Unit(clause.Eq(fn, fx.x))))
	cp := phi.Clone()
	if !phi.Equal(cp) {
		t.Fatal("clone should be equal")
	}
	cp.SubstituteFree(fx.f, func(tt term.Term) (term.Term, bool) {
		return term.Term{}, false
	})
	if !phi.Equal(cp) {
		t.Fatal("identity substitution changed the clone")
	}
}

func TestFreeVars(t *testing.T) {
	fx := newFixture(t)
	fxv := fx.apply(t, fx.fun, fx.x)
	inner := Atomic(clause.New(clause.Eq(fxv, fx.y)))
	phi := Exists(fx.x, inner)

	fv := phi.FreeVars()
	if _, ok := fv[fx.y]; !ok {
		t.Error("y should be free")
	}
	if _, ok := fv[fx.x]; ok {
		t.Error("x should be bound")
	}
}

func TestObjectiveSubjective(t *testing.T) {
	fx := newFixture(t)
	fn := fx.apply(t, fx.fun, fx.n1)
	obj := Atomic(clause.Unit(clause.Eq(fn, fx.n1)))
	pure := Atomic(clause.Unit(clause.Eq(fx.n1, fx.n2)))

	if !obj.Objective() || obj.Subjective() {
		t.Error("function atom should be objective and not subjective")
	}
	if !Know(0, obj.Clone()).Subjective() {
		t.Error("Know should be subjective")
	}
	if Know(0, obj.Clone()).Objective() {
		t.Error("Know should not be objective")
	}
	if !Or(pure.Clone(), Know(1, obj.Clone())).Subjective() {
		t.Error("pure equality beside a modal operator should be subjective")
	}
}

func TestTriviallyValidInvalid(t *testing.T) {
	fx := newFixture(t)
	valid := Atomic(clause.Unit(clause.Eq(fx.n1, fx.n1)))
	invalid := Atomic(clause.New(clause.Eq(fx.n1, fx.n2)))

	if !valid.TriviallyValid() || valid.TriviallyInvalid() {
		t.Error("n == n should be trivially valid")
	}
	if !invalid.TriviallyInvalid() || invalid.TriviallyValid() {
		t.Error("n1 == n2 should be trivially invalid")
	}
	if !Not(invalid.Clone()).TriviallyValid() {
		t.Error("negation of invalid should be trivially valid")
	}
	if !Know(2, valid.Clone()).TriviallyValid() {
		t.Error("Know of valid should be trivially valid")
	}
	if Cons(0, valid.Clone()).TriviallyValid() {
		t.Error("Cons is never trivially valid")
	}
}

func TestRectifyMakesBindersDistinct(t *testing.T) {
	fx := newFixture(t)
	fxv := fx.apply(t, fx.fun, fx.x)
	// Ex x (f(x) == x) || Ex x (f(x) == n1), both binding x.
	phi := Or(
		Exists(fx.x, Atomic(clause.Unit(clause.Eq(fxv, fx.x)))),
		Exists(fx.x, Atomic(clause.Unit(clause.Eq(fxv, fx.n1)))),
	)
	phi.rectify(fx.f)

	x1 := phi.Left().Var()
	x2 := phi.Right().Var()
	if x1 == x2 {
		t.Fatal("binders should be pairwise distinct after rectification")
	}
	lit1 := phi.Left().Arg().Clause().Head()
	if lit1.Lhs().Args()[0] != x1 || lit1.Rhs() != x1 {
		t.Error("left body should use the left binder")
	}
	lit2 := phi.Right().Arg().Clause().Head()
	if lit2.Lhs().Args()[0] != x2 {
		t.Error("right body should use the right binder")
	}
}

func TestAsUnivClause(t *testing.T) {
	fx := newFixture(t)
	fxv := fx.apply(t, fx.fun, fx.x)
	c := clause.New(clause.Neq(fxv, fx.n1), clause.Eq(fxv, fx.n2))

	// Fa x c(x) encoded as !Ex x !c(x).
	univ := Not(Exists(fx.x, Not(Atomic(c))))
	got, ok := univ.AsUnivClause()
	if !ok {
		t.Fatal("universal clause shape not recognized")
	}
	if !got.Equal(c) {
		t.Errorf("AsUnivClause = %v, want %v", got, c)
	}

	if _, ok := Exists(fx.x, Atomic(c)).AsUnivClause(); ok {
		t.Error("bare existential should not be a universal clause")
	}
	if _, ok := Know(0, Atomic(c)).AsUnivClause(); ok {
		t.Error("modal formula should not be a universal clause")
	}
}
