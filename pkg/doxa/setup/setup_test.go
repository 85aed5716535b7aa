package setup

import (
	"testing"

	"github.com/cognicore/doxa/pkg/doxa/clause"
	"github.com/cognicore/doxa/pkg/doxa/term"
)

type fixture struct {
	f          *term.Factory
	sort       term.Sort
	n1, n2, n3 term.Term
	t1, t2, t3 term.Term // f(n1), f(n2), f(n3)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := term.NewFactory()
	s := f.NewSort()
	n1 := f.NewName(s)
	n2 := f.NewName(s)
	n3 := f.NewName(s)
	fun, err := f.NewFunction(s, 1)
	if err != nil {
		t.Fatalf("NewFunction: %v", err)
	}
	t1, _ := f.NewTerm(fun, n1)
	t2, _ := f.NewTerm(fun, n2)
	t3, _ := f.NewTerm(fun, n3)
	return &fixture{f: f, sort: s, n1: n1, n2: n2, n3: n3, t1: t1, t2: t2, t3: t3}
}

func TestUnitPropagationClosure(t *testing.T) {
	fx := newFixture(t)
	s := New()
	s.AddClause(clause.New(clause.Eq(fx.t1, fx.n1), clause.Eq(fx.t2, fx.n2)))
	s.AddClause(clause.New(clause.Eq(fx.t2, fx.n1), clause.Eq(fx.t3, fx.n3), clause.Eq(fx.t1, fx.n2)))
	s.AddClause(clause.Unit(clause.Eq(fx.t2, fx.n2)))

	if len(s.Clauses()) == 0 {
		t.Fatal("expected a surviving non-unit clause")
	}
	for _, c := range s.Clauses() {
		for _, u := range s.Units() {
			if _, changed := c.PropagateUnit(u); changed {
				t.Errorf("clause %v not closed under unit %v", c, u)
			}
			if c.SatisfiedBy(u) {
				t.Errorf("clause %v is satisfied by unit %v but still stored", c, u)
			}
		}
	}
}

func TestSubsumptionMinimality(t *testing.T) {
	fx := newFixture(t)
	s := New()
	s.AddClause(clause.New(clause.Eq(fx.t1, fx.n1), clause.Eq(fx.t2, fx.n2), clause.Eq(fx.t3, fx.n3)))
	s.AddClause(clause.New(clause.Eq(fx.t1, fx.n1), clause.Eq(fx.t2, fx.n2)))
	s.AddClause(clause.New(clause.Eq(fx.t1, fx.n2), clause.Eq(fx.t3, fx.n1)))

	cs := s.Clauses()
	for i, c := range cs {
		for j, d := range cs {
			if i != j && c.Subsumes(d) {
				t.Errorf("stored clause %v subsumes stored clause %v", c, d)
			}
		}
	}
	// The subsumed three-literal clause must be gone.
	if len(cs) != 2 {
		t.Errorf("expected 2 clauses after minimization, got %d", len(cs))
	}
}

func TestSubsumesQueries(t *testing.T) {
	fx := newFixture(t)
	s := New()
	c := clause.New(clause.Eq(fx.t1, fx.n1), clause.Eq(fx.t1, fx.n2))
	s.AddClause(c)
	s.AddClause(clause.Unit(clause.Eq(fx.t2, fx.n2)))

	if !s.Subsumes(c) {
		t.Error("setup should subsume a stored clause")
	}
	wider := clause.New(clause.Eq(fx.t1, fx.n1), clause.Eq(fx.t1, fx.n2), clause.Eq(fx.t3, fx.n1))
	if !s.Subsumes(wider) {
		t.Error("setup should subsume a weakening of a stored clause")
	}
	if !s.Subsumes(clause.Unit(clause.Neq(fx.t2, fx.n1))) {
		t.Error("unit t2 == n2 should subsume t2 != n1")
	}
	if s.Subsumes(clause.Unit(clause.Eq(fx.t1, fx.n1))) {
		t.Error("setup should not subsume an undetermined unit")
	}
	if !s.Subsumes(clause.Unit(clause.Eq(fx.n1, fx.n1))) {
		t.Error("setup should subsume a valid clause")
	}
}

func TestEmptyClauseExFalso(t *testing.T) {
	fx := newFixture(t)
	s := New()
	s.AddClause(clause.Unit(clause.Eq(fx.t1, fx.n1)))
	s.AddClause(clause.Unit(clause.Neq(fx.t1, fx.n1)))

	if !s.EmptyClause() {
		t.Fatal("contradictory units should derive the empty clause")
	}
	if !s.Subsumes(clause.Unit(clause.Eq(fx.t2, fx.n2))) {
		t.Error("inconsistent setup should subsume everything")
	}
	if s.Consistent() {
		t.Error("inconsistent setup should not be consistent")
	}
}

func TestConsistencyBuckets(t *testing.T) {
	fx := newFixture(t)
	s := New()
	s.AddClause(clause.Unit(clause.Eq(fx.t1, fx.n1)))
	s.AddClause(clause.Unit(clause.Eq(fx.t2, fx.n2)))
	if !s.Consistent() {
		t.Error("units on distinct terms should be consistent")
	}

	// An unresolved disjunction over one term trips the bucket check.
	s2 := New()
	s2.AddClause(clause.New(clause.Eq(fx.t1, fx.n1), clause.Eq(fx.t1, fx.n2)))
	if s2.Consistent() {
		t.Error("bucket check should reject complementary literals on one lhs")
	}
	if s2.ConsistentWith(nil) != s2.Consistent() {
		t.Error("ConsistentWith(nil) should agree with Consistent")
	}

	// Extras join the check.
	s3 := New()
	s3.AddClause(clause.Unit(clause.Eq(fx.t1, fx.n1)))
	if s3.ConsistentWith([]clause.Clause{clause.Unit(clause.Eq(fx.t1, fx.n2))}) {
		t.Error("extra clause contradicting a unit should be inconsistent")
	}
	if !s3.ConsistentWith([]clause.Clause{clause.Unit(clause.Eq(fx.t2, fx.n1))}) {
		t.Error("compatible extra clause should stay consistent")
	}
}

func TestLocallyConsistent(t *testing.T) {
	fx := newFixture(t)
	s := New()
	s.AddClause(clause.Unit(clause.Eq(fx.t1, fx.n1)))

	if !s.LocallyConsistent(clause.Eq(fx.t1, fx.n1)) {
		t.Error("agreeing literal should be locally consistent")
	}
	if s.LocallyConsistent(clause.Eq(fx.t1, fx.n2)) {
		t.Error("clashing literal should not be locally consistent")
	}
	if !s.LocallyConsistent(clause.Eq(fx.t2, fx.n2)) {
		t.Error("literal on an unconstrained term should be locally consistent")
	}
}

func snapshot(s *Setup) (bool, []clause.Literal, []clause.Clause) {
	units := append([]clause.Literal(nil), s.Units()...)
	clauses := append([]clause.Clause(nil), s.Clauses()...)
	return s.EmptyClause(), units, clauses
}

func TestShallowCopyTransparent(t *testing.T) {
	fx := newFixture(t)
	s := New()
	s.AddClause(clause.New(clause.Eq(fx.t1, fx.n1), clause.Eq(fx.t2, fx.n2)))
	s.AddClause(clause.New(clause.Eq(fx.t2, fx.n1), clause.Eq(fx.t3, fx.n3)))

	empty0, units0, clauses0 := snapshot(s)

	sc := s.ShallowCopy()
	if r := sc.AddUnit(clause.Eq(fx.t1, fx.n2)); r != UnitAdded {
		t.Fatalf("AddUnit = %v, want UnitAdded", r)
	}
	if r := sc.AddUnit(clause.Eq(fx.t1, fx.n2)); r != UnitSubsumed {
		t.Errorf("duplicate AddUnit = %v, want UnitSubsumed", r)
	}
	if r := sc.AddUnit(clause.Eq(fx.t1, fx.n3)); r != UnitConflict {
		t.Errorf("conflicting AddUnit = %v, want UnitConflict", r)
	}
	sc.Close()

	empty1, units1, clauses1 := snapshot(s)
	if empty0 != empty1 {
		t.Error("empty-clause flag not restored")
	}
	if len(units0) != len(units1) {
		t.Fatalf("units not restored: %d vs %d", len(units0), len(units1))
	}
	for i := range units0 {
		if units0[i] != units1[i] {
			t.Errorf("unit %d changed across fork", i)
		}
	}
	if len(clauses0) != len(clauses1) {
		t.Fatalf("clauses not restored: %d vs %d", len(clauses0), len(clauses1))
	}
	for i := range clauses0 {
		if !clauses0[i].Equal(clauses1[i]) {
			t.Errorf("clause %d changed across fork", i)
		}
	}
}

func TestShallowCopyPropagates(t *testing.T) {
	fx := newFixture(t)
	s := New()
	s.AddClause(clause.New(clause.Eq(fx.t1, fx.n1), clause.Eq(fx.t2, fx.n2)))

	sc := s.ShallowCopy()
	sc.AddUnit(clause.Eq(fx.t1, fx.n2))
	// t1 == n2 contradicts t1 == n1, so t2 == n2 must follow.
	if !s.Subsumes(clause.Unit(clause.Eq(fx.t2, fx.n2))) {
		t.Error("fork should derive the surviving unit")
	}
	if !s.Determines(fx.t1) || !s.Determines(fx.t2) {
		t.Error("fork units should determine their terms")
	}
	sc.Close()

	if s.Subsumes(clause.Unit(clause.Eq(fx.t2, fx.n2))) {
		t.Error("derivation should not survive the fork")
	}
}

func TestShallowCopyStacking(t *testing.T) {
	fx := newFixture(t)
	s := New()
	s.AddClause(clause.New(clause.Eq(fx.t1, fx.n1), clause.Eq(fx.t2, fx.n2)))

	sc1 := s.ShallowCopy()
	sc1.AddUnit(clause.Eq(fx.t3, fx.n1))
	sc2 := s.ShallowCopy()
	sc2.AddUnit(clause.Eq(fx.t1, fx.n2))

	defer func() {
		if recover() == nil {
			t.Error("out-of-order close should panic")
		}
		sc2.Close()
		sc1.Close()
		if len(s.Units()) != 0 {
			t.Error("units should be rolled back after both closes")
		}
	}()
	sc1.Close()
}

func TestAddClauseAfterCopyPanics(t *testing.T) {
	fx := newFixture(t)
	s := New()
	sc := s.ShallowCopy()
	defer func() {
		if recover() == nil {
			t.Error("AddClause under a live fork should panic")
		}
		sc.Close()
	}()
	s.AddClause(clause.Unit(clause.Eq(fx.t1, fx.n1)))
}
