package grounder

import (
	"testing"

	"github.com/cognicore/doxa/pkg/doxa/clause"
	"github.com/cognicore/doxa/pkg/doxa/term"
)

func TestPoolsGrowFromClauses(t *testing.T) {
	f := term.NewFactory()
	s := f.NewSort()
	n1 := f.NewName(s)
	n2 := f.NewName(s)
	fun, _ := f.NewFunction(s, 1)
	fn1, _ := f.NewTerm(fun, n1)

	g := New(f)
	v0 := g.Version()
	g.AddClause(clause.New(clause.Eq(fn1, n2)))
	if g.Version() == v0 {
		t.Error("version should change when names are seen")
	}

	pool := g.Pool(s, 0)
	if len(pool) != 2 {
		t.Fatalf("pool = %v, want the two ordinary names", pool)
	}
	// Seeing the same clause again changes nothing.
	v1 := g.Version()
	g.AddClause(clause.New(clause.Eq(fn1, n2)))
	if g.Version() != v1 {
		t.Error("re-adding known names should not bump the version")
	}
}

func TestPlaceholderMinting(t *testing.T) {
	f := term.NewFactory()
	s := f.NewSort()
	g := New(f)

	g.EnsurePlaceholders(s, 2)
	if got := g.PlaceholderCount(s); got != 2 {
		t.Fatalf("PlaceholderCount = %d, want 2", got)
	}
	g.EnsurePlaceholders(s, 1)
	if got := g.PlaceholderCount(s); got != 2 {
		t.Error("EnsurePlaceholders should never shrink")
	}

	pool := g.Pool(s, 0)
	if len(pool) != 2 {
		t.Fatalf("pool should contain the placeholders, got %v", pool)
	}
	for _, n := range pool {
		if !n.Placeholder() {
			t.Errorf("%v should be a placeholder", n)
		}
	}
}

func TestSplitNames(t *testing.T) {
	f := term.NewFactory()
	s := f.NewSort()
	n := f.NewName(s)
	g := New(f)
	g.AddClause(clause.New(clause.Eq(n, n)))

	names := g.SplitNames(s, 1)
	ordinary, placeholders := 0, 0
	for _, t := range names {
		if t.Placeholder() {
			placeholders++
		} else {
			ordinary++
		}
	}
	if ordinary != 1 || placeholders != 2 {
		t.Errorf("SplitNames(1) = %d ordinary + %d placeholders, want 1 + 2", ordinary, placeholders)
	}
}

func TestGroundEnumeratesInstances(t *testing.T) {
	f := term.NewFactory()
	s := f.NewSort()
	n1 := f.NewName(s)
	n2 := f.NewName(s)
	x := f.NewVariable(s)
	fun, _ := f.NewFunction(s, 1)
	fxv, _ := f.NewTerm(fun, x)

	g := New(f)
	g.AddClause(clause.New(clause.Eq(n1, n1), clause.Eq(n2, n2)))

	c := clause.New(clause.Eq(fxv, n1))
	got := g.Ground(c)
	// Two ordinary names plus nvars+1 = 2 placeholders.
	if len(got) != 4 {
		t.Fatalf("Ground produced %d instances, want 4", len(got))
	}
	for _, gc := range got {
		if !gc.Ground() {
			t.Errorf("instance %v is not ground", gc)
		}
		if !gc.Primitive() {
			t.Errorf("instance %v is not primitive", gc)
		}
	}

	ground := clause.New(clause.Eq(mustTerm(f, fun, n1), n2))
	if insts := g.Ground(ground); len(insts) != 1 || !insts[0].Equal(ground) {
		t.Error("a ground clause should ground to itself")
	}
}

func mustTerm(f *term.Factory, sym term.Symbol, args ...term.Term) term.Term {
	t, err := f.NewTerm(sym, args...)
	if err != nil {
		panic(err)
	}
	return t
}
