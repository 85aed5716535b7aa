// Package setup provides the clause store the solver queries.
//
// A Setup is a collection of primitive clauses closed under unit propagation
// and minimized under subsumption. It is populated with AddClause, queried
// with Subsumes, Consistent, and LocallyConsistent, and forked with
// ShallowCopy for case splits. Consistent and Subsumes are sound but
// incomplete, which is the intended discipline: an inconclusive answer
// counts as "no".
//
// A shallow copy records the store's sizes and rolls every mutation back on
// Close. While a copy is live the parent accepts no AddClause, and copies
// chain as a stack: only the newest may mutate or close. Propagation under a
// copy is append-only — shrunk clauses are added next to their originals
// rather than replacing them — so a rollback is a truncation.
package setup

import (
	"github.com/cognicore/doxa/pkg/doxa/clause"
	"github.com/cognicore/doxa/pkg/doxa/term"
)

// AddResult reports how a unit was received by a shallow copy.
type AddResult int

const (
	// UnitAdded means the unit was new and has been propagated.
	UnitAdded AddResult = iota
	// UnitSubsumed means an equal or stronger unit was already present.
	UnitSubsumed
	// UnitConflict means the unit is invalid or contradicts a present
	// unit; the setup now contains the empty clause.
	UnitConflict
)

// Setup is the clause store. The zero value is not ready; use New.
type Setup struct {
	empty   bool
	clauses []clause.Clause
	del     []bool
	units   []clause.Literal
	depth   int

	scratch []clause.Clause
}

// New creates an empty setup.
func New() *Setup {
	return &Setup{}
}

// EmptyClause reports whether falsum has been derived.
func (s *Setup) EmptyClause() bool { return s.empty }

// AddClause inserts c, unit-propagates it against the present units, and
// re-minimizes the store. It must not be called once the setup has a live
// shallow copy.
func (s *Setup) AddClause(c clause.Clause) {
	if s.depth != 0 {
		panic("setup: AddClause on a shallow-copied setup")
	}
	s.scratch = append(s.scratch, c)
	s.process()
}

func (s *Setup) process() {
	for len(s.scratch) > 0 {
		c := s.scratch[len(s.scratch)-1]
		s.scratch = s.scratch[:len(s.scratch)-1]
		if s.Subsumes(c) {
			continue
		}
		for _, u := range s.units {
			c, _ = c.PropagateUnit(u)
		}
		if c.Empty() {
			s.empty = true
			continue
		}
		if c.IsUnit() {
			s.addUnit(c.Head())
			continue
		}
		s.clauses = append(s.clauses, c)
		s.del = append(s.del, false)
		s.removeSubsumed(len(s.clauses) - 1)
	}
}

func (s *Setup) addUnit(a clause.Literal) {
	if a.Valid() {
		return
	}
	for _, u := range s.units {
		if clause.Subsumes(u, a) {
			return
		}
	}
	for _, u := range s.units {
		if clause.Complementary(u, a) {
			s.empty = true
			return
		}
	}
	s.units = append(s.units, a)
	for j := range s.clauses {
		if s.del[j] {
			continue
		}
		c := s.clauses[j]
		if c.SatisfiedBy(a) {
			s.del[j] = true
			continue
		}
		if d, changed := c.PropagateUnit(a); changed {
			s.del[j] = true
			s.scratch = append(s.scratch, d)
		}
	}
}

func (s *Setup) removeSubsumed(i int) {
	c := s.clauses[i]
	for j := range s.clauses {
		if j != i && !s.del[j] && c.Subsumes(s.clauses[j]) {
			s.del[j] = true
		}
	}
}

// Subsumes reports whether the setup entails the clause d: the empty clause
// is present, d is valid, or some unit or stored clause subsumes d.
func (s *Setup) Subsumes(d clause.Clause) bool {
	if s.empty || d.Valid() {
		return true
	}
	for _, u := range s.units {
		if d.SatisfiedBy(u) {
			return true
		}
	}
	for i, c := range s.clauses {
		if !s.del[i] && c.Subsumes(d) {
			return true
		}
	}
	return false
}

// residue propagates the current units through c. The boolean reports
// whether the clause is already satisfied by a unit and carries no
// information.
func (s *Setup) residue(c clause.Clause) (clause.Clause, bool) {
	if c.Valid() {
		return c, true
	}
	for _, u := range s.units {
		if c.SatisfiedBy(u) {
			return c, true
		}
		c, _ = c.PropagateUnit(u)
	}
	return c, false
}

// Consistent runs the per-lhs bucket check over the whole setup.
func (s *Setup) Consistent() bool {
	return s.ConsistentWith(nil)
}

// ConsistentWith runs the bucket check over the setup joined with the extra
// clauses: for every left-hand side, the literals of the unit set and of
// the unsatisfied clause residues mentioning it must be pairwise
// compatible. Sound but incomplete.
func (s *Setup) ConsistentWith(extra []clause.Clause) bool {
	if s.empty {
		return false
	}
	buckets := make(map[term.Term][]clause.Literal)
	add := func(c clause.Clause) bool {
		res, sat := s.residue(c)
		if sat {
			return true
		}
		if res.Empty() {
			return false
		}
		for _, a := range res.Literals() {
			buckets[a.Lhs()] = append(buckets[a.Lhs()], a)
		}
		return true
	}
	for i, c := range s.clauses {
		if !s.del[i] && !add(c) {
			return false
		}
	}
	for _, c := range extra {
		if !add(c) {
			return false
		}
	}
	for _, u := range s.units {
		buckets[u.Lhs()] = append(buckets[u.Lhs()], u)
	}
	for _, lits := range buckets {
		for i := 0; i < len(lits); i++ {
			for j := i + 1; j < len(lits); j++ {
				if clause.Complementary(lits[i], lits[j]) {
					return false
				}
			}
		}
	}
	return true
}

// LocallyConsistent restricts the bucket check to the literal's own
// left-hand side, with a itself included in the bucket.
func (s *Setup) LocallyConsistent(a clause.Literal) bool {
	if s.empty || a.Invalid() {
		return false
	}
	if a.Valid() {
		return true
	}
	lits := []clause.Literal{a}
	for i, c := range s.clauses {
		if s.del[i] {
			continue
		}
		res, sat := s.residue(c)
		if sat {
			continue
		}
		for _, b := range res.Literals() {
			if b.Lhs() == a.Lhs() {
				lits = append(lits, b)
			}
		}
	}
	for _, u := range s.units {
		if u.Lhs() == a.Lhs() {
			lits = append(lits, u)
		}
	}
	for i := 0; i < len(lits); i++ {
		for j := i + 1; j < len(lits); j++ {
			if clause.Complementary(lits[i], lits[j]) {
				return false
			}
		}
	}
	return true
}

// Determines reports whether a unit fixes the value of the primitive term t.
func (s *Setup) Determines(t term.Term) bool {
	for _, u := range s.units {
		if u.Pos() && u.Lhs() == t {
			return true
		}
	}
	return false
}

// Units returns the unit literals. Do not modify.
func (s *Setup) Units() []clause.Literal { return s.units }

// Clauses returns the enabled non-unit clauses.
func (s *Setup) Clauses() []clause.Clause {
	var out []clause.Clause
	for i, c := range s.clauses {
		if !s.del[i] {
			out = append(out, c)
		}
	}
	return out
}

// PrimitiveTerms returns the function-headed left-hand sides mentioned by
// the units and the enabled clauses, deduplicated, in the fixed term order.
func (s *Setup) PrimitiveTerms() []term.Term {
	seen := make(map[term.Term]struct{})
	var ts []term.Term
	note := func(t term.Term) {
		if t.Function() {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				ts = append(ts, t)
			}
		}
	}
	for _, u := range s.units {
		note(u.Lhs())
	}
	for i, c := range s.clauses {
		if s.del[i] {
			continue
		}
		for _, a := range c.Literals() {
			note(a.Lhs())
		}
	}
	term.SortTerms(ts)
	return ts
}

// ShallowCopy is a reversible fork of a setup. It accepts units only; Close
// restores the parent to its pre-fork state.
type ShallowCopy struct {
	s        *Setup
	depth    int
	nUnits   int
	nClauses int
	empty    bool
	closed   bool
}

// ShallowCopy forks the setup. Forks nest as a stack: while a newer fork is
// live, this one must not be mutated or closed.
func (s *Setup) ShallowCopy() *ShallowCopy {
	s.depth++
	return &ShallowCopy{
		s:        s,
		depth:    s.depth,
		nUnits:   len(s.units),
		nClauses: len(s.clauses),
		empty:    s.empty,
	}
}

func (sc *ShallowCopy) assertLive() {
	if sc.closed {
		panic("setup: use of closed shallow copy")
	}
	if sc.depth != sc.s.depth {
		panic("setup: shallow copies must be used in stack order")
	}
}

// Setup returns the forked view for queries.
func (sc *ShallowCopy) Setup() *Setup { return sc.s }

// Close rolls the parent back to its pre-fork state.
func (sc *ShallowCopy) Close() {
	sc.assertLive()
	s := sc.s
	s.units = s.units[:sc.nUnits]
	s.clauses = s.clauses[:sc.nClauses]
	s.del = s.del[:sc.nClauses]
	s.empty = sc.empty
	s.depth--
	sc.closed = true
}

// AddUnit inserts the unit a and propagates it. Under a fork, propagation
// appends shrunk clauses instead of disabling their originals, so that
// Close can roll back by truncation.
func (sc *ShallowCopy) AddUnit(a clause.Literal) AddResult {
	sc.assertLive()
	s := sc.s
	if a.Valid() {
		return UnitSubsumed
	}
	if a.Invalid() {
		s.empty = true
		return UnitConflict
	}
	for _, u := range s.units {
		if clause.Subsumes(u, a) {
			return UnitSubsumed
		}
	}
	for _, u := range s.units {
		if clause.Complementary(u, a) {
			s.empty = true
			return UnitConflict
		}
	}
	s.units = append(s.units, a)
	queue := []clause.Literal{a}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for i := 0; i < len(s.clauses); i++ {
			if s.del[i] {
				continue
			}
			c := s.clauses[i]
			if c.SatisfiedBy(u) {
				continue
			}
			d, changed := c.PropagateUnit(u)
			if !changed {
				continue
			}
			if d.Empty() {
				s.empty = true
				return UnitAdded
			}
			if d.IsUnit() {
				b := d.Head()
				if known := func() bool {
					for _, u2 := range s.units {
						if clause.Subsumes(u2, b) {
							return true
						}
					}
					return false
				}(); known {
					continue
				}
				for _, u2 := range s.units {
					if clause.Complementary(u2, b) {
						s.empty = true
						return UnitAdded
					}
				}
				s.units = append(s.units, b)
				queue = append(queue, b)
				continue
			}
			s.clauses = append(s.clauses, d)
			s.del = append(s.del, false)
		}
	}
	return UnitAdded
}
