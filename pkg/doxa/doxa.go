// Package doxa is a reasoner for a decidable fragment of first-order
// epistemic logic with equality, limited belief, and conditional belief.
//
// A Context is the main facade: it interns sorts, names, variables, and
// functions under string identifiers, builds terms and formulas, stores
// axioms in a knowledge base, and decides queries. Answers are sound but
// incomplete by design: completeness is traded for decidability via the
// bounded case-split level carried by the modal operators.
package doxa

import (
	"fmt"
	"time"

	"github.com/cognicore/doxa/pkg/doxa/clause"
	"github.com/cognicore/doxa/pkg/doxa/formula"
	"github.com/cognicore/doxa/pkg/doxa/internalerr"
	"github.com/cognicore/doxa/pkg/doxa/solver"
	"github.com/cognicore/doxa/pkg/doxa/term"
	"github.com/cognicore/doxa/pkg/doxa/trace"
)

// Options configures a Context.
type Options struct {
	// Trace receives registration, axiom, and query events. Defaults to
	// trace.Nop.
	Trace trace.Sink
	// Distribute toggles modal distribution at normalization. Defaults to
	// true.
	Distribute *bool
}

// Context owns the symbol registries and the knowledge base.
type Context struct {
	f          *term.Factory
	kb         *solver.KnowledgeBase
	sorts      map[string]term.Sort
	names      map[string]term.Term
	vars       map[string]term.Term
	funs       map[string]term.Symbol
	metaVars   map[string]term.Term
	formulas   map[string]*formula.Formula
	distribute bool
	sink       trace.Sink
}

// New creates a Context with its own factory and empty knowledge base.
func New(opts Options) *Context {
	sink := opts.Trace
	if sink == nil {
		sink = trace.Nop{}
	}
	distribute := true
	if opts.Distribute != nil {
		distribute = *opts.Distribute
	}
	f := term.NewFactory()
	return &Context{
		f:          f,
		kb:         solver.NewKnowledgeBase(f),
		sorts:      make(map[string]term.Sort),
		names:      make(map[string]term.Term),
		vars:       make(map[string]term.Term),
		funs:       make(map[string]term.Symbol),
		metaVars:   make(map[string]term.Term),
		formulas:   make(map[string]*formula.Formula),
		distribute: distribute,
		sink:       sink,
	}
}

// Factory returns the term factory shared by everything in this context.
func (c *Context) Factory() *term.Factory { return c.f }

// KB returns the knowledge base.
func (c *Context) KB() *solver.KnowledgeBase { return c.kb }

// SetDistribute toggles modal distribution at normalization.
func (c *Context) SetDistribute(b bool) { c.distribute = b }

// Distribute reports whether modal distribution is enabled.
func (c *Context) Distribute() bool { return c.distribute }

func (c *Context) record(kind, id, detail string) {
	c.sink.Record(trace.Event{Time: time.Now(), Kind: kind, ID: id, Detail: detail})
}

// RegisterSort registers a fresh sort under id.
func (c *Context) RegisterSort(id string) error {
	if _, ok := c.sorts[id]; ok {
		return fmt.Errorf("sort %q: %w", id, internalerr.ErrDuplicateID)
	}
	c.sorts[id] = c.f.NewSort()
	c.record(trace.KindRegisterSort, id, "")
	return nil
}

// RegisterName registers a fresh name of the given sort under id.
func (c *Context) RegisterName(id, sortID string) error {
	if c.IsRegisteredTerm(id) {
		return fmt.Errorf("name %q: %w", id, internalerr.ErrDuplicateID)
	}
	s, ok := c.sorts[sortID]
	if !ok {
		return fmt.Errorf("sort %q: %w", sortID, internalerr.ErrUnknownID)
	}
	c.names[id] = c.f.NewName(s)
	c.record(trace.KindRegisterName, id, sortID)
	return nil
}

// RegisterVariable registers a fresh variable of the given sort under id.
func (c *Context) RegisterVariable(id, sortID string) error {
	if c.IsRegisteredTerm(id) {
		return fmt.Errorf("variable %q: %w", id, internalerr.ErrDuplicateID)
	}
	s, ok := c.sorts[sortID]
	if !ok {
		return fmt.Errorf("sort %q: %w", sortID, internalerr.ErrUnknownID)
	}
	c.vars[id] = c.f.NewVariable(s)
	c.record(trace.KindRegisterVariable, id, sortID)
	return nil
}

// RegisterFunction registers a fresh function symbol under id.
func (c *Context) RegisterFunction(id string, arity int, sortID string) error {
	if c.IsRegisteredTerm(id) {
		return fmt.Errorf("function %q: %w", id, internalerr.ErrDuplicateID)
	}
	s, ok := c.sorts[sortID]
	if !ok {
		return fmt.Errorf("sort %q: %w", sortID, internalerr.ErrUnknownID)
	}
	sym, err := c.f.NewFunction(s, arity)
	if err != nil {
		return fmt.Errorf("function %q: %w", id, err)
	}
	c.funs[id] = sym
	c.record(trace.KindRegisterFunction, id, fmt.Sprintf("%s/%d", sortID, arity))
	return nil
}

// RegisterFormula binds a formula to id. Rebinding is allowed; Let
// directives overwrite.
func (c *Context) RegisterFormula(id string, phi *formula.Formula) {
	c.formulas[id] = phi.Clone()
	c.record(trace.KindRegisterFormula, id, phi.String())
}

// RegisterMetaVariable binds a term to id.
func (c *Context) RegisterMetaVariable(id string, t term.Term) error {
	if _, ok := c.metaVars[id]; ok {
		return fmt.Errorf("meta variable %q: %w", id, internalerr.ErrDuplicateID)
	}
	c.metaVars[id] = t
	c.record(trace.KindRegisterMetaVar, id, t.String())
	return nil
}

// UnregisterMetaVariable removes the binding of id.
func (c *Context) UnregisterMetaVariable(id string) error {
	if _, ok := c.metaVars[id]; !ok {
		return fmt.Errorf("meta variable %q: %w", id, internalerr.ErrUnknownID)
	}
	delete(c.metaVars, id)
	c.record(trace.KindUnregisterMeta, id, "")
	return nil
}

// IsRegisteredSort reports whether id names a sort.
func (c *Context) IsRegisteredSort(id string) bool { _, ok := c.sorts[id]; return ok }

// IsRegisteredName reports whether id names a name.
func (c *Context) IsRegisteredName(id string) bool { _, ok := c.names[id]; return ok }

// IsRegisteredVariable reports whether id names a variable.
func (c *Context) IsRegisteredVariable(id string) bool { _, ok := c.vars[id]; return ok }

// IsRegisteredFunction reports whether id names a function.
func (c *Context) IsRegisteredFunction(id string) bool { _, ok := c.funs[id]; return ok }

// IsRegisteredFormula reports whether id names a formula.
func (c *Context) IsRegisteredFormula(id string) bool { _, ok := c.formulas[id]; return ok }

// IsRegisteredMetaVariable reports whether id names a meta variable.
func (c *Context) IsRegisteredMetaVariable(id string) bool { _, ok := c.metaVars[id]; return ok }

// IsRegisteredTerm reports whether id names a name, variable, function, or
// meta variable.
func (c *Context) IsRegisteredTerm(id string) bool {
	return c.IsRegisteredName(id) || c.IsRegisteredVariable(id) ||
		c.IsRegisteredFunction(id) || c.IsRegisteredMetaVariable(id)
}

// LookupSort resolves a sort id.
func (c *Context) LookupSort(id string) (term.Sort, error) {
	s, ok := c.sorts[id]
	if !ok {
		return 0, fmt.Errorf("sort %q: %w", id, internalerr.ErrUnknownID)
	}
	return s, nil
}

// LookupFormula resolves a formula id.
func (c *Context) LookupFormula(id string) (*formula.Formula, error) {
	phi, ok := c.formulas[id]
	if !ok {
		return nil, fmt.Errorf("formula %q: %w", id, internalerr.ErrUnknownID)
	}
	return phi, nil
}

// LookupFunction resolves a function id.
func (c *Context) LookupFunction(id string) (term.Symbol, error) {
	sym, ok := c.funs[id]
	if !ok {
		return term.Symbol{}, fmt.Errorf("function %q: %w", id, internalerr.ErrUnknownID)
	}
	return sym, nil
}

// LookupTerm resolves a name, variable, or meta variable id.
func (c *Context) LookupTerm(id string) (term.Term, error) {
	if t, ok := c.names[id]; ok {
		return t, nil
	}
	if t, ok := c.vars[id]; ok {
		return t, nil
	}
	if t, ok := c.metaVars[id]; ok {
		return t, nil
	}
	return term.Term{}, fmt.Errorf("term %q: %w", id, internalerr.ErrUnknownID)
}

// Term builds the application of the function id to args.
func (c *Context) Term(funID string, args ...term.Term) (term.Term, error) {
	sym, err := c.LookupFunction(funID)
	if err != nil {
		return term.Term{}, err
	}
	t, err := c.f.NewTerm(sym, args...)
	if err != nil {
		return term.Term{}, fmt.Errorf("function %q: %w", funID, err)
	}
	return t, nil
}

// Eq builds the literal t1 == t2, rejecting ill-sorted pairs.
func (c *Context) Eq(t1, t2 term.Term) (clause.Literal, error) {
	if t1.Sort() != t2.Sort() {
		return clause.Literal{}, fmt.Errorf("equality between sorts %d and %d: %w",
			t1.Sort(), t2.Sort(), internalerr.ErrSortMismatch)
	}
	return clause.Eq(t1, t2), nil
}

// Neq builds the literal t1 != t2, rejecting ill-sorted pairs.
func (c *Context) Neq(t1, t2 term.Term) (clause.Literal, error) {
	if t1.Sort() != t2.Sort() {
		return clause.Literal{}, fmt.Errorf("inequality between sorts %d and %d: %w",
			t1.Sort(), t2.Sort(), internalerr.ErrSortMismatch)
	}
	return clause.Neq(t1, t2), nil
}

// Know builds Know<k> alpha, rejecting negative levels.
func (c *Context) Know(k int, alpha *formula.Formula) (*formula.Formula, error) {
	if k < 0 {
		return nil, fmt.Errorf("Know<%d>: %w", k, internalerr.ErrBadLevel)
	}
	return formula.Know(k, alpha), nil
}

// Cons builds Cons<k> alpha, rejecting negative levels.
func (c *Context) Cons(k int, alpha *formula.Formula) (*formula.Formula, error) {
	if k < 0 {
		return nil, fmt.Errorf("Cons<%d>: %w", k, internalerr.ErrBadLevel)
	}
	return formula.Cons(k, alpha), nil
}

// Bel builds Bel<k,l> (ante => conse), rejecting negative levels.
func (c *Context) Bel(k, l int, ante, conse *formula.Formula) (*formula.Formula, error) {
	if k < 0 || l < 0 {
		return nil, fmt.Errorf("Bel<%d,%d>: %w", k, l, internalerr.ErrBadLevel)
	}
	return formula.Bel(k, l, ante, conse), nil
}

// AddToKB normalizes alpha and stores it if acceptable. The result reports
// acceptance and is also delivered to the trace sink.
func (c *Context) AddToKB(alpha *formula.Formula) bool {
	ok := c.kb.Add(alpha)
	c.sink.Record(trace.Event{
		Time: time.Now(), Kind: trace.KindAddToKB,
		Detail: alpha.String(), Accepted: ok,
	})
	return ok
}

// Query decides alpha against the knowledge base. Queries never fail; an
// inconclusive answer is false.
func (c *Context) Query(alpha *formula.Formula) bool {
	start := time.Now()
	yes := c.kb.Entails(alpha, c.distribute)
	c.sink.Record(trace.Event{
		Time: time.Now(), Kind: trace.KindQuery,
		Detail: alpha.String(), Verdict: yes, Duration: time.Since(start),
	})
	return yes
}
