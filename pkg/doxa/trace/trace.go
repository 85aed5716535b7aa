// Package trace defines the reasoner's log callback: a sink that observes
// registrations, axiom additions, and query verdicts. Sinks never alter
// control flow; a failing sink is the sink's problem, not the reasoner's.
package trace

import (
	"sync"
	"time"
)

// Event kinds.
const (
	KindRegisterSort     = "register_sort"
	KindRegisterName     = "register_name"
	KindRegisterVariable = "register_variable"
	KindRegisterFunction = "register_function"
	KindRegisterFormula  = "register_formula"
	KindRegisterMetaVar  = "register_meta_variable"
	KindUnregisterMeta   = "unregister_meta_variable"
	KindAddToKB          = "kb_add"
	KindQuery            = "query"
)

// Event is one observation. Accepted is meaningful for kb_add, Verdict and
// Duration for query.
type Event struct {
	Time     time.Time
	Kind     string
	ID       string
	Detail   string
	Accepted bool
	Verdict  bool
	Duration time.Duration
}

// Sink receives events.
type Sink interface {
	Record(e Event)
}

// Nop is the default sink; it drops everything.
type Nop struct{}

// Record implements Sink.
func (Nop) Record(Event) {}

// Mem is an in-memory sink for tests.
type Mem struct {
	mu     sync.Mutex
	events []Event
}

// NewMem creates an empty in-memory sink.
func NewMem() *Mem { return &Mem{} }

// Record implements Sink.
func (m *Mem) Record(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

// Events returns a copy of the recorded events.
func (m *Mem) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}
