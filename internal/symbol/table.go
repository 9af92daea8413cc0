package symbol

import (
	"fmt"
	"sync"
)

// Table deduplicates symbols and remembers insertion order.
type Table struct {
	mu    sync.RWMutex
	order []Symbol
	index map[string]Symbol
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]Symbol)}
}

// Push interns name, returning the existing symbol when already present.
func (t *Table) Push(name string) Symbol {
	s := Intern(name)
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.index[s.name]; ok {
		return existing
	}
	t.index[s.name] = s
	t.order = append(t.order, s)
	return s
}

// Lookup returns the symbol for name without inserting it.
func (t *Table) Lookup(name string) (Symbol, bool) {
	s := Intern(name)
	t.mu.RLock()
	defer t.mu.RUnlock()
	found, ok := t.index[s.name]
	return found, ok
}

// Len returns the number of distinct symbols.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}

// Snapshot returns the symbols in insertion order.
func (t *Table) Snapshot() []Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Symbol, len(t.order))
	copy(out, t.order)
	return out
}

// Generator hands out fresh symbols prefix0, prefix1, ...
type Generator struct {
	mu     sync.Mutex
	prefix string
	next   uint64
}

// NewGenerator creates a generator for prefix.
func NewGenerator(prefix string) *Generator {
	return &Generator{prefix: prefix}
}

// Next returns a symbol not returned before by this generator.
func (g *Generator) Next() Symbol {
	g.mu.Lock()
	n := g.next
	g.next++
	g.mu.Unlock()
	return Intern(fmt.Sprintf("%s%d", g.prefix, n))
}
