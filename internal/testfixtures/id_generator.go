package testfixtures

import (
	"fmt"
	"sync"
)

// IDGenerator hands out "prefix-1", "prefix-2", and so on, keeping session
// and block ids in assertions stable.
type IDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      uint64
}

// NewIDGenerator builds a generator for the given prefix. An empty prefix
// falls back to "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// NextFunc adapts the generator to the id function the orchestrator takes.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Reset rewinds the sequence so the next identifier ends in 1 again.
func (g *IDGenerator) Reset() {
	g.mu.Lock()
	g.n = 0
	g.mu.Unlock()
}
