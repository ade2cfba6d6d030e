// Package store provides formula sources and execution sinks for engine.Scorer: in memory, and backed by
// JSON files.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nihei9/scoreformula/engine"
)

// Memory is a formula source and an execution sink in memory. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	sets    []*engine.FormulaSet
	results map[string]*engine.ExecutionResult
}

func NewMemory(sets ...*engine.FormulaSet) *Memory {
	return &Memory{
		sets:    sets,
		results: map[string]*engine.ExecutionResult{},
	}
}

func (m *Memory) Add(set *engine.FormulaSet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets = append(m.sets, set)
}

// Lookup returns the most specific formula set matching c. Among equally specific sets, the one added first
// wins.
func (m *Memory) Lookup(ctx context.Context, c engine.Criteria) (*engine.FormulaSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return selectFormulaSet(m.sets, c)
}

func selectFormulaSet(sets []*engine.FormulaSet, c engine.Criteria) (*engine.FormulaSet, error) {
	var best *engine.FormulaSet
	for _, set := range sets {
		if !set.Criteria.Matches(c) {
			continue
		}
		if best == nil || set.Criteria.Specificity() > best.Criteria.Specificity() {
			best = set
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrFormulaSetNotFound, c)
	}
	return best, nil
}

func (m *Memory) Save(ctx context.Context, id string, res *engine.ExecutionResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[id] = res
	return nil
}

func (m *Memory) Get(id string) (*engine.ExecutionResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.results[id]
	return res, ok
}

// IDs returns the ids of the saved executions in ascending order.
func (m *Memory) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.results))
	for id := range m.results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
