package operation

import (
	"fmt"
	"strings"
	"sync"
)

// ErrorFilter narrows an operation's error list for display.
type ErrorFilter struct {
	Field  string
	Search string
}

func (f ErrorFilter) matches(e ExecutionError) bool {
	if f.Field != "" && e.Field != f.Field {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(e.Message), needle) &&
			!strings.Contains(strings.ToLower(fmt.Sprintf("%v", e.Value)), needle) {
			return false
		}
	}
	return true
}

// ErrorCollector accumulates structured error records from both validation
// and execution phases. Append-only during a run; errors are never mutated,
// only filtered for display.
type ErrorCollector struct {
	mu   sync.RWMutex
	errs map[string][]ExecutionError
}

func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{errs: make(map[string][]ExecutionError)}
}

func (c *ErrorCollector) Record(operationID string, e ExecutionError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs[operationID] = append(c.errs[operationID], e)
}

// List returns the errors matching the filter, in recording order.
func (c *ErrorCollector) List(operationID string, f ErrorFilter) []ExecutionError {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []ExecutionError{}
	for _, e := range c.errs[operationID] {
		if f.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// Clear drops an operation's accumulated errors (retry and delete paths).
func (c *ErrorCollector) Clear(operationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.errs, operationID)
}
