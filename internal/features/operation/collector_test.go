package operation

import (
	"sync"
	"testing"
)

func TestCollectorRecordAndFilter(t *testing.T) {
	c := NewErrorCollector()
	opID := "op1"

	c.Record(opID, ExecutionError{Row: 2, Field: "email", Message: "Email must be a valid email address", Value: "nope", Phase: PhaseValidation})
	c.Record(opID, ExecutionError{Row: 5, Field: "hours", Message: "Hours violates constraint", Value: 25.0, Phase: PhaseValidation})
	c.Record(opID, ExecutionError{Row: 7, Message: "record already exists", Phase: PhaseExecution})

	tests := []struct {
		name   string
		filter ErrorFilter
		want   int
	}{
		{"no filter", ErrorFilter{}, 3},
		{"by field", ErrorFilter{Field: "email"}, 1},
		{"by search over message", ErrorFilter{Search: "EXISTS"}, 1},
		{"by search over value", ErrorFilter{Search: "nope"}, 1},
		{"field and search both must match", ErrorFilter{Field: "hours", Search: "email"}, 0},
		{"no match", ErrorFilter{Search: "zzz"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.List(opID, tt.filter)
			if len(got) != tt.want {
				t.Errorf("List returned %d errors, want %d", len(got), tt.want)
			}
		})
	}
}

func TestCollectorPreservesRecordingOrder(t *testing.T) {
	c := NewErrorCollector()
	opID := "op1"

	for row := 1; row <= 10; row++ {
		c.Record(opID, ExecutionError{Row: row, Message: "failed", Phase: PhaseExecution})
	}

	got := c.List(opID, ErrorFilter{})
	for i, e := range got {
		if e.Row != i+1 {
			t.Fatalf("errors out of order at index %d: row %d", i, e.Row)
		}
	}
}

func TestCollectorIsolatesOperations(t *testing.T) {
	c := NewErrorCollector()

	c.Record("a", ExecutionError{Row: 1, Message: "a failed", Phase: PhaseExecution})
	c.Record("b", ExecutionError{Row: 1, Message: "b failed", Phase: PhaseExecution})

	if got := c.List("a", ErrorFilter{}); len(got) != 1 || got[0].Message != "a failed" {
		t.Errorf("operation a sees %v", got)
	}

	c.Clear("a")
	if got := c.List("a", ErrorFilter{}); len(got) != 0 {
		t.Errorf("cleared operation still has %d errors", len(got))
	}
	if got := c.List("b", ErrorFilter{}); len(got) != 1 {
		t.Errorf("clear leaked across operations, b has %d errors", len(got))
	}
}

func TestCollectorConcurrentRecording(t *testing.T) {
	c := NewErrorCollector()
	opID := "op1"

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Record(opID, ExecutionError{Row: i, Message: "failed", Phase: PhaseExecution})
			}
		}()
	}
	wg.Wait()

	if got := c.List(opID, ErrorFilter{}); len(got) != 800 {
		t.Errorf("List returned %d errors, want 800", len(got))
	}
}
