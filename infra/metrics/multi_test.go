package metrics

import (
	"errors"
	"testing"

	coremetrics "github.com/ayurmitra/scheduler/core/metrics"
)

type countingSink struct {
	runs  int
	plans int
	err   error
}

func (c *countingSink) RecordRun(coremetrics.RunResult) error {
	c.runs++
	return c.err
}

func (c *countingSink) RecordPlan(coremetrics.PlanResult) error {
	c.plans++
	return c.err
}

func TestMultiSinkFansOut(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	m := NewMultiSink(a, b)

	if err := m.RecordRun(coremetrics.RunResult{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.RecordPlan(coremetrics.PlanResult{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.runs != 1 || b.runs != 1 || a.plans != 1 || b.plans != 1 {
		t.Fatalf("records not forwarded to all sinks: %+v %+v", a, b)
	}
}

func TestMultiSinkPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	a := &countingSink{err: boom}
	b := &countingSink{}
	m := NewMultiSink(a, b)

	if err := m.RecordRun(coremetrics.RunResult{}); !errors.Is(err, boom) {
		t.Fatalf("expected first sink error, got %v", err)
	}
	if b.runs != 0 {
		t.Fatal("later sinks should not record after a failure")
	}
}
