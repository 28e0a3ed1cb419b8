package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"FXAdvisor/internal/domain/models"
)

type countingProc struct {
	mu   sync.Mutex
	got  []*models.Tick
	fail bool
}

func (p *countingProc) Process(_ context.Context, t *models.Tick) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("downstream down")
	}
	p.got = append(p.got, t)
	return nil
}

func (p *countingProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

type nopMetrics struct{}

func (nopMetrics) RecordIngest(string, string)    {}
func (nopMetrics) RecordError(string)             {}
func (nopMetrics) RecordLastRate(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)  {}
func (nopMetrics) RecordForecast(string, string)  {}
func (nopMetrics) RecordSentimentCache(bool)      {}
func (nopMetrics) RecordFusionWeight(float64)     {}

func tick(pair string, mid float64) *models.Tick {
	return &models.Tick{Pair: pair, Timestamp: time.Now().Unix(), Mid: mid}
}

func TestPipelineRejectsInvalid(t *testing.T) {
	proc := &countingProc{}
	p := NewTickPipeline(proc, nopMetrics{})

	cases := []*models.Tick{
		nil,
		{Pair: "", Timestamp: 1, Mid: 1},
		{Pair: "USDINR", Timestamp: 0, Mid: 1},
		{Pair: "USDINR", Timestamp: 1, Mid: 0},
		{Pair: "USDINR", Timestamp: 1, Mid: -2},
	}
	for i, tc := range cases {
		if err := p.Process(context.Background(), tc); err == nil {
			t.Fatalf("case %d: want validation error", i)
		}
	}
	if proc.count() != 0 {
		t.Fatalf("invalid ticks reached downstream: %d", proc.count())
	}
}

func TestPipelineThrottlesPerPair(t *testing.T) {
	proc := &countingProc{}
	p := NewTickPipeline(proc, nopMetrics{}, WithMaxRPS(1))

	// Two ticks inside the same second for one pair: second is dropped
	// silently. A different pair is unaffected.
	if err := p.Process(context.Background(), tick("USDINR", 83.1)); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	if err := p.Process(context.Background(), tick("USDINR", 83.2)); err != nil {
		t.Fatalf("throttled tick must not error: %v", err)
	}
	if err := p.Process(context.Background(), tick("EURINR", 90.0)); err != nil {
		t.Fatalf("other pair: %v", err)
	}
	if proc.count() != 2 {
		t.Fatalf("processed = %d, want 2", proc.count())
	}
}

func TestPipelineBuffersOnFailure(t *testing.T) {
	proc := &countingProc{fail: true}
	p := NewTickPipeline(proc, nopMetrics{}, WithBufferSize(10))

	if err := p.Process(context.Background(), tick("USDINR", 83.1)); err == nil {
		t.Fatal("want downstream error")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("buffered = %d, want 1", len(p.bufCh))
	}

	// Once downstream recovers, the flush loop drains the buffer.
	proc.mu.Lock()
	proc.fail = false
	proc.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for proc.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("buffered tick never flushed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
