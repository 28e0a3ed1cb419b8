package usecase

import (
	"context"

	"FXAdvisor/internal/domain/models"
	domrepo "FXAdvisor/internal/domain/repository"
	mid "FXAdvisor/internal/middleware"
)

// RateCollector drains the live quote stream into the tick pipeline.
type RateCollector struct {
	stream  domrepo.RateStream
	proc    *TickProcessor
	metrics domrepo.Metrics
	pipe    *mid.TickPipeline
}

func NewRateCollector(stream domrepo.RateStream, proc *TickProcessor, metrics domrepo.Metrics, pipe *mid.TickPipeline) *RateCollector {
	return &RateCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected reports whether the quote stream is up.
func (c *RateCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *RateCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	return nil
}

func (c *RateCollector) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				if rerr := c.stream.Reconnect(ctx); rerr == nil {
					tickCh, errCh = c.stream.Read(ctx)
				}
			}
		case t := <-tickCh:
			if t == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, t)
			} else {
				_ = c.proc.Process(ctx, t)
			}
			c.metrics.RecordLastRate(t.Pair, t.Mid)
		}
	}
}

// Processor exposes the downstream processor for lifecycle management.
func (c *RateCollector) Processor() *TickProcessor { return c.proc }

// Shutdown stops the pipeline and closes the stream.
func (c *RateCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
