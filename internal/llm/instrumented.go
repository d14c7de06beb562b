package llm

import (
	"context"
	"time"

	"github.com/helixir/paper-discovery-service/internal/observability"
)

// instrumentedClient records a metric for every completion.
type instrumentedClient struct {
	Client
	metrics *observability.Metrics
}

// WithMetrics wraps c so each Complete call is counted and timed.
func WithMetrics(c Client, metrics *observability.Metrics) Client {
	if metrics == nil {
		return c
	}
	return &instrumentedClient{Client: c, metrics: metrics}
}

func (c *instrumentedClient) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := c.Client.Complete(ctx, req)
	c.metrics.RecordLLMRequest(c.Provider(), time.Since(start).Seconds(), err)
	return resp, err
}
