package metrics

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// NewRelicContextKey is the context key under which the *newrelic.Application
// is stored. Every helper in this package is a no-op when it's absent.
type NewRelicContextKey struct{}

// NewContext returns a copy of ctx carrying app.
func NewContext(ctx context.Context, app *newrelic.Application) context.Context {
	return context.WithValue(ctx, NewRelicContextKey{}, app)
}

func fromContext(ctx context.Context) (*newrelic.Application, bool) {
	nr, ok := ctx.Value(NewRelicContextKey{}).(*newrelic.Application)
	return nr, ok && nr != nil
}

// RecordCount records a count metric
func RecordCount(ctx context.Context, metricName string, count uint64) {
	nr, ok := fromContext(ctx)
	if ok {
		nr.RecordCustomMetric(metricName, float64(count))
	}
}

// RecordDuration records a duration metric
func RecordDuration(ctx context.Context, metricName string, duration time.Duration) {
	nr, ok := fromContext(ctx)
	if ok {
		nr.RecordCustomMetric(metricName, float64(duration/time.Millisecond))
	}
}
