package metrics

import (
	"context"
	"sync"
	"time"
)

type carrierKey struct{}

// carrier collects fields added while an observed operation runs.
type carrier struct {
	mu     sync.Mutex
	fields map[string]string
}

// AddField attaches a key/value to the timing record of the operation
// observing ctx. A no-op outside an Observe call.
func AddField(ctx context.Context, key, value string) {
	c, ok := ctx.Value(carrierKey{}).(*carrier)
	if !ok {
		return
	}
	c.mu.Lock()
	c.fields[key] = value
	c.mu.Unlock()
}

// Observe measures fn and records the timing under op. Fields passed in are
// merged with any the operation adds via AddField. fn's error is returned
// unchanged whether or not recording succeeds.
func (r *Recorder) Observe(ctx context.Context, op string, fields map[string]string, fn func(ctx context.Context) error) error {
	c := &carrier{fields: make(map[string]string, len(fields))}
	for k, v := range fields {
		c.fields[k] = v
	}

	start := time.Now()
	err := fn(context.WithValue(ctx, carrierKey{}, c))
	elapsed := time.Since(start)

	rec := TimingRecord{
		Op:              op,
		StartedAt:       start.UTC(),
		DurationSeconds: elapsed.Seconds(),
		OK:              err == nil,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	c.mu.Lock()
	if len(c.fields) > 0 {
		rec.Fields = c.fields
	}
	c.mu.Unlock()

	r.Record(rec)
	return err
}
