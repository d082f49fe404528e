package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollectorTimings(t *testing.T) {
	c := NewCollector()

	c.RecordTiming(OpDBQuery, 10*time.Millisecond)
	c.RecordTiming(OpDBQuery, 30*time.Millisecond)
	c.RecordFailure(OpDBQuery)

	snap := c.Snapshot()
	op, ok := snap.Operations[OpDBQuery]
	assert.True(t, ok)
	assert.Equal(t, int64(2), op.Count)
	assert.Equal(t, int64(1), op.Failures)
	assert.Equal(t, int64(10), op.MinTimeMs)
	assert.Equal(t, int64(30), op.MaxTimeMs)
	assert.Equal(t, float64(20), op.AvgTimeMs)
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.RecordTiming(OpLLMGenerate, time.Second)
	c.RecordFailure(OpLLMGenerate)

	snap := c.Snapshot()
	assert.Empty(t, snap.Operations)
}
