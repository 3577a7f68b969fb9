package profiler

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func TestTickReportsAtInterval(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	prev := common.Logger()
	common.SetLogger(zap.New(core))
	t.Cleanup(func() { common.SetLogger(prev) })

	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithInterval(2 * time.Second))
	p.now = clock.now
	p.lastTime = clock.now()

	for i := 0; i < 9; i++ {
		clock.advance(200 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	clock.advance(200 * time.Millisecond)
	require.True(t, p.Tick())

	assert.InDelta(t, 5.0, p.Last().FPS, 1e-9)
	assert.Greater(t, p.Last().HeapMB, 0.0)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "profiler", entry.Message)
	assert.InDelta(t, 5.0, entry.ContextMap()["fps"], 1e-9)

	clock.advance(time.Second)
	assert.False(t, p.Tick(), "counter restarts after a report")
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0))
	assert.Equal(t, time.Second, p.updateInterval)
}
