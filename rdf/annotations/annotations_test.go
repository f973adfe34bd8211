package annotations

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorDisabled(t *testing.T) {
	c := NewCollector(nil)
	c.Add(Event{Name: PatternScan})
	c.AddTiming(JoinNested, time.Now(), nil)
	assert.False(t, c.Enabled())
	assert.Empty(t, c.Events())
}

func TestCollectorConcurrentAdd(t *testing.T) {
	var mu sync.Mutex
	seen := 0
	c := NewCollector(func(Event) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.AddTiming(PatternScan, time.Now(), map[string]interface{}{"statements": j})
			}
		}()
	}
	wg.Wait()

	assert.Len(t, c.Events(), 400)
	assert.Equal(t, 400, seen)

	c.Reset()
	assert.Empty(t, c.Events())
}

func TestOutputFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewOutputFormatter(&buf)

	f.Handle(Event{Name: EvaluationComplete, Latency: 1500 * time.Microsecond,
		Data: map[string]interface{}{"success": true, "solutions": 3}})
	f.Handle(Event{Name: EvaluationComplete,
		Data: map[string]interface{}{"success": false, "error": errors.New("boom")}})
	f.Handle(Event{Name: PatternScan, Latency: 20 * time.Microsecond,
		Data: map[string]interface{}{"pattern": "StatementPattern(?s ?p ?o)", "statements": 4}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "[1.5ms] === Evaluation done with 3 solutions.", lines[0])
	assert.Contains(t, lines[1], "Evaluation failed: boom")
	assert.Equal(t, "[20µs] Scan(StatementPattern(?s ?p ?o)) → 4 statements", lines[2])
}

func TestPrometheusHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Handle(Event{Name: EvaluationComplete, Latency: time.Millisecond,
		Data: map[string]interface{}{"success": true, "solutions": 5}})
	m.Handle(Event{Name: EvaluationComplete,
		Data: map[string]interface{}{"success": false}})
	m.Handle(Event{Name: PatternScan})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.eventsTotal.WithLabelValues(EvaluationComplete)))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.solutions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures))

	handler := MultiHandler(NewPrometheusHandler(prometheus.NewRegistry()), nil)
	assert.NotPanics(t, func() { handler(Event{Name: OrderSpilled}) })
}
