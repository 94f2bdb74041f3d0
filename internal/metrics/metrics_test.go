package metrics

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := NewMetrics()
	m.IncrementCounter("vehicles_loaded")
	m.IncrementCounterBy("vehicles_loaded", 4)
	m.IncrementCounter("insights")

	assert.Equal(t, map[string]int64{"vehicles_loaded": 5, "insights": 1}, m.GetCounters())
}

func TestTimers(t *testing.T) {
	m := NewMetrics()
	m.RecordTimer("render", 30)
	m.RecordTimer("render", 10)
	m.RecordTimer("render", 20)

	timer := m.GetTimers()["render"]
	assert.Equal(t, int64(3), timer.Count)
	assert.Equal(t, int64(60), timer.TotalTimeMs)
	assert.Equal(t, 20.0, timer.AverageTimeMs)
	assert.Equal(t, int64(10), timer.MinTimeMs)
	assert.Equal(t, int64(30), timer.MaxTimeMs)
}

func TestStartTimer(t *testing.T) {
	m := NewMetrics()
	now := time.Date(2024, 1, 30, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	stop := m.StartTimer("load")
	now = now.Add(250 * time.Millisecond)
	stop()

	assert.Equal(t, int64(250), m.GetTimers()["load"].TotalTimeMs)
}

func TestErrorRates(t *testing.T) {
	m := NewMetrics()
	m.RecordSuccess("sink.redis")
	m.RecordError("sink.redis")
	m.RecordSuccess("sink.redis")
	m.RecordSuccess("sink.redis")

	rate := m.GetErrorRates()["sink.redis"]
	assert.Equal(t, int64(4), rate.Total)
	assert.Equal(t, int64(1), rate.Errors)
	assert.Equal(t, 25.0, rate.ErrorRate)
}

func TestLog(t *testing.T) {
	m := NewMetrics()
	m.RecordTimer("report", 1)
	m.RecordTimer("load", 2)
	m.IncrementCounter("anomalies_loaded")

	var buf bytes.Buffer
	m.Log(zerolog.New(&buf).Level(zerolog.DebugLevel))

	out := buf.String()
	require.Contains(t, out, `"stage":"load"`)
	assert.Less(t, bytes.Index(buf.Bytes(), []byte(`"stage":"load"`)), bytes.Index(buf.Bytes(), []byte(`"stage":"report"`)))
	assert.Contains(t, out, `"anomalies_loaded":1`)
	assert.Contains(t, out, `"elapsed_ms":`)
}
