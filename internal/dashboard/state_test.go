package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metricsEnvelope(t *testing.T, m Metrics) Envelope {
	t.Helper()
	env, err := NewEnvelope(TypeMetrics, m)
	require.NoError(t, err)
	return env
}

func TestMetricsKeepWindowAtTen(t *testing.T) {
	s := NewState(time.Now())
	for i := 1; i <= 25; i++ {
		require.NoError(t, s.Apply(metricsEnvelope(t, Metrics{RequestRate: float64(i), AvgResponse: float64(i * 10)})))
		if len(s.RequestSeries) != WindowSize || len(s.ResponseSeries) != WindowSize {
			t.Fatalf("after %d pushes: series lengths %d/%d", i, len(s.RequestSeries), len(s.ResponseSeries))
		}
	}
	assert.Equal(t, 16.0, s.RequestSeries[0])
	assert.Equal(t, 25.0, s.RequestSeries[WindowSize-1])
	assert.Equal(t, 250.0, s.ResponseSeries[WindowSize-1])
}

func TestZeroStateSeriesAreFilled(t *testing.T) {
	var s State
	s.ApplyMetrics(Metrics{RequestRate: 3})
	assert.Len(t, s.RequestSeries, WindowSize)
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 3}, s.RequestSeries)
}

func TestMissingNumericFieldsDecodeAsZero(t *testing.T) {
	s := NewState(time.Now())
	env, err := Decode([]byte(`{"type":"metrics","payload":{"requestRate":7}}`))
	require.NoError(t, err)
	require.NoError(t, s.Apply(env))

	assert.Equal(t, Metrics{RequestRate: 7}, s.Metrics)
}

func TestAgentsReplaceRoster(t *testing.T) {
	s := NewState(time.Now())
	s.SetAgents(MockAgents())

	env, err := Decode([]byte(`{"type":"agents","payload":[{"id":"solo","name":"Solo","status":"idle"}]}`))
	require.NoError(t, err)
	require.NoError(t, s.Apply(env))

	require.Len(t, s.Agents, 1)
	assert.Equal(t, "Solo", s.Agents[0].Name)
	assert.Equal(t, 0, s.ActiveAgents())
}

func TestUnknownTypeIgnoredAndBadPayloadRejected(t *testing.T) {
	s := NewState(time.Now())
	require.NoError(t, s.Apply(Envelope{Type: "weather", Payload: []byte(`{}`)}))

	err := s.Apply(Envelope{Type: TypeAgents, Payload: []byte(`{"not":"a list"}`)})
	require.Error(t, err)
}

func TestFilterAndClone(t *testing.T) {
	s := NewState(time.Now())
	s.SetAgents(MockAgents())

	s.Filter = FilterIdle
	idle := s.VisibleAgents()
	require.Len(t, idle, 1)
	assert.Equal(t, "oracle", idle[0].ID)

	c := s.Clone()
	c.Agents[0].Name = "changed"
	c.RequestSeries[0] = 99
	assert.Equal(t, "Sisyphus", s.Agents[0].Name)
	assert.Equal(t, 0.0, s.RequestSeries[0])
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{61 * time.Second, "00:01:01"},
		{3*time.Hour + 4*time.Minute + 5*time.Second + 900*time.Millisecond, "03:04:05"},
	}
	for _, tt := range tests {
		if got := FormatUptime(tt.d); got != tt.want {
			t.Fatalf("FormatUptime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
