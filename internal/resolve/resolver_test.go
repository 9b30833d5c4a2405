package resolve

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparsh2712/DataPipeline/internal/config"
	"github.com/sparsh2712/DataPipeline/internal/monitoring"
)

func mustTable(t *testing.T, entries ...Entry) *Table {
	t.Helper()
	tbl, err := NewTable(entries)
	require.NoError(t, err)
	return tbl
}

func TestResolve_TitleScenario(t *testing.T) {
	r := New(mustTable(t, Entry{"Godrej Properties Ltd.", "GODREJPROP"}), 0.6, nil)

	candidate, m, ok := r.ResolveTitle("Q3FY24 Earnings Call: Godrej Properties Limited")
	require.True(t, ok)
	assert.Equal(t, "Godrej Properties", candidate)
	assert.Equal(t, "Godrej Properties Ltd.", m.Name)
	assert.Equal(t, "GODREJPROP", m.Symbol)
	assert.False(t, m.Exact)
	assert.GreaterOrEqual(t, m.Score, 0.6)
}

func TestResolve_ExactIgnoresThreshold(t *testing.T) {
	tbl := mustTable(t,
		Entry{"Infosys Limited", "INFY"},
		Entry{"Infosys BPM Limited", "INFYBPM"},
	)
	for _, threshold := range []float64{0.6, 0.99, 1} {
		m, ok := New(tbl, threshold, nil).Resolve("INFOSYS limited")
		require.True(t, ok)
		assert.True(t, m.Exact)
		assert.Equal(t, "Infosys Limited", m.Name)
		assert.Equal(t, "INFY", m.Symbol)
		assert.Equal(t, 1.0, m.Score)
	}
}

func TestResolve_BelowThresholdIsNoAnswer(t *testing.T) {
	r := New(mustTable(t, Entry{"Tata Steel Limited", "TATASTEEL"}), 0.6, nil)

	m, ok := r.Resolve("Zomato")
	assert.False(t, ok)
	assert.Equal(t, Match{}, m)

	_, ok = r.Resolve("   ")
	assert.False(t, ok)
}

func TestResolve_ThresholdIsInclusive(t *testing.T) {
	// "abcd" vs "abcx": one edit over four runes = 0.75.
	r := New(mustTable(t, Entry{"abcx", "X"}), 0.75, nil)
	m, ok := r.Resolve("abcd")
	require.True(t, ok)
	assert.InDelta(t, 0.75, m.Score, 1e-9)

	_, ok = New(mustTable(t, Entry{"abcx", "X"}), 0.76, nil).Resolve("abcd")
	assert.False(t, ok)
}

func TestResolve_TiesGoToFirstEntry(t *testing.T) {
	tbl := mustTable(t,
		Entry{"abcx", "FIRST"},
		Entry{"abcy", "SECOND"},
	)
	m, ok := New(tbl, 0.6, nil).Resolve("abcd")
	require.True(t, ok)
	assert.Equal(t, "FIRST", m.Symbol)
}

func TestResolve_DefaultThreshold(t *testing.T) {
	tbl := mustTable(t, Entry{"abcx", "X"})
	assert.Equal(t, DefaultThreshold, New(tbl, -0.1, nil).threshold)
	assert.Equal(t, DefaultThreshold, New(tbl, 1.5, nil).threshold)
}

func TestResolve_ZeroThresholdTakesBestMatch(t *testing.T) {
	tbl := mustTable(t, Entry{"Godrej Properties Ltd.", "GODREJPROP"}, Entry{"Zomato Ltd.", "ZOMATO"})
	r := New(tbl, 0, nil)
	assert.Equal(t, 0.0, r.threshold)

	m, ok := r.Resolve("Infosys")
	require.True(t, ok)
	assert.False(t, m.Exact)
	assert.Less(t, m.Score, DefaultThreshold)
}

func TestResolve_Metrics(t *testing.T) {
	metrics := monitoring.NewMetrics()
	r := New(mustTable(t, Entry{"Godrej Properties Ltd.", "GODREJPROP"}), 0.6, metrics)

	r.Resolve("godrej properties ltd.")
	r.Resolve("Godrej Properties")
	r.Resolve("Zomato")

	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry, strings.NewReader(`
# HELP pipeline_resolutions_total Entity resolutions by outcome.
# TYPE pipeline_resolutions_total counter
pipeline_resolutions_total{outcome="exact"} 1
pipeline_resolutions_total{outcome="fuzzy"} 1
pipeline_resolutions_total{outcome="none"} 1
`), "pipeline_resolutions_total"))
}

func TestNewTable_RejectsCollisions(t *testing.T) {
	_, err := NewTable([]Entry{
		{"Larsen & Toubro Limited", "LT"},
		{"LARSEN & TOUBRO  LIMITED", "LT2"},
	})
	require.Error(t, err)
	assert.True(t, config.IsConfigError(err))
	assert.Contains(t, err.Error(), "collide")

	_, err = NewTable([]Entry{{"", "EMPTY"}})
	assert.True(t, config.IsConfigError(err))
}

func TestTableFromRows(t *testing.T) {
	tbl, err := TableFromRows([][]any{
		{"Godrej Industries Limited", "GODREJIND"},
		{"Godrej Properties Ltd.", "GODREJPROP"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())

	_, err = TableFromRows([][]any{{"only name"}})
	assert.True(t, config.IsConfigError(err))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 1.0, Similarity("tcs", "tcs"))
	assert.Equal(t, 0.0, Similarity("abc", "xyz"))
	assert.InDelta(t, 1-5.0/22.0, Similarity("godrej properties", "godrej properties ltd."), 1e-9)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "godrej properties ltd.", Normalize("  Godrej\tProperties  LTD. "))
	// Full-width letters fold under NFKC.
	assert.Equal(t, "tcs", Normalize("ＴＣＳ"))
}
