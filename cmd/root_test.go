package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparsh2712/DataPipeline/internal/config"
	"github.com/sparsh2712/DataPipeline/internal/harvest"
	"github.com/sparsh2712/DataPipeline/internal/monitoring"
	"github.com/sparsh2712/DataPipeline/internal/resolve"
	"github.com/sparsh2712/DataPipeline/internal/runlog"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"harvest", "migrate", "status", "session", "resolve",
		"reconcile-calls", "reference", "governance", "discover"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "datapipeline", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestCommandFlags(t *testing.T) {
	require.NotNil(t, harvestCmd.Flags().Lookup("endpoints"))
	require.NotNil(t, sessionCmd.Flags().Lookup("save"))
	require.NotNil(t, resolveCmd.Flags().Lookup("title"))
	require.NotNil(t, referenceBuildCmd.Flags().Lookup("input"))
	require.NotNil(t, referenceBuildCmd.Flags().Lookup("fetch"))
	require.NotNil(t, discoverCmd.Flags().Lookup("output"))

	limit := statusCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "20", limit.DefValue)
}

func TestSelectDescriptors(t *testing.T) {
	all := []harvest.Descriptor{{Name: "A"}, {Name: "B"}, {Name: "C"}}

	got, err := selectDescriptors(all, nil)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = selectDescriptors(all, []string{"C", "A"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "C", got[1].Name)

	_, err = selectDescriptors(all, []string{"A", "Z"})
	require.Error(t, err)
	assert.True(t, config.IsConfigError(err))
	assert.Contains(t, err.Error(), `"Z"`)
}

func TestFormatRuns(t *testing.T) {
	started := time.Date(2025, 3, 17, 10, 0, 0, 0, time.UTC)
	done := started.Add(90 * time.Second)
	entries := []runlog.Entry{
		{ID: uuid.MustParse("11111111-2222-3333-4444-555555555555"), Status: runlog.StatusComplete,
			StartedAt: started, CompletedAt: &done, Endpoints: 3, RowsWritten: 120, FailedPages: 2},
		{ID: uuid.MustParse("aaaaaaaa-2222-3333-4444-555555555555"), Status: runlog.StatusRunning,
			StartedAt: started},
	}

	var buf bytes.Buffer
	formatRuns(&buf, entries)
	out := buf.String()

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "11111111")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "2025-03-17 10:00:00")
	assert.Contains(t, out, "aaaaaaaa")
}

func TestFormatAlerts(t *testing.T) {
	var buf bytes.Buffer
	formatAlerts(&buf, nil)
	assert.Contains(t, buf.String(), "No alerts.")

	buf.Reset()
	formatAlerts(&buf, []monitoring.Alert{{Severity: "high", Message: "No harvest completed in last 24h"}})
	assert.Contains(t, buf.String(), "[high] No harvest completed in last 24h")
}

func TestRenderResolutions(t *testing.T) {
	tbl, err := resolve.NewTable([]resolve.Entry{{Name: "Godrej Properties", Symbol: "GODREJPROP"}})
	require.NoError(t, err)
	r := resolve.New(tbl, 0.6, nil)

	var buf bytes.Buffer
	renderResolutions(&buf, r, []string{"Q3FY24 Earnings Call: Godrej Properties Limited", "Earnings Call:"}, true)
	out := buf.String()

	assert.Contains(t, out, "GODREJPROP")
	assert.Contains(t, out, "1.00")
	assert.Contains(t, out, "Godrej Properties")
}

func TestSampleConfigFilesLoad(t *testing.T) {
	ds, err := harvest.LoadDescriptors("../config/api.json")
	require.NoError(t, err)
	require.Len(t, ds, 3)
	assert.Equal(t, "Insider_Trading", ds[0].Name)
	assert.True(t, ds[0].HasDateWindow())

	schemas, err := harvest.LoadSchemas("../config/schema.json")
	require.NoError(t, err)
	for _, d := range ds {
		assert.Contains(t, schemas, d.Name)
	}
	for _, k := range ds[1].UniqueKeys {
		assert.Contains(t, schemas[ds[1].Name].Columns(), k)
	}
}
