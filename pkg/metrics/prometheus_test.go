/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: prometheus_test.go
Description: Tests for the Prometheus reporter and text dump.
*/

package metrics_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kleascm/furnace/pkg/melt"
	"github.com/kleascm/furnace/pkg/metrics"
	"github.com/kleascm/furnace/pkg/sink"
	"github.com/kleascm/furnace/pkg/stream"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusReporterCountsRun(t *testing.T) {
	reg := metrics.NewRegistry()
	reporter, err := metrics.NewPrometheusReporter(reg)
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	d, err := stream.NewDriver(stream.Options{Config: melt.DefaultConfig(), Logger: logger, Reporter: reporter})
	require.NoError(t, err)

	input := "{\"id\":1,\"tags\":[\"a\",\"b\"]}\nbroken\n{\"id\":2}\n"
	_, err = d.Run(context.Background(), stream.FromReader("test", strings.NewReader(input)), sink.NewMemorySink())
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "furnace_records_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var buf bytes.Buffer
	families, err := reg.Gather()
	require.NoError(t, err)
	require.NoError(t, metrics.WriteText(&buf, families))
	text := buf.String()
	assert.Contains(t, text, `furnace_records_total{status="melted"} 2`)
	assert.Contains(t, text, `furnace_records_total{status="skipped"} 1`)
	assert.Contains(t, text, `furnace_entities_total{entity_type="root"} 2`)
	assert.Contains(t, text, `furnace_entities_total{entity_type="root_tags"} 2`)
	assert.Contains(t, text, `furnace_runs_total{mode="unplanned"} 1`)
}

func TestPrometheusReporterRejectsDoubleRegistration(t *testing.T) {
	reg := metrics.NewRegistry()
	_, err := metrics.NewPrometheusReporter(reg)
	require.NoError(t, err)
	_, err = metrics.NewPrometheusReporter(reg)
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	reg := metrics.NewRegistry()
	reporter, err := metrics.NewPrometheusReporter(reg)
	require.NoError(t, err)
	reporter.OnRunFinished(&stream.Report{Mode: "planned", PlanFallbacks: 3})

	path := filepath.Join(t.TempDir(), "out", "furnace.prom")
	require.NoError(t, metrics.WriteFile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "furnace_plan_fallbacks_total 3")
	assert.Contains(t, string(data), "# TYPE furnace_run_duration_seconds histogram")
}
