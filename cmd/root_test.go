package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/telematics/config"
	"example.com/backstage/services/telematics/internal/charts"
)

const testVehicles = `Vehicle ID,Make Model,License Plate,State,Total Distance (km),Avg Speed (km/h),Harsh Events,Total Anomalies,Current Speed,Current RPM,Current Temperature,Current Fuel Level,Latitude,Longitude
1,Ford Transit,ABC-123,NORMAL,1000.0,30.0,1,2,40.0,2000,90.0,50.0,40.71,-74.00
2,Volvo FH16,TRK-002,CRITICAL,2000.0,60.0,5,8,0.0,800,105.0,15.0,40.73,-73.93
`

const testAnomalies = `Type,Severity
Speeding,4
`

func writeConfig(t *testing.T, open bool) (string, string) {
	t.Helper()
	dir := t.TempDir()

	vehicles := filepath.Join(dir, "vehicles.csv")
	anomalies := filepath.Join(dir, "anomalies.csv")
	summary := filepath.Join(dir, "summary.csv")
	require.NoError(t, os.WriteFile(vehicles, []byte(testVehicles), 0o644))
	require.NoError(t, os.WriteFile(anomalies, []byte(testAnomalies), 0o644))

	yaml := fmt.Sprintf(`input:
  vehicles: %s
  anomalies: %s
output:
  image: %s
  summary_csv: %s
  summary_json: ""
charts:
  dpi: 20
  open: %t
`, vehicles, anomalies, filepath.Join(dir, "analysis.png"), summary, open)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path, summary
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		cfgFile, debug, noOpen = "", false, false
	})
	require.NoError(t, Execute())
	return out.String()
}

func TestExportCommand(t *testing.T) {
	cfgPath, summary := writeConfig(t, false)

	out := execute(t, "export", "--config", cfgPath)

	assert.Contains(t, out, "Summary report exported as '"+summary+"'")
	assert.NotContains(t, out, "VEHICLE FLEET OVERVIEW")
	assert.FileExists(t, summary)
}

func TestDescribeCommand(t *testing.T) {
	cfgPath, _ := writeConfig(t, false)

	out := execute(t, "describe", "--config", cfgPath)

	assert.Contains(t, out, "DESCRIPTIVE STATISTICS")
	assert.Contains(t, out, "Avg Speed (km/h) (n=2)")
}

func TestRootCommandNoOpenOverridesConfig(t *testing.T) {
	cfgPath, summary := writeConfig(t, true)

	var opened []string
	openImage = func(path string) error {
		opened = append(opened, path)
		return nil
	}
	t.Cleanup(func() { openImage = charts.Open })

	out := execute(t, "--config", cfgPath, "--no-open")

	assert.Contains(t, out, "VEHICLE FLEET OVERVIEW")
	assert.Contains(t, out, "Visualizations saved as '")
	assert.Contains(t, out, "Analysis complete!")
	assert.FileExists(t, summary)
	assert.False(t, cfg.Charts.Open)
	assert.Empty(t, opened)
}

func TestRootCommandOpensCharts(t *testing.T) {
	cfgPath, _ := writeConfig(t, true)

	var opened []string
	openImage = func(path string) error {
		opened = append(opened, path)
		return nil
	}
	t.Cleanup(func() { openImage = charts.Open })

	execute(t, "--config", cfgPath)

	require.Len(t, opened, 1)
	assert.Equal(t, "analysis.png", filepath.Base(opened[0]))
}

func TestInitSinksDisabled(t *testing.T) {
	sinks, closers := initSinks(config.Default())
	assert.Empty(t, sinks)
	assert.Empty(t, closers)
}

func TestInitSinksSkipsBrokenSink(t *testing.T) {
	cfg := config.Default()
	cfg.Azure.Enabled = true
	cfg.Azure.QueueConnStr = "not-a-connection-string"

	sinks, _ := initSinks(cfg)
	assert.Empty(t, sinks)
}
