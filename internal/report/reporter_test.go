package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/telematics/internal/models"
)

func testDataset() *models.Dataset {
	return &models.Dataset{
		Vehicles: []models.Vehicle{
			{ID: "1", MakeModel: "Ford Transit", LicensePlate: "ABC-1", State: models.StateNormal, AvgSpeed: 50, TotalDistance: 100, TotalAnomalies: 2, CurrentFuelLevel: 60},
			{ID: "2", MakeModel: "Volvo FH16", LicensePlate: "TRK-2", State: models.StateCritical, AvgSpeed: 30, TotalDistance: 300, TotalAnomalies: 9, CurrentFuelLevel: 10},
			{ID: "3", MakeModel: "Ford Focus", LicensePlate: "CAR-3", State: models.StateOffline, AvgSpeed: 70, TotalDistance: 50, TotalAnomalies: 1, CurrentFuelLevel: 35},
		},
		Anomalies: []models.Anomaly{
			{Type: "Speeding", Severity: 4},
			{Type: "HardBrake", Severity: 2},
		},
	}
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf).Report(testDataset())
	out := buf.String()

	assert.Contains(t, out, "VEHICLE FLEET OVERVIEW")
	assert.Contains(t, out, "Total Vehicles: 3\n")
	assert.Contains(t, out, "Active Vehicles: 2\n")
	assert.Contains(t, out, "Critical Vehicles: 1\n")
	assert.Contains(t, out, "Average Fleet Speed: 50.0 km/h\n")
	assert.Contains(t, out, "Total Fleet Distance: 450.0 km\n")

	assert.Contains(t, out, "ANOMALY ANALYSIS")
	assert.Contains(t, out, "Total Anomalies: 2\n")
	assert.Contains(t, out, "Critical Anomalies: 1\n")
	assert.Contains(t, out, "Most Common Anomaly: Speeding\n")
	assert.Contains(t, out, "  Medium: 1\n  Critical: 1\n")

	assert.Contains(t, out, "PERFORMANCE METRICS")
	assert.Contains(t, out, "Fastest Average Vehicle: Ford Focus (CAR-3) - 70.0 km/h\n")
	assert.Contains(t, out, "Most Distance Traveled: Volvo FH16 (TRK-2) - 300.0 km\n")
	assert.Contains(t, out, "Most Anomalies: Volvo FH16 (TRK-2) - 9 anomalies\n")
}

func TestSeverityDistribution(t *testing.T) {
	var anomalies []models.Anomaly
	for _, s := range []int{5, 2, 1, 4, 2} {
		anomalies = append(anomalies, models.Anomaly{Type: "X", Severity: s})
	}

	var buf bytes.Buffer
	NewReporter(&buf).Anomalies(anomalies)
	out := buf.String()

	assert.Contains(t, out, "Critical Anomalies: 2\n")
	assert.Contains(t, out, "  Low: 1\n  Medium: 2\n  Critical: 1\n  Emergency: 1\n")
	assert.NotContains(t, out, "High:")
}

func TestReportEmptyDataset(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf).Report(&models.Dataset{})
	out := buf.String()

	assert.Contains(t, out, "Total Vehicles: 0\n")
	assert.Contains(t, out, "No vehicle data available; skipping fleet statistics")
	assert.NotContains(t, out, "Average Fleet Speed")
	assert.Contains(t, out, "Most Common Anomaly: n/a\n")
	assert.NotContains(t, out, "Distribution by Severity")
}

func TestArgMaxTieKeepsFirstVehicle(t *testing.T) {
	vehicles := []models.Vehicle{
		{MakeModel: "A", LicensePlate: "1", AvgSpeed: 80},
		{MakeModel: "B", LicensePlate: "2", AvgSpeed: 80},
	}

	var buf bytes.Buffer
	NewReporter(&buf).Performance(vehicles)
	assert.Contains(t, buf.String(), "Fastest Average Vehicle: A (1) - 80.0 km/h")
}

func TestOverviewAggregates(t *testing.T) {
	ds := testDataset()

	f := Fleet(ds.Vehicles)
	require.True(t, f.HasVehicles)
	assert.InDelta(t, 35.0, f.AverageFuel, 1e-9)

	a := Anomalies(ds.Anomalies)
	require.Len(t, a.BySeverity, 2)
	assert.Equal(t, 2, a.BySeverity[0].Value)
	assert.Equal(t, 4, a.BySeverity[1].Value)
}

func TestMaintenanceCandidates(t *testing.T) {
	var vehicles []models.Vehicle
	for i := 1; i <= 10; i++ {
		vehicles = append(vehicles, models.Vehicle{ID: string(rune('0' + i)), TotalAnomalies: i})
	}

	got := MaintenanceCandidates(vehicles, 0.8)
	require.Len(t, got, 2)
	assert.Equal(t, 9, got[0].TotalAnomalies)
	assert.Equal(t, 10, got[1].TotalAnomalies)

	assert.Empty(t, MaintenanceCandidates(nil, 0.8))
}

func TestDescribe(t *testing.T) {
	stats := DescribeColumns(testDataset().Vehicles)
	require.Len(t, stats, 5)
	assert.Equal(t, "Avg Speed (km/h)", stats[0].Column)
	assert.InDelta(t, 50.0, stats[0].Mean, 1e-9)

	var buf bytes.Buffer
	NewReporter(&buf).Describe(DescribeColumns(nil))
	assert.Contains(t, buf.String(), "DESCRIPTIVE STATISTICS")
	assert.Contains(t, buf.String(), "Current RPM (n=0)\n  no data")
}
