// Package report prints the fleet, anomaly and performance statistics of a
// loaded dataset.
package report

import (
	"fmt"
	"io"
	"strings"

	"example.com/backstage/services/telematics/internal/models"
	"example.com/backstage/services/telematics/internal/stats"
)

const rule = "------------------------------"

// Reporter writes the statistics report to an output stream
type Reporter struct {
	out io.Writer
}

// NewReporter creates a reporter writing to out
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// Section prints a section title underlined by a rule
func (r *Reporter) Section(title string) {
	fmt.Fprintf(r.out, "\n%s\n%s\n", title, rule)
}

// Report prints the three statistics sections
func (r *Reporter) Report(ds *models.Dataset) {
	r.Fleet(ds.Vehicles)
	r.Anomalies(ds.Anomalies)
	r.Performance(ds.Vehicles)
}

// Fleet prints the VEHICLE FLEET OVERVIEW section
func (r *Reporter) Fleet(vehicles []models.Vehicle) {
	o := Fleet(vehicles)

	r.Section("VEHICLE FLEET OVERVIEW")
	fmt.Fprintf(r.out, "Total Vehicles: %d\n", o.TotalVehicles)
	fmt.Fprintf(r.out, "Active Vehicles: %d\n", o.ActiveVehicles)
	fmt.Fprintf(r.out, "Critical Vehicles: %d\n", o.CriticalVehicles)
	if !o.HasVehicles {
		fmt.Fprintln(r.out, "No vehicle data available; skipping fleet statistics")
		return
	}
	fmt.Fprintf(r.out, "Average Fleet Speed: %.1f km/h\n", o.AverageSpeed)
	fmt.Fprintf(r.out, "Total Fleet Distance: %.1f km\n", o.TotalDistance)
}

// Anomalies prints the ANOMALY ANALYSIS section
func (r *Reporter) Anomalies(anomalies []models.Anomaly) {
	o := Anomalies(anomalies)

	r.Section("ANOMALY ANALYSIS")
	fmt.Fprintf(r.out, "Total Anomalies: %d\n", o.TotalAnomalies)
	fmt.Fprintf(r.out, "Critical Anomalies: %d\n", o.CriticalAnomalies)

	mostCommon := "n/a"
	if o.HasAnomalies {
		mostCommon = o.MostCommonType
	}
	fmt.Fprintf(r.out, "Most Common Anomaly: %s\n", mostCommon)

	if len(o.BySeverity) == 0 {
		return
	}
	fmt.Fprintln(r.out, "\nAnomaly Distribution by Severity:")
	for _, c := range o.BySeverity {
		fmt.Fprintf(r.out, "  %s: %d\n", models.SeverityLabel(c.Value), c.Count)
	}
}

// Performance prints the PERFORMANCE METRICS section
func (r *Reporter) Performance(vehicles []models.Vehicle) {
	r.Section("PERFORMANCE METRICS")
	if len(vehicles) == 0 {
		fmt.Fprintln(r.out, "No vehicle data available; skipping fleet statistics")
		return
	}

	fastest := top(vehicles, func(v models.Vehicle) float64 { return v.AvgSpeed })
	fmt.Fprintf(r.out, "Fastest Average Vehicle: %s - %.1f km/h\n", fastest.DisplayName(), fastest.AvgSpeed)

	farthest := top(vehicles, func(v models.Vehicle) float64 { return v.TotalDistance })
	fmt.Fprintf(r.out, "Most Distance Traveled: %s - %.1f km\n", farthest.DisplayName(), farthest.TotalDistance)

	worst := top(vehicles, func(v models.Vehicle) float64 { return float64(v.TotalAnomalies) })
	fmt.Fprintf(r.out, "Most Anomalies: %s - %d anomalies\n", worst.DisplayName(), worst.TotalAnomalies)
}

// Describe prints the descriptive statistics table for the telemetry columns
func (r *Reporter) Describe(columns []models.Statistics) {
	r.Section("DESCRIPTIVE STATISTICS")
	for _, s := range columns {
		fmt.Fprintf(r.out, "\n%s (n=%d)\n", s.Column, s.Count)
		if s.Count == 0 {
			fmt.Fprintln(r.out, "  no data")
			continue
		}
		fmt.Fprintf(r.out, "  mean: %.2f  median: %.2f  std: %.2f\n", s.Mean, s.Median, s.StdDeviation)
		fmt.Fprintf(r.out, "  min: %.2f  max: %.2f  p95: %.2f\n", s.Min, s.Max, s.Percentile95)
		fmt.Fprintf(r.out, "  cv: %.3f  outliers: %d  trend: %+.4f/row\n",
			s.CoefficientOfVariation, s.OutlierCount, s.TrendSlope)
	}
}

// DescribeColumns computes the descriptive statistics of the numeric telemetry columns
func DescribeColumns(vehicles []models.Vehicle) []models.Statistics {
	columns := []struct {
		name string
		get  func(models.Vehicle) float64
	}{
		{"Avg Speed (km/h)", func(v models.Vehicle) float64 { return v.AvgSpeed }},
		{"Current Speed", func(v models.Vehicle) float64 { return v.CurrentSpeed }},
		{"Current RPM", func(v models.Vehicle) float64 { return v.CurrentRPM }},
		{"Current Temperature", func(v models.Vehicle) float64 { return v.CurrentTemperature }},
		{"Current Fuel Level", func(v models.Vehicle) float64 { return v.CurrentFuelLevel }},
	}

	out := make([]models.Statistics, 0, len(columns))
	for _, c := range columns {
		out = append(out, stats.Describe(c.name, stats.Column(vehicles, c.get)))
	}
	return out
}

// Banner prints the run title
func Banner(out io.Writer, title string) {
	fmt.Fprintln(out, title)
	fmt.Fprintln(out, strings.Repeat("=", 50))
}

func top(vehicles []models.Vehicle, metric func(models.Vehicle) float64) models.Vehicle {
	i, _ := stats.ArgMax(stats.Column(vehicles, metric))
	return vehicles[i]
}
