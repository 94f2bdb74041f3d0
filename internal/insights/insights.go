// Package insights turns the loaded dataset into actionable recommendations.
package insights

import (
	"fmt"
	"io"

	"example.com/backstage/services/telematics/internal/models"
	"example.com/backstage/services/telematics/internal/report"
	"example.com/backstage/services/telematics/internal/stats"
)

// Thresholds parameterise the rule table
type Thresholds struct {
	LowSpeedKmh  float64
	HighSpeedKmh float64
	LowFuelPct   float64
	OverheatC    float64
	Quantile     float64
}

// DefaultThresholds returns the stock fleet thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowSpeedKmh:  40,
		HighSpeedKmh: 80,
		LowFuelPct:   20,
		OverheatC:    100,
		Quantile:     0.8,
	}
}

// Rule evaluates one insight. It returns no lines when it does not fire.
type Rule struct {
	Name     string
	Evaluate func(ds *models.Dataset, th Thresholds) []string
}

// DefaultRules are evaluated in order
var DefaultRules = []Rule{
	{
		Name: "fleet_speed",
		Evaluate: func(ds *models.Dataset, th Thresholds) []string {
			avg, ok := stats.Mean(report.AvgSpeeds(ds.Vehicles))
			switch {
			case !ok:
				return nil
			case avg < th.LowSpeedKmh:
				return []string{"Fleet average speed is low - consider route optimization"}
			case avg > th.HighSpeedKmh:
				return []string{"Fleet average speed is high - monitor for safety compliance"}
			}
			return nil
		},
	},
	{
		Name: "low_fuel",
		Evaluate: func(ds *models.Dataset, th Thresholds) []string {
			n := stats.CountWhere(ds.Vehicles, func(v models.Vehicle) bool {
				return v.CurrentFuelLevel < th.LowFuelPct
			})
			if n == 0 {
				return nil
			}
			return []string{fmt.Sprintf("%d vehicles have low fuel levels (<%g%%) - schedule refueling", n, th.LowFuelPct)}
		},
	},
	{
		Name: "maintenance",
		Evaluate: func(ds *models.Dataset, th Thresholds) []string {
			candidates := report.MaintenanceCandidates(ds.Vehicles, th.Quantile)
			if len(candidates) == 0 {
				return nil
			}
			lines := []string{fmt.Sprintf("%d vehicles have high anomaly counts - prioritize maintenance:", len(candidates))}
			for _, v := range candidates {
				lines = append(lines, fmt.Sprintf("   - %s: %d anomalies", v.DisplayName(), v.TotalAnomalies))
			}
			return lines
		},
	},
	{
		Name: "critical_state",
		Evaluate: func(ds *models.Dataset, _ Thresholds) []string {
			n := report.CountState(ds.Vehicles, models.StateCritical)
			if n == 0 {
				return nil
			}
			return []string{fmt.Sprintf("%d vehicles in CRITICAL state - immediate attention required", n)}
		},
	},
	{
		Name: "aggressive_driving",
		Evaluate: func(ds *models.Dataset, th Thresholds) []string {
			n := len(report.AggressiveDrivers(ds.Vehicles, th.Quantile))
			if n == 0 {
				return nil
			}
			return []string{fmt.Sprintf("%d vehicles show aggressive driving patterns - driver training recommended", n)}
		},
	},
	{
		Name: "anomaly_pattern",
		Evaluate: func(ds *models.Dataset, _ Thresholds) []string {
			kind, count, ok := stats.Mode(report.AnomalyTypes(ds.Anomalies))
			if !ok {
				kind = "n/a"
			}
			return []string{fmt.Sprintf("Most common anomaly: %s (%d occurrences)", kind, count)}
		},
	},
	{
		Name: "overheating",
		Evaluate: func(ds *models.Dataset, th Thresholds) []string {
			n := stats.CountWhere(ds.Vehicles, func(v models.Vehicle) bool {
				return v.CurrentTemperature > th.OverheatC
			})
			if n == 0 {
				return nil
			}
			return []string{fmt.Sprintf("%d vehicles showing high temperatures - check cooling systems", n)}
		},
	},
}

// Generator evaluates a rule table against a dataset
type Generator struct {
	rules      []Rule
	thresholds Thresholds
}

// NewGenerator creates a generator over DefaultRules
func NewGenerator(th Thresholds) *Generator {
	return &Generator{
		rules:      DefaultRules,
		thresholds: th,
	}
}

// Generate returns the insight lines of every firing rule, in rule order
func (g *Generator) Generate(ds *models.Dataset) []string {
	var lines []string
	for _, rule := range g.rules {
		lines = append(lines, rule.Evaluate(ds, g.thresholds)...)
	}
	return lines
}

// Write prints the ACTIONABLE INSIGHTS section and returns the number of lines written
func (g *Generator) Write(out io.Writer, ds *models.Dataset) int {
	report.NewReporter(out).Section("ACTIONABLE INSIGHTS")
	lines := g.Generate(ds)
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	return len(lines)
}
