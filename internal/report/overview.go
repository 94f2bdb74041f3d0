package report

import (
	"sort"

	"example.com/backstage/services/telematics/internal/models"
	"example.com/backstage/services/telematics/internal/stats"
)

// FleetOverview aggregates the vehicle table
type FleetOverview struct {
	TotalVehicles    int
	ActiveVehicles   int
	CriticalVehicles int

	// AverageSpeed and TotalDistance are only meaningful when HasVehicles is set.
	HasVehicles   bool
	AverageSpeed  float64
	TotalDistance float64
	AverageFuel   float64
}

// AnomalyOverview aggregates the anomaly table
type AnomalyOverview struct {
	TotalAnomalies    int
	CriticalAnomalies int

	HasAnomalies    bool
	MostCommonType  string
	MostCommonCount int

	// BySeverity is ordered by ascending severity and only holds present levels.
	BySeverity []stats.Count[int]
}

// Fleet computes the fleet-level aggregates
func Fleet(vehicles []models.Vehicle) FleetOverview {
	o := FleetOverview{
		TotalVehicles: len(vehicles),
		ActiveVehicles: stats.CountWhere(vehicles, func(v models.Vehicle) bool {
			return v.State != models.StateOffline
		}),
		CriticalVehicles: CountState(vehicles, models.StateCritical),
	}

	o.AverageSpeed, o.HasVehicles = stats.Mean(AvgSpeeds(vehicles))
	o.TotalDistance = stats.Sum(stats.Column(vehicles, func(v models.Vehicle) float64 { return v.TotalDistance }))
	o.AverageFuel, _ = stats.Mean(FuelLevels(vehicles))
	return o
}

// Anomalies computes the anomaly-level aggregates
func Anomalies(anomalies []models.Anomaly) AnomalyOverview {
	o := AnomalyOverview{
		TotalAnomalies: len(anomalies),
		CriticalAnomalies: stats.CountWhere(anomalies, func(a models.Anomaly) bool {
			return a.Severity >= models.CriticalSeverity
		}),
	}

	o.MostCommonType, o.MostCommonCount, o.HasAnomalies = stats.Mode(AnomalyTypes(anomalies))

	o.BySeverity = stats.ValueCounts(stats.Project(anomalies, func(a models.Anomaly) int { return a.Severity }))
	sort.Slice(o.BySeverity, func(i, j int) bool {
		return o.BySeverity[i].Value < o.BySeverity[j].Value
	})
	return o
}

// CountState counts the vehicles in the given state
func CountState(vehicles []models.Vehicle, state models.VehicleState) int {
	return stats.CountWhere(vehicles, func(v models.Vehicle) bool { return v.State == state })
}

// AboveQuantile returns, in table order, the vehicles whose metric is strictly
// greater than the q-quantile of that metric over the whole table.
func AboveQuantile(vehicles []models.Vehicle, q float64, metric func(models.Vehicle) float64) []models.Vehicle {
	threshold, ok := stats.Quantile(stats.Column(vehicles, metric), q)
	if !ok {
		return nil
	}

	var out []models.Vehicle
	for _, v := range vehicles {
		if metric(v) > threshold {
			out = append(out, v)
		}
	}
	return out
}

// MaintenanceCandidates are the vehicles with an anomaly count above the q-quantile
func MaintenanceCandidates(vehicles []models.Vehicle, q float64) []models.Vehicle {
	return AboveQuantile(vehicles, q, func(v models.Vehicle) float64 { return float64(v.TotalAnomalies) })
}

// AggressiveDrivers are the vehicles with a harsh-event count above the q-quantile
func AggressiveDrivers(vehicles []models.Vehicle, q float64) []models.Vehicle {
	return AboveQuantile(vehicles, q, func(v models.Vehicle) float64 { return float64(v.HarshEvents) })
}

// AvgSpeeds projects the average speed column
func AvgSpeeds(vehicles []models.Vehicle) []float64 {
	return stats.Column(vehicles, func(v models.Vehicle) float64 { return v.AvgSpeed })
}

// FuelLevels projects the current fuel level column
func FuelLevels(vehicles []models.Vehicle) []float64 {
	return stats.Column(vehicles, func(v models.Vehicle) float64 { return v.CurrentFuelLevel })
}

// AnomalyTypes projects the anomaly type column
func AnomalyTypes(anomalies []models.Anomaly) []string {
	return stats.Project(anomalies, func(a models.Anomaly) string { return a.Type })
}
