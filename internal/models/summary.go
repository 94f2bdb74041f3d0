package models

import (
	"time"

	"github.com/google/uuid"
)

// Summary is the set of fleet metrics written to the summary report and
// published to the configured sinks
type Summary struct {
	RunID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"run_id"`
	GeneratedAt time.Time `gorm:"not null;index" json:"generated_at"`

	TotalVehicles              int     `gorm:"not null" json:"total_vehicles"`
	ActiveVehicles             int     `gorm:"not null" json:"active_vehicles"`
	CriticalVehicles           int     `gorm:"not null" json:"critical_vehicles"`
	AverageFleetSpeed          float64 `gorm:"not null" json:"average_fleet_speed_kmh"`
	TotalFleetDistance         float64 `gorm:"not null" json:"total_fleet_distance_km"`
	TotalAnomalies             int     `gorm:"not null" json:"total_anomalies"`
	CriticalAnomalies          int     `gorm:"not null" json:"critical_anomalies"`
	AverageFuelLevel           float64 `gorm:"not null" json:"average_fuel_level_pct"`
	VehiclesNeedingMaintenance int     `gorm:"not null" json:"vehicles_needing_maintenance"`
}

// TableName overrides the gorm table name
func (Summary) TableName() string {
	return "summary_runs"
}

// Metric is a single row of the summary report
type Metric struct {
	Name    string
	Value   float64
	Integer bool
}

// Summary report metric names, in report order
const (
	MetricTotalVehicles      = "Total Vehicles"
	MetricActiveVehicles     = "Active Vehicles"
	MetricCriticalVehicles   = "Critical Vehicles"
	MetricAverageFleetSpeed  = "Average Fleet Speed (km/h)"
	MetricTotalFleetDistance = "Total Fleet Distance (km)"
	MetricTotalAnomalies     = "Total Anomalies"
	MetricCriticalAnomalies  = "Critical Anomalies"
	MetricAverageFuelLevel   = "Average Fuel Level (%)"
	MetricNeedingMaintenance = "Vehicles Needing Maintenance"
)

// Metrics returns the nine report rows in their fixed order
func (s *Summary) Metrics() []Metric {
	return []Metric{
		{Name: MetricTotalVehicles, Value: float64(s.TotalVehicles), Integer: true},
		{Name: MetricActiveVehicles, Value: float64(s.ActiveVehicles), Integer: true},
		{Name: MetricCriticalVehicles, Value: float64(s.CriticalVehicles), Integer: true},
		{Name: MetricAverageFleetSpeed, Value: s.AverageFleetSpeed},
		{Name: MetricTotalFleetDistance, Value: s.TotalFleetDistance},
		{Name: MetricTotalAnomalies, Value: float64(s.TotalAnomalies), Integer: true},
		{Name: MetricCriticalAnomalies, Value: float64(s.CriticalAnomalies), Integer: true},
		{Name: MetricAverageFuelLevel, Value: s.AverageFuelLevel},
		{Name: MetricNeedingMaintenance, Value: float64(s.VehiclesNeedingMaintenance), Integer: true},
	}
}

// Statistics describes the distribution of one telemetry column
type Statistics struct {
	Column                 string  `json:"column"`
	Count                  int     `json:"count"`
	Mean                   float64 `json:"mean"`
	Median                 float64 `json:"median"`
	StdDeviation           float64 `json:"std_deviation"`
	Min                    float64 `json:"min"`
	Max                    float64 `json:"max"`
	Percentile95           float64 `json:"percentile_95"`
	TrendSlope             float64 `json:"trend_slope"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
	OutlierCount           int     `json:"outlier_count"`
}
