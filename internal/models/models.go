package models

import (
	"fmt"
	"strings"
)

// VehicleState is the operational status reported for a vehicle
type VehicleState string

// Vehicle states exported by the web application
const (
	StateNormal      VehicleState = "NORMAL"
	StateWarning     VehicleState = "WARNING"
	StateCritical    VehicleState = "CRITICAL"
	StateOffline     VehicleState = "OFFLINE"
	StateMaintenance VehicleState = "MAINTENANCE"
)

// Vehicle is one row of the vehicles export
type Vehicle struct {
	ID           string
	LicensePlate string
	MakeModel    string
	State        VehicleState

	AvgSpeed       float64 // km/h
	MaxSpeed       float64 // km/h, optional column
	TotalDistance  float64 // km
	HarshEvents    int
	TotalAnomalies int

	CurrentSpeed       float64
	CurrentRPM         float64
	CurrentTemperature float64 // Celsius
	CurrentFuelLevel   float64 // percent
	Latitude           float64
	Longitude          float64

	LastSeen string
}

// Make returns the first word of the make/model field
func (v Vehicle) Make() string {
	fields := strings.Fields(v.MakeModel)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// DisplayName renders the vehicle as "Make Model (PLATE)"
func (v Vehicle) DisplayName() string {
	return fmt.Sprintf("%s (%s)", v.MakeModel, v.LicensePlate)
}

// Anomaly is one row of the anomalies export
type Anomaly struct {
	Type     string
	Severity int

	// Optional columns; zero when absent from the export.
	Timestamp    string
	VehicleID    string
	SensorName   string
	Value        float64
	Description  string
	Priority     string
	Acknowledged bool
	Location     string
	MLScore      float64
}

var severityLabels = map[int]string{
	1: "Low",
	2: "Medium",
	3: "High",
	4: "Critical",
	5: "Emergency",
}

// CriticalSeverity is the lowest severity counted as a critical anomaly
const CriticalSeverity = 4

// SeverityLabel maps a severity level to its display name
func SeverityLabel(severity int) string {
	if label, ok := severityLabels[severity]; ok {
		return label
	}
	return "Unknown"
}

// Dataset holds both loaded tables. It is never mutated after loading.
type Dataset struct {
	Vehicles  []Vehicle
	Anomalies []Anomaly
}
