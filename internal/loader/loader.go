// Package loader reads the vehicle and anomaly CSV exports into memory.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/telematics/internal/models"
)

// ErrFileNotFound is matched by errors.Is when an input file is absent or unreadable
var ErrFileNotFound = errors.New("file not found")

// Vehicle export columns
const (
	ColVehicleID          = "Vehicle ID"
	ColLicensePlate       = "License Plate"
	ColMakeModel          = "Make Model"
	ColState              = "State"
	ColAvgSpeed           = "Avg Speed (km/h)"
	ColMaxSpeed           = "Max Speed (km/h)"
	ColTotalDistance      = "Total Distance (km)"
	ColTotalAnomalies     = "Total Anomalies"
	ColHarshEvents        = "Harsh Events"
	ColCurrentSpeed       = "Current Speed"
	ColCurrentTemperature = "Current Temperature"
	ColCurrentFuelLevel   = "Current Fuel Level"
	ColCurrentRPM         = "Current RPM"
	ColLatitude           = "Latitude"
	ColLongitude          = "Longitude"
	ColLastSeen           = "Last Seen"
)

// Anomaly export columns
const (
	ColType         = "Type"
	ColSeverity     = "Severity"
	ColTimestamp    = "Timestamp"
	ColSensorName   = "Sensor Name"
	ColValue        = "Value"
	ColDescription  = "Description"
	ColPriority     = "Priority"
	ColAcknowledged = "Acknowledged"
	ColLocation     = "Location"
	ColMLScore      = "ML Score"
)

// VehicleColumns lists the columns every vehicles export must carry
var VehicleColumns = []string{
	ColVehicleID, ColLicensePlate, ColMakeModel, ColState,
	ColAvgSpeed, ColTotalDistance, ColTotalAnomalies,
	ColCurrentSpeed, ColCurrentTemperature, ColCurrentFuelLevel, ColCurrentRPM,
	ColHarshEvents, ColLatitude, ColLongitude,
}

// AnomalyColumns lists the columns every anomalies export must carry
var AnomalyColumns = []string{ColType, ColSeverity}

// FileError reports an input file that could not be opened
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrFileNotFound, e.Path, e.Err)
}

// Is lets errors.Is match ErrFileNotFound
func (e *FileError) Is(target error) bool {
	return target == ErrFileNotFound
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Load reads both exports. The first failure aborts the load.
func Load(vehiclesPath, anomaliesPath string) (*models.Dataset, error) {
	vehicles, err := LoadVehicles(vehiclesPath)
	if err != nil {
		return nil, err
	}

	anomalies, err := LoadAnomalies(anomaliesPath)
	if err != nil {
		return nil, err
	}

	return &models.Dataset{Vehicles: vehicles, Anomalies: anomalies}, nil
}

// LoadVehicles reads the vehicles export at path
func LoadVehicles(path string) ([]models.Vehicle, error) {
	t, err := readTable(path, VehicleColumns)
	if err != nil {
		return nil, err
	}

	vehicles := make([]models.Vehicle, 0, len(t.rows))
	for i, rec := range t.rows {
		r := t.row(i, rec)
		v := models.Vehicle{
			ID:                 r.str(ColVehicleID),
			LicensePlate:       r.str(ColLicensePlate),
			MakeModel:          r.str(ColMakeModel),
			State:              models.VehicleState(r.str(ColState)),
			AvgSpeed:           r.float(ColAvgSpeed),
			MaxSpeed:           r.optFloat(ColMaxSpeed),
			TotalDistance:      r.float(ColTotalDistance),
			HarshEvents:        r.int(ColHarshEvents),
			TotalAnomalies:     r.int(ColTotalAnomalies),
			CurrentSpeed:       r.float(ColCurrentSpeed),
			CurrentRPM:         r.float(ColCurrentRPM),
			CurrentTemperature: r.float(ColCurrentTemperature),
			CurrentFuelLevel:   r.float(ColCurrentFuelLevel),
			Latitude:           r.float(ColLatitude),
			Longitude:          r.float(ColLongitude),
			LastSeen:           r.str(ColLastSeen),
		}
		if r.err != nil {
			return nil, r.err
		}
		vehicles = append(vehicles, v)
	}

	log.Debug().Str("path", path).Int("rows", len(vehicles)).Msg("vehicles loaded")
	return vehicles, nil
}

// LoadAnomalies reads the anomalies export at path
func LoadAnomalies(path string) ([]models.Anomaly, error) {
	t, err := readTable(path, AnomalyColumns)
	if err != nil {
		return nil, err
	}

	anomalies := make([]models.Anomaly, 0, len(t.rows))
	for i, rec := range t.rows {
		r := t.row(i, rec)
		a := models.Anomaly{
			Type:         r.str(ColType),
			Severity:     r.int(ColSeverity),
			Timestamp:    r.str(ColTimestamp),
			VehicleID:    r.str(ColVehicleID),
			SensorName:   r.str(ColSensorName),
			Value:        r.optFloat(ColValue),
			Description:  r.str(ColDescription),
			Priority:     r.str(ColPriority),
			Acknowledged: r.optBool(ColAcknowledged),
			Location:     r.str(ColLocation),
			MLScore:      r.optFloat(ColMLScore),
		}
		if r.err != nil {
			return nil, r.err
		}
		anomalies = append(anomalies, a)
	}

	log.Debug().Str("path", path).Int("rows", len(anomalies)).Msg("anomalies loaded")
	return anomalies, nil
}

type table struct {
	path   string
	header map[string]int
	rows   [][]string
}

func readTable(path string, required []string) (*table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.Errorf("%s: missing header row", path)
		}
		return nil, errors.Wrapf(err, "%s: unable to read header", path)
	}

	t := &table{path: path, header: make(map[string]int, len(headers))}
	for i, h := range headers {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := t.header[h]; !dup {
			t.header[h] = i
		}
	}

	for _, col := range required {
		if _, ok := t.header[col]; !ok {
			return nil, errors.Errorf("%s: missing required column %q", path, col)
		}
	}

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "%s: unable to read CSV", path)
		}
		t.rows = append(t.rows, rec)
	}

	return t, nil
}

// rowReader extracts typed cells from one record, keeping the first error
type rowReader struct {
	t    *table
	rec  []string
	line int
	err  error
}

func (t *table) row(i int, rec []string) *rowReader {
	// line numbers are 1-based and the header occupies line 1
	return &rowReader{t: t, rec: rec, line: i + 2}
}

func (r *rowReader) cell(col string) (string, bool) {
	i, ok := r.t.header[col]
	if !ok || i >= len(r.rec) {
		return "", false
	}
	return strings.TrimSpace(r.rec[i]), true
}

func (r *rowReader) str(col string) string {
	v, _ := r.cell(col)
	return v
}

func (r *rowReader) fail(col, raw string, err error) {
	if r.err == nil {
		r.err = errors.Wrapf(err, "%s:%d: invalid %q value %q", r.t.path, r.line, col, raw)
	}
}

func (r *rowReader) float(col string) float64 {
	raw, _ := r.cell(col)
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.fail(col, raw, err)
		return 0
	}
	return f
}

func (r *rowReader) int(col string) int {
	raw, _ := r.cell(col)
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	// tolerate integral floats such as "3.0"
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) {
		if err == nil {
			err = errors.New("not an integer")
		}
		r.fail(col, raw, err)
		return 0
	}
	return int(f)
}

func (r *rowReader) optFloat(col string) float64 {
	raw, ok := r.cell(col)
	if !ok || raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.fail(col, raw, err)
		return 0
	}
	return f
}

func (r *rowReader) optBool(col string) bool {
	raw, ok := r.cell(col)
	if !ok || raw == "" {
		return false
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		r.fail(col, raw, err)
		return false
	}
	return b
}
