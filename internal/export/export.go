// Package export derives the fleet summary metrics and writes them as CSV and JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"example.com/backstage/services/telematics/internal/models"
	"example.com/backstage/services/telematics/internal/report"
)

var csvHeader = []string{"Metric", "Value"}

// BuildSummary derives the nine summary metrics. Fractional metrics are
// rounded to two decimals; empty tables yield zeros.
func BuildSummary(ds *models.Dataset, quantile float64) *models.Summary {
	fleet := report.Fleet(ds.Vehicles)
	anomalies := report.Anomalies(ds.Anomalies)

	return &models.Summary{
		RunID:                      uuid.New(),
		GeneratedAt:                time.Now().UTC(),
		TotalVehicles:              fleet.TotalVehicles,
		ActiveVehicles:             fleet.ActiveVehicles,
		CriticalVehicles:           fleet.CriticalVehicles,
		AverageFleetSpeed:          round2(fleet.AverageSpeed),
		TotalFleetDistance:         round2(fleet.TotalDistance),
		TotalAnomalies:             anomalies.TotalAnomalies,
		CriticalAnomalies:          anomalies.CriticalAnomalies,
		AverageFuelLevel:           round2(fleet.AverageFuel),
		VehiclesNeedingMaintenance: len(report.MaintenanceCandidates(ds.Vehicles, quantile)),
	}
}

// WriteCSV writes the summary as a two-column Metric,Value table, replacing
// any existing file.
func WriteCSV(path string, s *models.Summary) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(csvHeader); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	for _, m := range s.Metrics() {
		if err := w.Write([]string{m.Name, FormatValue(m)}); err != nil {
			return errors.Wrapf(err, "failed to write metric %q", m.Name)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrapf(err, "failed to flush %s", path)
	}
	return file.Close()
}

// ReadCSV reads a summary report back into its metric rows
func ReadCSV(path string) ([]models.Metric, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	if len(records) == 0 || len(records[0]) != 2 || records[0][0] != csvHeader[0] || records[0][1] != csvHeader[1] {
		return nil, errors.Errorf("%s: expected header %v", path, csvHeader)
	}

	metrics := make([]models.Metric, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != 2 {
			return nil, errors.Errorf("%s:%d: expected 2 fields, got %d", path, i+2, len(rec))
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d: invalid value", path, i+2)
		}
		_, intErr := strconv.Atoi(rec[1])
		metrics = append(metrics, models.Metric{Name: rec[0], Value: v, Integer: intErr == nil})
	}
	return metrics, nil
}

// WriteJSON writes the summary document, replacing any existing file
func WriteJSON(path string, s *models.Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal summary")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// FormatValue renders integers without a fractional part and fractional
// metrics in their shortest form, e.g. 52.3 rather than 52.30.
func FormatValue(m models.Metric) string {
	if m.Integer {
		return fmt.Sprintf("%d", int64(m.Value))
	}
	s := strconv.FormatFloat(m.Value, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// round2 rounds exact halves to even, so 50.125 becomes 50.12
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
