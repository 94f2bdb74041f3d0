package services

import (
	"context"
	"fmt"
	"io"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/telematics/config"
	"example.com/backstage/services/telematics/internal/charts"
	"example.com/backstage/services/telematics/internal/export"
	"example.com/backstage/services/telematics/internal/insights"
	"example.com/backstage/services/telematics/internal/loader"
	"example.com/backstage/services/telematics/internal/metrics"
	"example.com/backstage/services/telematics/internal/models"
	"example.com/backstage/services/telematics/internal/report"
	"example.com/backstage/services/telematics/internal/tracing"
)

// Title is printed at the top of every run
const Title = "Vehicle Telematics Data Analysis"

// AnalysisService runs the analysis stages in sequence, writing the
// human-readable report to out
type AnalysisService struct {
	cfg       config.Config
	out       io.Writer
	tracer    tracing.Tracer
	metrics   *metrics.Metrics
	publisher *Publisher
	openImage func(path string) error
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(
	cfg config.Config,
	out io.Writer,
	tracer tracing.Tracer,
	m *metrics.Metrics,
	publisher *Publisher,
) *AnalysisService {
	return &AnalysisService{
		cfg:       cfg,
		out:       out,
		tracer:    tracer,
		metrics:   m,
		publisher: publisher,
		openImage: charts.Open,
	}
}

// WithImageOpener replaces the function used to display the rendered charts
func (s *AnalysisService) WithImageOpener(open func(path string) error) *AnalysisService {
	s.openImage = open
	return s
}

// Run performs the full analysis followed by the summary export. A missing
// input file halts the analysis but not the export, and is not an error.
func (s *AnalysisService) Run(ctx context.Context) error {
	txn := s.tracer.StartTransaction("telematics-analysis")
	defer s.tracer.EndTransaction(txn)

	report.Banner(s.out, Title)

	if err := s.Analyze(txn); err != nil {
		s.tracer.RecordError(txn, err)
		return err
	}

	s.Export(ctx, txn)
	s.printGeneratedFiles()
	s.metrics.Log(log.Logger)
	return nil
}

// Analyze loads the exports and runs the report, visualization and insight stages
func (s *AnalysisService) Analyze(txn *newrelic.Transaction) error {
	ds, err := s.load(txn)
	if err != nil {
		if errors.Is(err, loader.ErrFileNotFound) {
			fmt.Fprintf(s.out, "Error loading CSV files: %v\n", err)
			fmt.Fprintln(s.out, "Please make sure to export data from the web application first!")
			log.Warn().Err(err).Msg("input missing, analysis halted")
			return nil
		}
		return err
	}

	s.tracer.AddAttribute(txn, "vehicles", len(ds.Vehicles))
	s.tracer.AddAttribute(txn, "anomalies", len(ds.Anomalies))

	if err := s.stage("report", txn, func() error {
		report.NewReporter(s.out).Report(ds)
		return nil
	}); err != nil {
		return err
	}

	if err := s.stage("visualize", txn, func() error {
		return s.visualize(ds)
	}); err != nil {
		return err
	}

	return s.stage("insights", txn, func() error {
		n := insights.NewGenerator(s.thresholds()).Write(s.out, ds)
		s.metrics.IncrementCounterBy("insights_generated", int64(n))
		return nil
	})
}

// Export writes the summary report and publishes it. Failures are reported
// on out and never propagate.
func (s *AnalysisService) Export(ctx context.Context, txn *newrelic.Transaction) *models.Summary {
	var summary *models.Summary
	err := s.stage("export", txn, func() error {
		var err error
		summary, err = s.ExportSummary()
		return err
	})
	if err != nil {
		s.tracer.RecordError(txn, err)
		fmt.Fprintf(s.out, "Error creating summary report: %v\n", err)
		log.Error().Err(err).Msg("summary export failed")
		return nil
	}
	fmt.Fprintf(s.out, "Summary report exported as '%s'\n", s.cfg.Output.SummaryCSV)

	if s.publisher != nil {
		_ = s.stage("publish", txn, func() error {
			s.publisher.Publish(ctx, summary)
			return nil
		})
	}
	return summary
}

// ExportSummary reloads both exports, derives the summary and writes it
func (s *AnalysisService) ExportSummary() (*models.Summary, error) {
	ds, err := loader.Load(s.cfg.Input.Vehicles, s.cfg.Input.Anomalies)
	if err != nil {
		return nil, err
	}

	summary := export.BuildSummary(ds, s.cfg.Insights.Quantile)
	if err := export.WriteCSV(s.cfg.Output.SummaryCSV, summary); err != nil {
		return nil, err
	}
	if s.cfg.Output.SummaryJSON != "" {
		if err := export.WriteJSON(s.cfg.Output.SummaryJSON, summary); err != nil {
			return nil, err
		}
	}

	log.Info().Str("run_id", summary.RunID.String()).Str("path", s.cfg.Output.SummaryCSV).Msg("summary exported")
	return summary, nil
}

// Describe prints the descriptive statistics of the vehicle telemetry columns
func (s *AnalysisService) Describe() error {
	vehicles, err := loader.LoadVehicles(s.cfg.Input.Vehicles)
	if err != nil {
		return err
	}
	report.Banner(s.out, Title)
	report.NewReporter(s.out).Describe(report.DescribeColumns(vehicles))
	return nil
}

func (s *AnalysisService) load(txn *newrelic.Transaction) (*models.Dataset, error) {
	var ds *models.Dataset
	err := s.stage("load", txn, func() error {
		var err error
		ds, err = loader.Load(s.cfg.Input.Vehicles, s.cfg.Input.Anomalies)
		return err
	})
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(s.out, "Loaded %d vehicles\n", len(ds.Vehicles))
	fmt.Fprintf(s.out, "Loaded %d anomalies\n", len(ds.Anomalies))
	s.metrics.IncrementCounterBy("vehicles_loaded", int64(len(ds.Vehicles)))
	s.metrics.IncrementCounterBy("anomalies_loaded", int64(len(ds.Anomalies)))
	return ds, nil
}

func (s *AnalysisService) visualize(ds *models.Dataset) error {
	report.NewReporter(s.out).Section("GENERATING VISUALIZATIONS")

	path := s.cfg.Output.Image
	err := charts.Render(ds, charts.Options{
		Path:     path,
		DPI:      s.cfg.Charts.DPI,
		WidthIn:  s.cfg.Charts.WidthIn,
		HeightIn: s.cfg.Charts.HeightIn,
	})
	if errors.Is(err, charts.ErrNoData) {
		fmt.Fprintln(s.out, "No vehicle data available; skipping visualizations")
		log.Warn().Msg("no vehicles to chart")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Visualizations saved as '%s'\n", path)

	if s.cfg.Charts.Open {
		if err := s.openImage(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("unable to display visualizations")
		}
	}
	return nil
}

// stage runs fn inside a tracing segment and records its duration
func (s *AnalysisService) stage(name string, txn *newrelic.Transaction, fn func() error) error {
	segment := s.tracer.StartSpan(name, txn)
	stop := s.metrics.StartTimer(name)
	log.Debug().Str("stage", name).Msg("stage started")

	err := fn()

	stop()
	segment.End()
	if err != nil {
		s.metrics.RecordError("stage." + name)
		log.Debug().Err(err).Str("stage", name).Msg("stage failed")
		return err
	}
	s.metrics.RecordSuccess("stage." + name)
	return nil
}

func (s *AnalysisService) thresholds() insights.Thresholds {
	return insights.Thresholds{
		LowSpeedKmh:  s.cfg.Insights.LowSpeedKmh,
		HighSpeedKmh: s.cfg.Insights.HighSpeedKmh,
		LowFuelPct:   s.cfg.Insights.LowFuelPct,
		OverheatC:    s.cfg.Insights.OverheatC,
		Quantile:     s.cfg.Insights.Quantile,
	}
}

func (s *AnalysisService) printGeneratedFiles() {
	fmt.Fprintln(s.out, "\nAnalysis complete! Check the generated files:")
	fmt.Fprintf(s.out, "   - %s (visualizations)\n", s.cfg.Output.Image)
	fmt.Fprintf(s.out, "   - %s (summary statistics)\n", s.cfg.Output.SummaryCSV)
	if s.cfg.Output.SummaryJSON != "" {
		fmt.Fprintf(s.out, "   - %s (summary document)\n", s.cfg.Output.SummaryJSON)
	}
}
