package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"example.com/backstage/services/telematics/internal/metrics"
	"example.com/backstage/services/telematics/internal/models"
	"example.com/backstage/services/telematics/internal/tracing"
)

// SummaryEventType is the New Relic custom event recorded for each summary
const SummaryEventType = "TelematicsSummary"

// SummarySink receives every exported summary
type SummarySink interface {
	Name() string
	Publish(ctx context.Context, s *models.Summary) error
}

// Publisher fans a summary out to the configured sinks. A failing sink is
// logged and skipped; it never fails the run.
type Publisher struct {
	sinks   []SummarySink
	metrics *metrics.Metrics
	tracer  tracing.Tracer
}

// NewPublisher creates a publisher over sinks
func NewPublisher(m *metrics.Metrics, tracer tracing.Tracer, sinks ...SummarySink) *Publisher {
	return &Publisher{
		sinks:   sinks,
		metrics: m,
		tracer:  tracer,
	}
}

// Publish sends s to every sink and returns how many accepted it
func (p *Publisher) Publish(ctx context.Context, s *models.Summary) int {
	p.tracer.RecordEvent(SummaryEventType, summaryAttributes(s))

	published := 0
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, s); err != nil {
			p.metrics.RecordError("sink." + sink.Name())
			log.Warn().Err(err).Str("sink", sink.Name()).Str("run_id", s.RunID.String()).Msg("failed to publish summary")
			continue
		}
		p.metrics.RecordSuccess("sink." + sink.Name())
		published++
		log.Info().Str("sink", sink.Name()).Str("run_id", s.RunID.String()).Msg("summary published")
	}

	p.metrics.IncrementCounterBy("summaries_published", int64(published))
	return published
}

func summaryAttributes(s *models.Summary) map[string]interface{} {
	attrs := map[string]interface{}{
		"run_id": s.RunID.String(),
	}
	for _, m := range s.Metrics() {
		attrs[m.Name] = m.Value
	}
	return attrs
}
