package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"example.com/backstage/services/telematics/config"
	"example.com/backstage/services/telematics/internal/charts"
	"example.com/backstage/services/telematics/internal/metrics"
	"example.com/backstage/services/telematics/internal/services"
	"example.com/backstage/services/telematics/internal/tracing"
)

var (
	// openImage displays the rendered charts
	openImage = charts.Open

	cfgFile string
	debug   bool
	noOpen  bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "telematics",
	Short: "Analyze vehicle telematics exports",
	Long: `Loads the vehicle and anomaly CSV exports of the telematics web application,
prints fleet statistics, renders a chart panel, derives actionable insights
and writes a summary report.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *services.AnalysisService) error {
			return svc.Run(ctx)
		})
	},
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or ./app.env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noOpen, "no-open", false, "do not open the rendered charts in an image viewer")
}

func initConfig() error {
	var err error
	cfg, err = config.LoadConfig(cfgFile)
	if err != nil {
		return err
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && os.Getenv("LOG_LEVEL") == "" {
		zerolog.SetGlobalLevel(level)
	}
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if noOpen {
		cfg.Charts.Open = false
	}
	return nil
}

// withService wires the analysis service with its tracer, metrics and sinks,
// runs fn and releases everything afterwards
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *services.AnalysisService) error) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer, _ = tracing.NewTracer(config.TracingConfig{})
	}
	defer tracer.Close()

	metricsCollector := metrics.NewMetrics()

	sinks, closers := initSinks(cfg)
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close sink")
			}
		}
	}()

	publisher := services.NewPublisher(metricsCollector, tracer, sinks...)
	svc := services.NewAnalysisService(cfg, cmd.OutOrStdout(), tracer, metricsCollector, publisher).
		WithImageOpener(openImage)

	return fn(ctx, svc)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
