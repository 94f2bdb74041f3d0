package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"example.com/backstage/services/telematics/internal/services"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the summary report without running the analysis",
	Long:  `Reloads both exports, derives the fleet summary metrics, writes them to the summary CSV and publishes them to the enabled sinks.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *services.AnalysisService) error {
			svc.Export(ctx, nil)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
