package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"example.com/backstage/services/telematics/internal/services"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print descriptive statistics of the vehicle telemetry",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *services.AnalysisService) error {
			return svc.Describe()
		})
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
