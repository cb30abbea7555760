package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Query last month's cloud bills and publish the report",
	Long: `Authenticate to the secrets broker, query last calendar month's spend on
AWS, GCP and Azure with short-lived scoped credentials, and publish the
summary to the configured SNS topic. A provider failure leaves its line
blank; only a broker authentication failure aborts the run.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	orchestrator, err := initOrchestrator(cfg, true)
	if err != nil {
		return err
	}

	if _, err := orchestrator.Run(cmd.Context()); err != nil {
		return fmt.Errorf("billing run: %w", err)
	}
	return nil
}
