package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Compute the bill report and print it without publishing",
	Long: `Run the full billing workflow - broker authentication, credentials,
provider queries - but print the assembled report to stdout instead of
publishing it. Useful for verifying broker paths and query configuration.`,
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	orchestrator, err := initOrchestrator(cfg, false)
	if err != nil {
		return err
	}

	rep, err := orchestrator.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("billing run: %w", err)
	}

	fmt.Printf("Subject: %s\n\n%s", rep.Subject, rep.Body())
	return nil
}
