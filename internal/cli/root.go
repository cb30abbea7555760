package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/carl-sl-li/lambda-no-secret/internal/config"
	"github.com/carl-sl-li/lambda-no-secret/pkg/notify"
	"github.com/carl-sl-li/lambda-no-secret/pkg/providers"
	"github.com/carl-sl-li/lambda-no-secret/pkg/vault"
	"github.com/carl-sl-li/lambda-no-secret/pkg/workflow"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "cloudbills",
	Short: "Cloud bill notifier - monthly AWS/GCP/Azure spend summary",
	Long: `cloudbills queries last calendar month's spend across AWS, GCP and Azure
using short-lived credentials issued by a Vault secrets broker, and publishes
a three-line summary to an SNS topic. Run it from a monthly scheduler.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.cloudbills/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initRegistry wires the three billing adapters against one broker
// session, in the fixed report order.
func initRegistry(cfg *config.Config, broker *vault.Client) (*providers.Registry, error) {
	registry := providers.NewRegistry()

	adapters := []providers.Provider{
		providers.NewAWS(broker, cfg.Providers.AWS.Path, cfg.Providers.AWS.Region),
		providers.NewGCP(broker, cfg.Providers.GCP.Path, cfg.Providers.GCP.BillingTable),
		providers.NewAzure(broker, cfg.Providers.Azure.Path),
	}
	for _, a := range adapters {
		if err := registry.Register(a); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// initNotifiers creates report delivery channels from config.
func initNotifiers(cfg *config.Config, broker *vault.Client) []notify.Notifier {
	notifiers := []notify.Notifier{
		notify.NewSNSNotifier(broker, cfg.Providers.AWS.Path, cfg.Notify.SNS.TopicARN, cfg.Notify.SNS.Region),
	}

	if cfg.Notify.Slack.Enabled && cfg.Notify.Slack.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(
			cfg.Notify.Slack.WebhookURL,
			cfg.Notify.Slack.Channel,
		))
	}

	return notifiers
}

// initOrchestrator creates a fully wired workflow. When publish is false
// the report is computed but not delivered anywhere.
func initOrchestrator(cfg *config.Config, publish bool) (*workflow.Orchestrator, error) {
	logger := newLogger(cfg)

	broker, err := vault.New(vault.Config{
		Addr:     cfg.Vault.Addr,
		AuthRole: cfg.Vault.AuthRole,
		Region:   cfg.Vault.Region,
		Timeout:  cfg.Vault.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init broker client: %w", err)
	}

	registry, err := initRegistry(cfg, broker)
	if err != nil {
		return nil, err
	}

	var notifiers []notify.Notifier
	if publish {
		notifiers = initNotifiers(cfg, broker)
	}

	return workflow.New(broker, registry, notifiers, logger,
		workflow.WithCallTimeout(cfg.Timeout)), nil
}
