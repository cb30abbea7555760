package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all cloud bill notifier configuration.
type Config struct {
	Vault     VaultConfig     `mapstructure:"vault"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Logging   LoggingConfig   `mapstructure:"logging"`

	// Timeout bounds every external call of a run.
	Timeout time.Duration `mapstructure:"timeout"`
}

// VaultConfig defines the secrets broker connection.
type VaultConfig struct {
	Addr     string        `mapstructure:"addr"`
	AuthRole string        `mapstructure:"auth_role"`
	Region   string        `mapstructure:"region"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ProvidersConfig defines the per-provider broker paths and query targets.
type ProvidersConfig struct {
	AWS   AWSConfig   `mapstructure:"aws"`
	GCP   GCPConfig   `mapstructure:"gcp"`
	Azure AzureConfig `mapstructure:"azure"`
}

// AWSConfig defines the AWS billing adapter settings.
type AWSConfig struct {
	Path   string `mapstructure:"path"`
	Region string `mapstructure:"region"`
}

// GCPConfig defines the GCP billing adapter settings. BillingTable is the
// BigQuery billing-export table to aggregate; it is configuration so the
// same binary runs against sample and production exports.
type GCPConfig struct {
	Path         string `mapstructure:"path"`
	BillingTable string `mapstructure:"billing_table"`
}

// AzureConfig defines the Azure billing adapter settings.
type AzureConfig struct {
	Path string `mapstructure:"path"`
}

// NotifyConfig defines report delivery channels.
type NotifyConfig struct {
	SNS   SNSConfig   `mapstructure:"sns"`
	Slack SlackConfig `mapstructure:"slack"`
}

// SNSConfig defines the SNS topic the report is published to.
type SNSConfig struct {
	TopicARN string `mapstructure:"topic_arn"`
	Region   string `mapstructure:"region"`
}

// SlackConfig defines the optional Slack mirror.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".cloudbills"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	v.SetDefault("vault.timeout", "30s")
	v.SetDefault("providers.aws.region", "ap-southeast-2")
	v.SetDefault("notify.sns.region", "ap-southeast-2")
	v.SetDefault("notify.slack.enabled", false)
	v.SetDefault("notify.slack.channel", "#cloud-bills")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("timeout", "60s")

	// Environment variables
	v.SetEnvPrefix("CLOUDBILLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The Lambda deployment exported these names; keep honoring them.
	_ = v.BindEnv("vault.addr", "CLOUDBILLS_VAULT_ADDR", "VAULT_ADDR")
	_ = v.BindEnv("notify.sns.topic_arn", "CLOUDBILLS_NOTIFY_SNS_TOPIC_ARN", "SNS_ARN")
	_ = v.BindEnv("vault.region", "CLOUDBILLS_VAULT_REGION", "REGION")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that everything a full run needs is present.
func (c *Config) Validate() error {
	var missing []string

	if c.Vault.Addr == "" {
		missing = append(missing, "vault.addr")
	}
	if c.Providers.AWS.Path == "" {
		missing = append(missing, "providers.aws.path")
	}
	if c.Providers.GCP.Path == "" {
		missing = append(missing, "providers.gcp.path")
	}
	if c.Providers.GCP.BillingTable == "" {
		missing = append(missing, "providers.gcp.billing_table")
	}
	if c.Providers.Azure.Path == "" {
		missing = append(missing, "providers.azure.path")
	}
	if c.Notify.SNS.TopicARN == "" {
		missing = append(missing, "notify.sns.topic_arn")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
