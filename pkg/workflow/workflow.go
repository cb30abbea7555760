// Package workflow sequences one billing run: compute the period, open the
// broker session, query every provider, assemble and deliver the report.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carl-sl-li/lambda-no-secret/pkg/billing"
	"github.com/carl-sl-li/lambda-no-secret/pkg/notify"
	"github.com/carl-sl-li/lambda-no-secret/pkg/providers"
	"github.com/carl-sl-li/lambda-no-secret/pkg/report"
)

// Broker is the authenticated session entry point to the secrets broker.
type Broker interface {
	Authenticate(ctx context.Context) error
}

// Orchestrator owns the failure policy of a run: broker authentication
// failure is fatal; provider failures degrade their own report line only.
type Orchestrator struct {
	broker    Broker
	registry  *providers.Registry
	notifiers []notify.Notifier
	logger    *slog.Logger
	clock     func() time.Time
	timeout   time.Duration
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the time source used to compute the billing period.
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

// WithCallTimeout bounds every external call of the run.
func WithCallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// New creates an orchestrator over an authenticated-on-demand broker, an
// ordered provider registry and zero or more notifiers.
func New(broker Broker, registry *providers.Registry, notifiers []notify.Notifier, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		broker:    broker,
		registry:  registry,
		notifiers: notifiers,
		logger:    logger,
		clock:     time.Now,
		timeout:   60 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one billing pass. The returned report is nil only when
// broker authentication failed; in every other case the report is
// assembled and delivery is attempted, and any delivery errors are
// returned joined.
func (o *Orchestrator) Run(ctx context.Context) (*report.Report, error) {
	logger := o.logger.With("run_id", uuid.New().String())

	period := billing.LastMonth(o.clock().UTC())
	logger.Info("computed billing period", "start", period.StartDate(), "end", period.EndDate())

	authCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	if err := o.broker.Authenticate(authCtx); err != nil {
		logger.Error("broker authentication failed", "error", err)
		return nil, err
	}

	// Provider queries are independent: run them concurrently, but land
	// each result at its registration index so the report order is fixed.
	provs := o.registry.All()
	results := make([]billing.Result, len(provs))

	var wg sync.WaitGroup
	for i, p := range provs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, o.timeout)
			defer cancel()

			amount, err := p.LastMonthCost(callCtx, period)
			if err != nil {
				logger.Error("provider bill query failed", "provider", p.Name(), "error", err)
				results[i] = billing.Failure(err)
				return
			}
			logger.Info("provider bill fetched", "provider", p.Name(), "amount", amount.StringFixed(2))
			results[i] = billing.Success(amount)
		}()
	}
	wg.Wait()

	lines := make([]report.Line, len(provs))
	for i, p := range provs {
		lines[i] = report.Line{Provider: p.Name(), Result: results[i]}
	}
	rep := report.Assemble(lines)

	var deliveryErrs []error
	for _, n := range o.notifiers {
		sendCtx, cancel := context.WithTimeout(ctx, o.timeout)
		err := n.Send(sendCtx, rep)
		cancel()
		if err != nil {
			logger.Error("report delivery failed", "notifier", n.Name(), "error", err)
			deliveryErrs = append(deliveryErrs, err)
			continue
		}
		logger.Info("report delivered", "notifier", n.Name())
	}

	return rep, errors.Join(deliveryErrs...)
}
