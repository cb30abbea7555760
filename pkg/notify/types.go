package notify

import (
	"context"
	"fmt"

	"github.com/carl-sl-li/lambda-no-secret/pkg/report"
)

// Notifier publishes an assembled bill report to an external channel.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers the report. Implementations must be safe for
	// concurrent use.
	Send(ctx context.Context, r *report.Report) error
}

// DeliveryError reports that a computed report could not be delivered.
// The billing data existed; only the hand-off failed, which matters when
// reading logs after a silent month.
type DeliveryError struct {
	Notifier string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver report via %s: %v", e.Notifier, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
