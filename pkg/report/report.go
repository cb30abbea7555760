// Package report renders per-provider billing results into the outward
// notification message.
package report

import (
	"strings"

	"github.com/carl-sl-li/lambda-no-secret/pkg/billing"
)

// Subject is the fixed subject line of every bill notification.
const Subject = "Last Month Cloud Bills"

// Line pairs a provider label with its billing result.
type Line struct {
	Provider string
	Result   billing.Result
}

// Report is the assembled notification. Built once per run, consumed once
// by the notifiers.
type Report struct {
	Subject string
	Lines   []Line
}

// Assemble builds a report preserving the input line order.
func Assemble(lines []Line) *Report {
	return &Report{Subject: Subject, Lines: lines}
}

// Body renders one line per provider. A failed provider renders with the
// amount omitted: recipients never see internal error detail, and the
// line count stays fixed regardless of the failure pattern.
func (r *Report) Body() string {
	var b strings.Builder
	for _, line := range r.Lines {
		b.WriteString(line.Provider)
		b.WriteString(" bill for last month is $")
		if !line.Result.Failed() {
			b.WriteString(line.Result.Amount.StringFixed(2))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
