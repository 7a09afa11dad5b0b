// Package run orchestrates one report run: fetch the inventory,
// classify and render it, deliver the result, and on any failure
// notify the admin exactly once.
package run

import (
	"context"
	"fmt"
	"time"

	kverrors "github.com/systmms/kvreport/internal/errors"
	"github.com/systmms/kvreport/internal/expiry"
	"github.com/systmms/kvreport/internal/logging"
	"github.com/systmms/kvreport/internal/mail"
	"github.com/systmms/kvreport/internal/report"
	"github.com/systmms/kvreport/pkg/inventory"
)

// Sender delivers the two mail kinds a run can produce. *mail.Sender
// implements it; tests substitute fakes.
type Sender interface {
	SendReport(ctx context.Context, recipient string, r *report.Report) error
	SendAlert(ctx context.Context, admin string, alert mail.Alert) error
}

// Options control one Execute call.
type Options struct {
	// Mode selects which expiration ranges the report covers.
	Mode expiry.Mode

	// Recipient receives the report.
	Recipient string

	// Admin receives the failure alert when the run fails.
	Admin string

	// Gateway is the Pushgateway base URL. Empty disables the push.
	Gateway string

	// Job is the Pushgateway job name. Defaults to "kvreport".
	Job string
}

// Runner executes report runs against a single source. A run is fully
// synchronous: the three inventory fetches, the classification, and
// the delivery happen one after another, and the first failure ends
// the run.
type Runner struct {
	source inventory.Source
	sender Sender
	logger *logging.Logger
	clock  func() time.Time
}

// New creates a runner. sender may be nil when only BuildReport is
// used, as the preview command does.
func New(source inventory.Source, sender Sender, logger *logging.Logger) *Runner {
	return &Runner{
		source: source,
		sender: sender,
		logger: logger,
		clock:  time.Now,
	}
}

// Execute performs one complete run: fetch, build, deliver. Any
// failure along the way short-circuits to the alert path, so the
// admin gets exactly one mail carrying the raw error and the primary
// recipient never gets partial results. The failure comes back to the
// caller either way.
func (r *Runner) Execute(ctx context.Context, opts Options) error {
	now := r.clock()

	rep, err := r.BuildReport(ctx, opts.Mode, now)
	if err != nil {
		return r.failRun(ctx, opts, now, err)
	}

	r.logger.Info("Report for %s: %d entries (%d items without expiration)",
		r.source.Name(), len(rep.Entries), rep.NoExpiry)

	if err := r.sender.SendReport(ctx, opts.Recipient, rep); err != nil {
		recordMail("report", "failure")
		return r.failRun(ctx, opts, now, kverrors.MailError("report delivery", err))
	}
	recordMail("report", "success")
	recordRun("success")
	r.logger.Info("Report sent to %s", opts.Recipient)

	r.pushMetrics(ctx, opts)
	return nil
}

// BuildReport fetches the full inventory and classifies it for mode
// against a now the caller captured. Fetches run sequentially in key,
// secret, certificate order; the first failing list fails the whole
// build.
func (r *Runner) BuildReport(ctx context.Context, mode expiry.Mode, now time.Time) (*report.Report, error) {
	name := r.source.Name()

	r.logger.Debug("Listing keys from %s", name)
	keys, err := r.source.Keys(ctx)
	if err != nil {
		return nil, kverrors.SourceError(name, "key listing", err)
	}
	recordItemsFetched("key", len(keys))

	r.logger.Debug("Listing secrets from %s", name)
	secrets, err := r.source.Secrets(ctx)
	if err != nil {
		return nil, kverrors.SourceError(name, "secret listing", err)
	}
	recordItemsFetched("secret", len(secrets))

	r.logger.Debug("Listing certificates from %s", name)
	certs, err := r.source.Certificates(ctx)
	if err != nil {
		return nil, kverrors.SourceError(name, "certificate listing", err)
	}
	recordItemsFetched("certificate", len(certs))

	r.logger.Debug("Fetched %d keys, %d secrets, %d certificates from %s",
		len(keys), len(secrets), len(certs), name)

	rep, err := report.Build(name, keys, secrets, certs, mode, now)
	if err != nil {
		return nil, err
	}
	recordEntries(rep)

	return rep, nil
}

// failRun finishes a failed run: it records the failure, alerts the
// admin once, and hands the original cause back. When the alert send
// fails too, both errors are logged and both travel in the returned
// error.
func (r *Runner) failRun(ctx context.Context, opts Options, now time.Time, cause error) error {
	recordRun("failure")
	defer r.pushMetrics(ctx, opts)

	r.logger.Error("Run failed: %v", cause)

	alert := mail.Alert{
		Source: r.source.Name(),
		Mode:   opts.Mode.String(),
		When:   now,
		Err:    cause,
	}

	if err := r.sender.SendAlert(ctx, opts.Admin, alert); err != nil {
		recordMail("alert", "failure")
		r.logger.Error("Failure alert to %s not delivered: %v", opts.Admin, err)
		return fmt.Errorf("%w; failure alert not delivered: %v", cause, err)
	}
	recordMail("alert", "success")
	r.logger.Warn("Failure alert sent to %s", opts.Admin)

	return cause
}

// pushMetrics delivers collected metrics to the Pushgateway when one
// is configured. Push failures never fail the run.
func (r *Runner) pushMetrics(ctx context.Context, opts Options) {
	if opts.Gateway == "" {
		return
	}

	job := opts.Job
	if job == "" {
		job = "kvreport"
	}

	if err := PushMetrics(ctx, opts.Gateway, job, r.source.Name()); err != nil {
		r.logger.Warn("Metrics push to %s failed: %v", opts.Gateway, err)
		return
	}
	r.logger.Debug("Metrics pushed to %s", opts.Gateway)
}
