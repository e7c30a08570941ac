// Package batch drives archival over the message store: it downloads each
// PDF attachment, classifies it, hands it to the reconciler, and records
// progress so an interrupted run can resume without duplicating work.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/docket/internal/archive"
	"github.com/JaimeStill/docket/internal/ledger"
	"github.com/JaimeStill/docket/internal/mail"
	"github.com/JaimeStill/docket/internal/oracle"
	"github.com/JaimeStill/docket/internal/records"
	"github.com/JaimeStill/docket/pkg/auth"
	"github.com/JaimeStill/docket/pkg/formatting"
	"github.com/JaimeStill/docket/pkg/storage"
)

// Options control a single run.
type Options struct {
	Resume bool
	Limit  int
	DryRun bool
}

// Extractor turns PDF bytes into text.
type Extractor func(data []byte) (oracle.Document, error)

// Recorder receives archived documents for the archive ledger.
type Recorder interface {
	Create(ctx context.Context, cmd records.CreateCommand) (*records.Record, error)
}

// Deps are the collaborators of a Runner. Ledger is required only for
// resumed runs; Records, Metrics, and Extract are optional.
type Deps struct {
	Mail    mail.Store
	Oracle  oracle.Oracle
	Storage storage.System
	Ledger  ledger.Store
	Records Recorder
	Metrics *Metrics
	Extract Extractor
}

// Document is one attachment to archive.
type Document struct {
	MessageID    string
	AttachmentID string
	Name         string
	Data         []byte
}

// Runner executes archival runs. Runs are sequential; a Runner must not be
// shared by concurrent Run calls.
type Runner struct {
	deps   Deps
	cfg    *archive.Config
	now    func() time.Time
	logger *slog.Logger
}

// New creates a Runner.
func New(cfg *archive.Config, deps Deps, logger *slog.Logger) *Runner {
	if deps.Extract == nil {
		deps.Extract = oracle.Extract
	}
	return &Runner{
		deps:   deps,
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With("system", "batch"),
	}
}

// Fatal reports whether err must abort the whole run rather than a single
// document.
func Fatal(err error) bool {
	return errors.Is(err, oracle.ErrConfiguration) ||
		errors.Is(err, auth.ErrConfiguration)
}

// abort reports whether err ends the run: a fatal error, or any error
// once the run context itself is done.
func abort(ctx context.Context, err error) bool {
	return Fatal(err) || ctx.Err() != nil
}

// Run processes every archivable attachment in the message store. Per
// document failures are counted and iteration continues. A fatal error
// stops the run and is returned with the partial summary.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	summary := newSummary(r.now())
	log := r.logger.With("run_id", summary.RunID, "dry_run", opts.DryRun, "resume", opts.Resume)

	if opts.Resume {
		if r.deps.Ledger == nil {
			return summary, ErrLedgerRequired
		}
		if err := r.deps.Ledger.Load(ctx); err != nil {
			return summary, err
		}
	}

	reconciler := archive.New(r.deps.Storage, r.cfg, r.logger, archive.WithDryRun(opts.DryRun))

	log.InfoContext(ctx, "run started", "backend", r.deps.Storage.Backend(), "limit", opts.Limit)
	err := r.iterate(ctx, reconciler, opts, summary)
	return summary, r.finish(ctx, log, summary, err)
}

// ArchiveOne processes a single document outside the message store.
func (r *Runner) ArchiveOne(ctx context.Context, doc Document, opts Options) (*Summary, error) {
	summary := newSummary(r.now())
	log := r.logger.With("run_id", summary.RunID, "dry_run", opts.DryRun)

	reconciler := archive.New(r.deps.Storage, r.cfg, r.logger, archive.WithDryRun(opts.DryRun))

	summary.Found++
	err := r.process(ctx, reconciler, doc, opts, summary)
	if err != nil && !abort(ctx, err) {
		err = nil
	}
	return summary, r.finish(ctx, log, summary, err)
}

func (r *Runner) iterate(ctx context.Context, reconciler *archive.Reconciler, opts Options, summary *Summary) error {
	for msg, err := range r.deps.Mail.Messages(ctx) {
		if err != nil {
			return fmt.Errorf("list messages: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		attachments, err := r.deps.Mail.Attachments(ctx, msg.ID)
		if err != nil {
			if abort(ctx, err) {
				return err
			}
			r.fail(ctx, summary, msg.ID, "", err)
			continue
		}

		for _, att := range attachments {
			if !att.Archivable() {
				continue
			}
			if opts.Limit > 0 && summary.Found >= opts.Limit {
				r.logger.InfoContext(ctx, "limit reached", "limit", opts.Limit)
				return nil
			}
			summary.Found++

			mark := ledger.Mark{MessageID: msg.ID, AttachmentID: att.ID}
			if opts.Resume && r.deps.Ledger.Has(mark) {
				summary.AlreadyProcessed++
				r.deps.Metrics.document(OutcomeAlreadyProcessed)
				continue
			}

			if limit := r.cfg.MaxDocumentBytes(); att.Size > limit {
				r.fail(ctx, summary, msg.ID, att.Name, tooLarge(att.Size, limit))
				continue
			}

			data, err := r.deps.Mail.Download(ctx, msg.ID, att.ID)
			if err != nil {
				if abort(ctx, err) {
					return err
				}
				r.fail(ctx, summary, msg.ID, att.Name, fmt.Errorf("download: %w", err))
				continue
			}

			doc := Document{MessageID: msg.ID, AttachmentID: att.ID, Name: att.Name, Data: data}
			if err := r.process(ctx, reconciler, doc, opts, summary); err != nil && abort(ctx, err) {
				return err
			}
		}
	}
	return nil
}

// process runs one document through extraction, classification, and
// archival, updating summary. Non-fatal errors are recorded and returned.
func (r *Runner) process(
	ctx context.Context,
	reconciler *archive.Reconciler,
	doc Document,
	opts Options,
	summary *Summary,
) error {
	log := r.logger.With("message_id", doc.MessageID, "attachment", doc.Name)

	if limit := r.cfg.MaxDocumentBytes(); int64(len(doc.Data)) > limit {
		err := tooLarge(int64(len(doc.Data)), limit)
		r.fail(ctx, summary, doc.MessageID, doc.Name, err)
		return err
	}

	extracted, err := r.deps.Extract(doc.Data)
	if errors.Is(err, oracle.ErrNoText) {
		log.InfoContext(ctx, "no text in document")
		r.skip(summary)
		return nil
	}
	if err != nil {
		r.fail(ctx, summary, doc.MessageID, doc.Name, fmt.Errorf("extract: %w", err))
		return err
	}

	id, err := r.deps.Oracle.Classify(ctx, extracted.Text)
	if err != nil {
		if abort(ctx, err) {
			return err
		}
		r.fail(ctx, summary, doc.MessageID, doc.Name, fmt.Errorf("classify: %w", err))
		return err
	}

	result, err := reconciler.Archive(ctx, archive.Request{Identity: id, Filename: doc.Name, Data: doc.Data})
	if err != nil {
		if abort(ctx, err) {
			return err
		}
		r.fail(ctx, summary, doc.MessageID, doc.Name, err)
		return err
	}

	switch result.State {
	case archive.StateRejected:
		log.InfoContext(ctx, "document skipped", "reason", result.Rejection)
		r.skip(summary)
		return nil
	case archive.StateArchived:
		summary.Archived++
		r.deps.Metrics.document(OutcomeArchived)
	case archive.StateDeduplicated:
		summary.Deduplicated++
		r.deps.Metrics.document(OutcomeDeduplicated)
	}

	if result.Renamed {
		summary.Renamed++
		r.deps.Metrics.document(OutcomeRenamed)
	}
	if result.Review != nil {
		summary.Reviews = append(summary.Reviews, *result.Review)
		r.deps.Metrics.review(result.Review.Reason)
	}

	log.InfoContext(ctx, "document handled",
		"state", result.State,
		"record_id", result.Resolution.RecordID,
		"folder", result.Folder,
		"locator", result.Locator,
	)

	if opts.DryRun {
		return nil
	}

	if opts.Resume && r.deps.Ledger != nil {
		mark := ledger.Mark{MessageID: doc.MessageID, AttachmentID: doc.AttachmentID}
		if err := r.deps.Ledger.Add(ctx, mark); err != nil {
			log.ErrorContext(ctx, "persist processed mark failed", "error", err)
		}
	}

	if result.State == archive.StateArchived {
		r.record(ctx, log, summary, doc, extracted, result)
	}
	return nil
}

func (r *Runner) record(
	ctx context.Context,
	log *slog.Logger,
	summary *Summary,
	doc Document,
	extracted oracle.Document,
	result *archive.Result,
) {
	if r.deps.Records == nil {
		return
	}

	cmd := records.CreateCommand{
		RunID:        summary.RunID,
		RecordID:     result.Resolution.RecordID,
		RecordDate:   result.Resolution.RecordDate,
		Folder:       result.Folder,
		Path:         result.Path,
		Locator:      result.Locator,
		Backend:      r.deps.Storage.Backend(),
		Filename:     doc.Name,
		SizeBytes:    int64(len(doc.Data)),
		Renamed:      result.Renamed,
		MessageID:    doc.MessageID,
		AttachmentID: doc.AttachmentID,
	}
	if extracted.Pages > 0 {
		pages := extracted.Pages
		cmd.PageCount = &pages
	}
	if result.Review != nil {
		reason := result.Review.Reason
		cmd.ReviewReason = &reason
	}

	if _, err := r.deps.Records.Create(ctx, cmd); err != nil {
		if errors.Is(err, records.ErrDuplicate) {
			log.DebugContext(ctx, "record already in ledger", "path", result.Path)
			return
		}
		log.WarnContext(ctx, "record archive ledger entry failed", "error", err)
	}
}

func tooLarge(size, limit int64) error {
	return fmt.Errorf("%w: %s > %s", ErrTooLarge, formatting.FormatBytes(size, 1), formatting.FormatBytes(limit, 1))
}

func (r *Runner) skip(summary *Summary) {
	summary.SkippedInvalid++
	r.deps.Metrics.document(OutcomeSkippedInvalid)
}

func (r *Runner) fail(ctx context.Context, summary *Summary, messageID, name string, err error) {
	r.logger.ErrorContext(ctx, "document failed", "message_id", messageID, "attachment", name, "error", err)
	summary.Failed++
	summary.Failures = append(summary.Failures, Failure{MessageID: messageID, Attachment: name, Error: err.Error()})
	r.deps.Metrics.document(OutcomeFailed)
}

func (r *Runner) finish(ctx context.Context, log *slog.Logger, summary *Summary, runErr error) error {
	summary.FinishedAt = r.now()

	if len(summary.Reviews) > 0 {
		path, err := WriteReport(r.cfg.ReportDir, summary.Reviews, summary.FinishedAt)
		if err != nil {
			log.ErrorContext(ctx, "write review report failed", "error", err)
		} else {
			summary.Report = path
			log.InfoContext(ctx, "review report written", "path", path, "entries", len(summary.Reviews))
		}
	}

	status := "ok"
	if runErr != nil {
		status = "aborted"
	} else if summary.Failed > 0 {
		status = "partial"
	}
	r.deps.Metrics.run(status, summary.FinishedAt.Sub(summary.StartedAt).Seconds())

	if runErr != nil {
		log.ErrorContext(ctx, "run aborted", append(summary.Attrs(), "error", runErr)...)
		return runErr
	}
	log.InfoContext(ctx, "run complete", summary.Attrs()...)
	return nil
}
