package archive

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/docket/internal/identity"
	"github.com/JaimeStill/docket/pkg/naming"
	"github.com/JaimeStill/docket/pkg/storage"
)

// Reconciler archives resolved documents into a storage tree. It is safe
// to rerun over the same input: existing files are never rewritten and a
// record ID maps to at most one folder per day bucket.
type Reconciler struct {
	store  storage.System
	width  int
	dryRun bool
	logger *slog.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithDryRun resolves and probes without writing or renaming.
func WithDryRun(dryRun bool) Option {
	return func(r *Reconciler) { r.dryRun = dryRun }
}

// New creates a Reconciler over store using the configured record ID width.
func New(store storage.System, cfg *Config, logger *slog.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:  store,
		width:  cfg.RecordIDWidth,
		logger: logger.With("system", "archive"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Archive resolves req and reconciles it against the tree. Rejected
// identities return a StateRejected result and a nil error; storage
// failures are returned as errors scoped to this document.
func (r *Reconciler) Archive(ctx context.Context, req Request) (*Result, error) {
	res, err := identity.Resolve(req.Identity, r.width)
	if err != nil {
		if identity.IsRejection(err) {
			r.logger.InfoContext(ctx, "document rejected", "attachment", req.Filename, "reason", err)
			return &Result{State: StateRejected, Rejection: err}, nil
		}
		return nil, err
	}

	return r.Place(ctx, res, req.Filename, req.Data)
}

// Place archives data under an already resolved identity.
func (r *Reconciler) Place(ctx context.Context, res identity.Resolution, filename string, data []byte) (*Result, error) {
	bucket := res.Bucket()
	canonical := res.Folder

	working, err := r.locate(ctx, bucket, res.RecordID, canonical)
	if err != nil {
		return nil, fmt.Errorf("locate folder for %s: %w", res.RecordID, err)
	}

	file := naming.Filename(filename)
	p := storage.Join(bucket, working, file)

	result := &Result{
		Resolution: res,
		Folder:     working,
		Path:       p,
	}

	log := r.logger.With("attachment", filename, "record_id", res.RecordID, "folder", working)

	found, locator, err := r.store.Exists(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", p, err)
	}

	switch {
	case found:
		result.State = StateDeduplicated
		result.Locator = locator
		log.InfoContext(ctx, "document already archived", "locator", locator)

	case r.dryRun:
		result.State = StateArchived
		result.Planned = true
		result.Locator = r.store.Locator(p)
		log.InfoContext(ctx, "document would be archived", "path", p)

	default:
		if err := r.store.EnsurePath(ctx, res.Year, res.Month, res.Day, working); err != nil {
			return nil, fmt.Errorf("ensure %s: %w", storage.Join(bucket, working), err)
		}

		locator, err := r.store.Put(ctx, p, data)
		if err != nil {
			return nil, fmt.Errorf("put %s: %w", p, err)
		}

		result.State = StateArchived
		result.Locator = locator
		log.InfoContext(ctx, "document archived", "locator", locator, "size", len(data))
	}

	if working != canonical && !r.dryRun {
		r.rename(ctx, result, bucket, working, canonical, file)
	}

	result.Review = newReview(filename, res, result.Folder)
	return result, nil
}

// locate returns the folder name to write into: an existing folder under
// bucket whose leading record ID matches, or canonical when none does.
// The canonical name wins when several folders match.
func (r *Reconciler) locate(ctx context.Context, bucket, recordID, canonical string) (string, error) {
	children, err := r.store.ListChildren(ctx, bucket)
	if err != nil {
		return "", err
	}

	working := ""
	for _, child := range children {
		if !child.Folder {
			continue
		}
		if child.Name == canonical {
			return canonical, nil
		}
		if working != "" {
			continue
		}
		if id, ok := naming.LeadingRecordID(child.Name, r.width); ok && id == recordID {
			working = child.Name
		}
	}

	if working == "" {
		return canonical, nil
	}

	r.logger.DebugContext(ctx, "adopting existing folder", "bucket", bucket, "folder", working, "canonical", canonical)
	return working, nil
}

// rename moves an adopted folder to its canonical name. Failure leaves the
// folder under its old name and is never returned.
func (r *Reconciler) rename(ctx context.Context, result *Result, bucket, working, canonical, file string) {
	if err := r.store.Rename(ctx, bucket, working, canonical); err != nil {
		r.logger.WarnContext(ctx, "folder rename failed",
			"bucket", bucket,
			"from", working,
			"to", canonical,
			"error", err,
		)
		return
	}

	result.Folder = canonical
	result.Path = storage.Join(bucket, canonical, file)
	result.Renamed = true
	r.logger.InfoContext(ctx, "folder renamed", "bucket", bucket, "from", working, "to", canonical)

	// The locator must match what a later probe of the same path returns.
	found, locator, err := r.store.Exists(ctx, result.Path)
	switch {
	case err != nil:
		r.logger.WarnContext(ctx, "probe after rename failed", "path", result.Path, "error", err)
		result.Locator = r.store.Locator(result.Path)
	case !found:
		r.logger.WarnContext(ctx, "document missing after rename", "path", result.Path)
		result.Locator = r.store.Locator(result.Path)
	default:
		result.Locator = locator
	}
}
