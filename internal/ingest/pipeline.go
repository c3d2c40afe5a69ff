package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rfidtags/internal/domain"
)

// Item outcomes reported to the Recorder.
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
)

// Recorder observes ingest outcomes, typically as metrics.
type Recorder interface {
	ObserveItem(outcome string)
	ObserveBatch(size int)
}

type noopRecorder struct{}

func (noopRecorder) ObserveItem(string) {}
func (noopRecorder) ObserveBatch(int)   {}

// DuplicateError reports a draft whose EPC is already stored. Existing is nil
// when the collision was only detected by the unique constraint.
type DuplicateError struct {
	EPC      string
	Existing *domain.Tag
}

func (e *DuplicateError) Error() string {
	if e.Existing != nil {
		return fmt.Sprintf("RFID tag with EPC '%s' already exists with status '%s'", e.EPC, e.Existing.Status)
	}
	return fmt.Sprintf("RFID tag with EPC '%s' already exists", e.EPC)
}

func (e *DuplicateError) Unwrap() error { return domain.ErrDuplicateKey }

// Pipeline validates drafts, detects duplicates and inserts them through a TagStore.
type Pipeline struct {
	store    domain.TagStore
	logger   *slog.Logger
	recorder Recorder
}

// NewPipeline returns a Pipeline. A nil recorder disables outcome reporting.
func NewPipeline(store domain.TagStore, logger *slog.Logger, recorder Recorder) *Pipeline {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Pipeline{store: store, logger: logger, recorder: recorder}
}

// Ingest processes drafts in one transaction. Item failures are collected in
// the result and never abort siblings; the transaction commits however many
// items failed. Only transaction-level failures return an error, in which case
// nothing is persisted.
func (p *Pipeline) Ingest(ctx context.Context, drafts []*domain.TagDraft) (*domain.BatchResult, error) {
	var result *domain.BatchResult
	err := p.store.WithTx(ctx, func(tx domain.TagTx) error {
		result = domain.NewBatchResult()
		for i, d := range drafts {
			tag, err := p.ingestItem(ctx, tx, d)
			switch {
			case err == nil:
				result.Created = append(result.Created, tag)
			case errors.Is(err, domain.ErrStoreUnavailable):
				return err
			case errors.Is(err, domain.ErrDuplicateKey):
				result.Duplicates = append(result.Duplicates, d.EPC)
			default:
				result.Errors = append(result.Errors, domain.ItemError{Index: i, EPC: d.EPC, Reason: err.Error(), Err: err})
			}
		}
		return nil
	})
	if err != nil {
		p.logger.ErrorContext(ctx, "batch ingest rolled back", "items", len(drafts), "err", err)
		return nil, err
	}
	result.Summarize()
	p.record(result)
	p.logger.InfoContext(ctx, "batch ingested",
		"total", result.Summary.Total,
		"created", result.Summary.Created,
		"duplicates", result.Summary.Duplicates,
		"errors", result.Summary.Errors,
	)
	return result, nil
}

// IngestOne runs a single draft through the same path as Ingest and returns
// the created tag or the item's failure (*ValidationError, *DuplicateError or a
// store error).
func (p *Pipeline) IngestOne(ctx context.Context, d *domain.TagDraft) (*domain.Tag, error) {
	var tag *domain.Tag
	var itemErr error
	err := p.store.WithTx(ctx, func(tx domain.TagTx) error {
		tag, itemErr = p.ingestItem(ctx, tx, d)
		if errors.Is(itemErr, domain.ErrStoreUnavailable) {
			return itemErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result := domain.NewBatchResult()
	switch {
	case itemErr == nil:
		result.Created = append(result.Created, tag)
	case errors.Is(itemErr, domain.ErrDuplicateKey):
		result.Duplicates = append(result.Duplicates, d.EPC)
	default:
		result.Errors = append(result.Errors, domain.ItemError{EPC: d.EPC, Reason: itemErr.Error(), Err: itemErr})
	}
	p.record(result)
	if itemErr != nil {
		return nil, itemErr
	}
	return tag, nil
}

// ingestItem validates, checks for an existing row and inserts d. Static rules
// run before the savepoint; everything touching the store runs inside it so a
// failing statement leaves the transaction usable.
func (p *Pipeline) ingestItem(ctx context.Context, tx domain.TagTx, d *domain.TagDraft) (*domain.Tag, error) {
	if err := CheckDraft(d); err != nil {
		return nil, err
	}
	var tag *domain.Tag
	err := tx.Savepoint(ctx, func() error {
		if err := CheckReferences(ctx, tx, d.ParentTagID, d.CurrentLocationID); err != nil {
			return err
		}
		existing, err := tx.FindByKey(ctx, d.EPC)
		if err == nil {
			return &DuplicateError{EPC: d.EPC, Existing: existing}
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		tag, err = tx.Insert(ctx, d)
		if errors.Is(err, domain.ErrDuplicateKey) {
			return &DuplicateError{EPC: d.EPC}
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

func (p *Pipeline) record(r *domain.BatchResult) {
	p.recorder.ObserveBatch(len(r.Created) + len(r.Duplicates) + len(r.Errors))
	for range r.Created {
		p.recorder.ObserveItem(OutcomeCreated)
	}
	for range r.Duplicates {
		p.recorder.ObserveItem(OutcomeDuplicate)
	}
	for range r.Errors {
		p.recorder.ObserveItem(OutcomeError)
	}
}
