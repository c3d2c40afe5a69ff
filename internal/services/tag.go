package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"rfidtags/internal/domain"
	"rfidtags/internal/ingest"
)

// ErrEmptyUpdate is returned by Update when the request sets no updatable field.
var ErrEmptyUpdate = fmt.Errorf("%w: no updatable fields provided (allowed: %s)", domain.ErrInvalidArgument, ingest.UpdatableFields)

type tagService struct {
	store          domain.TagStore
	pipeline       *ingest.Pipeline
	alerts         domain.AlertService
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewTagService wires the tag use cases. alerts may be nil.
func NewTagService(store domain.TagStore,
	pipeline *ingest.Pipeline,
	alerts domain.AlertService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.TagService {
	return &tagService{
		store:          store,
		pipeline:       pipeline,
		alerts:         alerts,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *tagService) List(ctx context.Context, f domain.TagFilter) ([]*domain.Tag, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	f = f.Normalized()
	if f.Status != "" {
		f.Status = domain.CanonicalStatus(string(f.Status))
		if !f.Status.Valid() {
			return nil, 0, fmt.Errorf("%w: invalid status filter %q", domain.ErrInvalidArgument, f.Status)
		}
	}
	tags, err := s.store.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.Count(ctx, f.Status)
	if err != nil {
		return nil, 0, err
	}
	return tags, total, nil
}

func (s *tagService) Get(ctx context.Context, epc string) (*domain.Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.store.FindByKey(ctx, strings.TrimSpace(epc))
}

func (s *tagService) CreateOne(ctx context.Context, d *domain.TagDraft) (*domain.Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	tag, err := s.pipeline.IngestOne(ctx, d)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, tag)
	return tag, nil
}

func (s *tagService) CreateMany(ctx context.Context, drafts []*domain.TagDraft) (*domain.BatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	result, err := s.pipeline.Ingest(ctx, drafts)
	if err != nil {
		return nil, err
	}
	for _, tag := range result.Created {
		s.notify(ctx, tag)
	}
	return result, nil
}

// Update validates and applies u in one transaction so reference checks and
// the write see the same rows.
func (s *tagService) Update(ctx context.Context, epc string, u domain.TagUpdate) (*domain.Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if u.Empty() {
		return nil, ErrEmptyUpdate
	}
	epc = strings.TrimSpace(epc)
	var before, after *domain.Tag
	err := s.store.WithTx(ctx, func(tx domain.TagTx) error {
		var err error
		before, err = tx.FindByKey(ctx, epc)
		if err != nil {
			return err
		}
		if err := ingest.ValidateUpdate(ctx, tx, u); err != nil {
			return err
		}
		after, err = tx.UpdateByKey(ctx, epc, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	if before.Status != after.Status {
		s.notify(ctx, after)
	}
	return after, nil
}

func (s *tagService) DeleteByKey(ctx context.Context, epc string) (*domain.Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	tag, err := s.store.DeleteByKey(ctx, strings.TrimSpace(epc))
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "tag deleted", "epc", tag.EPC, "id", tag.ID)
	return tag, nil
}

func (s *tagService) DeleteByID(ctx context.Context, rawID string) (*domain.Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid tag id %q", domain.ErrInvalidArgument, rawID)
	}
	tag, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "tag deleted", "epc", tag.EPC, "id", tag.ID)
	return tag, nil
}

func (s *tagService) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.store.Ping(ctx)
}

// notify sends a status alert for tag. Failures are logged and never change
// the outcome of the write that triggered them.
func (s *tagService) notify(ctx context.Context, tag *domain.Tag) {
	if s.alerts == nil || !domain.IsAlertStatus(tag.Status) {
		return
	}
	if err := s.alerts.NotifyStatus(ctx, tag); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "status alert failed", "epc", tag.EPC, "status", tag.Status, "err", err)
	}
}
