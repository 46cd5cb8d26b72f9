// Package tiered implements the two-tier persistence policy: a primary
// document store in front of a local fallback store.
//
// THE POLICY:
//
//	Create → primary, mirrored to fallback; primary error → fallback only, flagged pending
//	List   → primary; primary error → fallback
//	Delete → primary; the fallback copy is removed either way
//
// Every call logs the tier that served it and counts it in
// intellicrawl_store_operations_total{op,tier}. Writes that only reached
// the fallback stay flagged until the reconciler (internal/reconcile)
// pushes them to the primary.
package tiered

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/intellicrawl/internal/metrics"
	"github.com/sakif/intellicrawl/internal/model"
	"github.com/sakif/intellicrawl/internal/repository"
)

// Tier names, as they appear in logs and metric labels.
const (
	TierPrimary  = "primary"
	TierFallback = "fallback"
)

// Operation names used in logs and metric labels.
const (
	opCreate = "create"
	opList   = "list"
	opDelete = "delete"
)

// Store composes a primary and a fallback repository.
type Store struct {
	primary  repository.DeveloperRepository
	fallback repository.FallbackRepository
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	// primaryExpected is set when a primary is configured but could not
	// be reached at startup. Fallback-only writes are then flagged pending
	// so a later reconcile against the primary replays them.
	primaryExpected bool
}

// Option configures a Store.
type Option func(*Store)

// WithPrimaryExpected marks a Store whose primary is configured but was
// unreachable when the process started.
func WithPrimaryExpected() Option {
	return func(s *Store) { s.primaryExpected = true }
}

var _ repository.DeveloperRepository = (*Store)(nil)

// New creates a Store. primary may be nil, in which case every operation
// goes straight to the fallback; that is logged once here rather than on
// every call. m may be nil.
func New(primary repository.DeveloperRepository, fallback repository.FallbackRepository, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Store {
	s := &Store{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	switch {
	case primary == nil && s.primaryExpected:
		logger.Warn("primary store unreachable, fallback writes are flagged for reconciliation")
	case primary == nil:
		logger.Warn("no primary store configured, using the local fallback only")
	}
	return s
}

// HasPrimary reports whether a primary store is configured.
func (s *Store) HasPrimary() bool {
	return s.primary != nil
}

// Create stores dev and reports success if either tier accepted it.
//
// The id and timestamps are assigned before the primary is tried, so a
// record keeps the same id whichever tier ends up holding it and the
// reconciler can later replay it under that id.
func (s *Store) Create(ctx context.Context, dev *model.Developer) error {
	repository.Stamp(dev, s.now())

	if s.primary == nil {
		pending := s.primaryExpected
		if err := s.fallback.Save(ctx, dev, pending); err != nil {
			return fmt.Errorf("saving developer to fallback: %w", err)
		}
		s.served(opCreate, TierFallback, slog.String("id", dev.ID), slog.Bool("pending", pending))
		return nil
	}

	primaryErr := s.primary.Create(ctx, dev)
	if primaryErr == nil {
		// Local mirror of every primary write. Losing it only costs the
		// fallback view, so a failure here is logged and not returned.
		if err := s.fallback.Save(ctx, dev, false); err != nil {
			s.logger.Warn("mirroring developer to fallback failed",
				slog.String("id", dev.ID),
				slog.String("error", err.Error()),
			)
		}
		s.served(opCreate, TierPrimary, slog.String("id", dev.ID))
		return nil
	}

	s.logger.Warn("primary store create failed, writing to fallback",
		slog.String("id", dev.ID),
		slog.String("error", primaryErr.Error()),
	)

	if err := s.fallback.Save(ctx, dev, true); err != nil {
		return fmt.Errorf("saving developer: %w", errors.Join(primaryErr, err))
	}
	s.served(opCreate, TierFallback, slog.String("id", dev.ID), slog.Bool("pending", true))
	return nil
}

// List returns the primary's records, or the fallback's when the primary fails.
func (s *Store) List(ctx context.Context) ([]model.Developer, error) {
	if s.primary != nil {
		devs, err := s.primary.List(ctx)
		if err == nil {
			s.served(opList, TierPrimary, slog.Int("count", len(devs)))
			return devs, nil
		}
		s.logger.Warn("primary store list failed, reading fallback",
			slog.String("error", err.Error()),
		)
	}

	devs, err := s.fallback.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing developers from fallback: %w", err)
	}
	s.served(opList, TierFallback, slog.Int("count", len(devs)))
	return devs, nil
}

// Delete removes id from the primary (when configured and reachable) and
// always from the fallback. Deleting an absent id succeeds.
func (s *Store) Delete(ctx context.Context, id string) error {
	tier := TierFallback
	var primaryErr error

	if s.primary != nil {
		primaryErr = s.primary.Delete(ctx, id)
		if primaryErr == nil {
			tier = TierPrimary
		} else {
			s.logger.Warn("primary store delete failed, deleting from fallback",
				slog.String("id", id),
				slog.String("error", primaryErr.Error()),
			)
		}
	}

	if err := s.fallback.Delete(ctx, id); err != nil {
		if tier == TierFallback {
			return fmt.Errorf("deleting developer %s: %w", id, errors.Join(primaryErr, err))
		}
		// The primary no longer has it; a stale mirror only shows up
		// while the primary is down.
		s.logger.Error("removing fallback copy failed",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}

	s.served(opDelete, tier, slog.String("id", id))
	return nil
}

// served logs and counts an operation against the tier that handled it.
func (s *Store) served(op, tier string, attrs ...slog.Attr) {
	s.metrics.StoreOp(op, tier)
	args := []any{slog.String("op", op), slog.String("tier", tier)}
	for _, a := range attrs {
		args = append(args, a)
	}
	s.logger.Info("store operation", args...)
}
