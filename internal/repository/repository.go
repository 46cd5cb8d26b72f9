// Package repository defines the storage interfaces for candidate records.
//
// Concrete stores live in subpackages:
//
//	sqlite   → local fallback store (embedded, always available)
//	postgres → primary document store (JSONB, remote)
//	tiered   → the two-tier policy that composes the two
//
// Services depend only on these interfaces, never on a concrete store.
package repository

import (
	"context"

	"github.com/sakif/intellicrawl/internal/model"
)

// DeveloperRepository stores candidate records.
//
// There is no update operation: a record is written once and then either
// listed or deleted. Delete of an absent id is not an error.
type DeveloperRepository interface {
	// Create stores dev. An empty dev.ID is filled in; zero timestamps
	// are set to now.
	Create(ctx context.Context, dev *model.Developer) error
	// List returns every stored record, newest first.
	List(ctx context.Context) ([]model.Developer, error)
	Delete(ctx context.Context, id string) error
}

// FallbackRepository is a DeveloperRepository that also tracks which
// records have not reached the primary store yet.
type FallbackRepository interface {
	DeveloperRepository

	// Save inserts dev by id; an id already stored is left unchanged. pending
	// marks a record that only exists here.
	Save(ctx context.Context, dev *model.Developer, pending bool) error
	ListPending(ctx context.Context) ([]model.Developer, error)
	MarkSynced(ctx context.Context, id string) error
}
