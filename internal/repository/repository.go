// Package repository defines the contact store consumed by the reconciliation
// service, together with an in-memory implementation.
//
// Implementations exclude soft-deleted contacts from every read.
package repository

import (
	"context"

	"identity-service/internal/models"
)

// ContactRepository is the set of storage operations the engine needs.
type ContactRepository interface {
	// FindByEmailOrPhone returns every contact whose email equals email or whose
	// phone number equals phoneNumber. A nil argument adds no condition.
	FindByEmailOrPhone(ctx context.Context, email, phoneNumber *string) ([]*models.Contact, error)
	// FindClusterByPrimaryIDs returns the contacts whose id is in ids or whose
	// linked id is in ids.
	FindClusterByPrimaryIDs(ctx context.Context, ids []int64) ([]*models.Contact, error)
	// FindByID returns the contact with the given id, or nil if there is none.
	FindByID(ctx context.Context, id int64) (*models.Contact, error)
	Create(ctx context.Context, c models.NewContact) (*models.Contact, error)
	Update(ctx context.Context, id int64, u models.ContactUpdate) (*models.Contact, error)
}

// Store is a ContactRepository that can run a batch of operations atomically.
type Store interface {
	ContactRepository
	// WithinTx runs fn against a transactional view of the store. Changes made
	// through repo are committed when fn returns nil and discarded otherwise.
	WithinTx(ctx context.Context, fn func(repo ContactRepository) error) error
	Ping(ctx context.Context) error
	Close() error
}
