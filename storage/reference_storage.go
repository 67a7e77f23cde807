package storage

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/rio-inventory/inventory/storage/model"
)

// ReferenceStorage is the CRUDStorage of a reference entity. Deletes go
// through the ReferenceGuard.
type ReferenceStorage[T any, C model.Creatable[T], U model.Patch] struct {
	*CRUDStorage[T, C, U]
	ref   model.Reference
	guard *ReferenceGuard
}

func newReferenceStorage[T any, C model.Creatable[T], U model.Patch](
	s *Storage, ref model.Reference,
) *ReferenceStorage[T, C, U] {
	crud := NewCRUDStorage[T, C, U](s.db, s.timeout, strings.ToLower(ref.Label))
	crud.maxLimit = s.maxLimit
	return &ReferenceStorage[T, C, U]{
		CRUDStorage: crud,
		ref:         ref,
		guard:       s.Guard(),
	}
}

// Reference returns the reference this storage guards
func (s *ReferenceStorage[T, C, U]) Reference() model.Reference {
	return s.ref
}

// Delete removes the entity unless an asset still references it
func (s *ReferenceStorage[T, C, U]) Delete(ctx context.Context, id uint) (*T, error) {
	db, cancel := withTimeout(ctx, s.db, s.timeout)
	defer cancel()
	var removed *T
	err := db.Transaction(
		func(tx *gorm.DB) error {
			if err := s.guard.WithTx(tx).EnsureUnreferenced(ctx, s.ref, id); err != nil {
				return err
			}
			var err error
			removed, err = s.CRUDStorage.WithTx(tx).Delete(ctx, id)
			return err
		},
	)
	if err != nil {
		return nil, deleteError(s.ref, id, err)
	}
	return removed, nil
}
