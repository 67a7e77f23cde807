package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/rio-inventory/inventory/storage/model"
)

// ReferenceGuard refuses deletion of reference entities that assets still
// point at.
//
// The check is not serialized against concurrent asset writes: an asset
// referencing the entity may commit between the check and the delete. The
// foreign key constraints on the asset table catch that case and the delete
// then fails with the same model.ConflictError.
type ReferenceGuard struct {
	db      *gorm.DB
	timeout time.Duration
	inTx    bool
}

// WithTx returns a copy of the guard that queries through tx
func (g *ReferenceGuard) WithTx(tx *gorm.DB) *ReferenceGuard {
	return &ReferenceGuard{
		db:   tx,
		inTx: true,
	}
}

// EnsureUnreferenced returns a model.ConflictError if any asset references id
// through ref
func (g *ReferenceGuard) EnsureUnreferenced(ctx context.Context, ref model.Reference, id uint) error {
	db := g.db
	if !g.inTx {
		var cancel context.CancelFunc
		db, cancel = withTimeout(ctx, g.db, g.timeout)
		defer cancel()
	}
	var found []uint
	err := db.Model(&model.Asset{}).
		Where(ref.FKColumn+" = ?", id).
		Limit(1).
		Pluck("id", &found).Error
	if err != nil {
		return errors.WithStack(err)
	}
	if len(found) > 0 {
		return referencedError(ref, id)
	}
	return nil
}
