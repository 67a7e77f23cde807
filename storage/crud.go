package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rio-inventory/inventory/storage/model"
)

// CRUDStorage is the generic persistence engine for a single entity table.
// T is the row type, C its create payload and U its partial update.
type CRUDStorage[T any, C model.Creatable[T], U model.Patch] struct {
	db       *gorm.DB
	timeout  time.Duration
	maxLimit int
	label    string
	preload  []string
	inTx     bool
}

// NewCRUDStorage returns a CRUDStorage; label names the entity in errors
func NewCRUDStorage[T any, C model.Creatable[T], U model.Patch](
	db *gorm.DB, timeout time.Duration, label string, preload ...string,
) *CRUDStorage[T, C, U] {
	return &CRUDStorage[T, C, U]{
		db:      db,
		timeout: timeout,
		label:   label,
		preload: preload,
	}
}

// WithTx returns a copy of the storage that runs all operations in tx
func (s *CRUDStorage[T, C, U]) WithTx(tx *gorm.DB) *CRUDStorage[T, C, U] {
	c := *s
	c.db = tx
	c.inTx = true
	return &c
}

// conn returns the handle for one operation. Inside a transaction the
// deadline of the transaction's context applies.
func (s *CRUDStorage[T, C, U]) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if s.inTx {
		return s.db, func() {}
	}
	return withTimeout(ctx, s.db, s.timeout)
}

func (s *CRUDStorage[T, C, U]) withPreload(db *gorm.DB) *gorm.DB {
	for _, p := range s.preload {
		db = db.Preload(p)
	}
	return db
}

func (s *CRUDStorage[T, C, U]) notFound(id uint) model.NotFoundError {
	return model.NotFoundErrorFmt("%s with ID %d not found", s.label, id)
}

// Get returns the row with the passed id or a model.NotFoundError
func (s *CRUDStorage[T, C, U]) Get(ctx context.Context, id uint) (*T, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	return s.get(db, id)
}

func (s *CRUDStorage[T, C, U]) get(db *gorm.DB, id uint) (*T, error) {
	var item T
	if err := s.withPreload(db).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, s.notFound(id)
		}
		return nil, errors.WithStack(err)
	}
	return &item, nil
}

// List returns a page of rows ordered by id
func (s *CRUDStorage[T, C, U]) List(ctx context.Context, offset, limit int) ([]T, error) {
	if offset < 0 || limit < 0 {
		return nil, model.ValidationErrorFmt("offset and limit must not be negative")
	}
	if limit == 0 {
		limit = model.DefaultLimit
	}
	if s.maxLimit > 0 && limit > s.maxLimit {
		limit = s.maxLimit
	}
	db, cancel := s.conn(ctx)
	defer cancel()
	items := make([]T, 0)
	if err := s.withPreload(db).Order("id").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return items, nil
}

// Count returns the number of rows
func (s *CRUDStorage[T, C, U]) Count(ctx context.Context) (int64, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	var count int64
	if err := db.Model(new(T)).Count(&count).Error; err != nil {
		return 0, errors.WithStack(err)
	}
	return count, nil
}

// Create validates the payload, if it can validate itself, and inserts a new row
func (s *CRUDStorage[T, C, U]) Create(ctx context.Context, create C) (*T, error) {
	if err := validate(create); err != nil {
		return nil, err
	}
	item := create.New()
	db, cancel := s.conn(ctx)
	defer cancel()
	if err := db.Omit(clause.Associations).Create(item).Error; err != nil {
		return nil, writeError(s.label, err)
	}
	return item, nil
}

// Update applies the fields present in update to existing and returns the
// stored row. existing itself is not modified and the id is never written.
func (s *CRUDStorage[T, C, U]) Update(ctx context.Context, existing *T, update U) (*T, error) {
	if err := validate(update); err != nil {
		return nil, err
	}
	id, err := primaryKey(existing)
	if err != nil {
		return nil, err
	}
	fields := update.Assignments()
	delete(fields, "id")

	db, cancel := s.conn(ctx)
	defer cancel()
	if len(fields) > 0 {
		err = db.Model(new(T)).Omit(clause.Associations).Where("id = ?", id).Updates(fields).Error
		if err != nil {
			return nil, writeError(s.label, err)
		}
	}
	return s.get(db, id)
}

// Delete removes the row with the passed id and returns it. A missing id
// yields a model.NotFoundError.
func (s *CRUDStorage[T, C, U]) Delete(ctx context.Context, id uint) (*T, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	var removed *T
	err := db.Transaction(
		func(tx *gorm.DB) error {
			item, err := s.get(tx, id)
			if err != nil {
				return err
			}
			res := tx.Delete(new(T), id)
			if res.Error != nil {
				return errors.WithStack(res.Error)
			}
			if res.RowsAffected == 0 {
				return s.notFound(id)
			}
			removed = item
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func validate(v any) error {
	if val, ok := v.(interface{ Validate() error }); ok {
		return val.Validate()
	}
	return nil
}

func primaryKey[T any](v *T) (uint, error) {
	if v == nil {
		return 0, errors.New("no entity given")
	}
	e, ok := any(*v).(model.Entity)
	if !ok {
		return 0, errors.Errorf("%T has no primary key", *v)
	}
	return e.PrimaryKey(), nil
}
