package storage

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rio-inventory/inventory/storage/model"
)

// AssetsStorage is the asset engine. It adds search and audit logging on top
// of the generic CRUDStorage; every write is recorded in the change log
// within the same transaction.
type AssetsStorage struct {
	*CRUDStorage[model.Asset, model.AddAsset, model.AssetUpdate]
	logs *AssetLogsStorage
}

func newAssetsStorage(db *gorm.DB, timeout time.Duration, maxLimit int) *AssetsStorage {
	crud := NewCRUDStorage[model.Asset, model.AddAsset, model.AssetUpdate](
		db, timeout, "asset", model.AssetRelations...,
	)
	crud.maxLimit = maxLimit
	return &AssetsStorage{
		CRUDStorage: crud,
		logs: &AssetLogsStorage{
			db:      db,
			timeout: timeout,
		},
	}
}

// searchColumns are matched by the free text search
var searchColumns = []string{
	"assets.inventory_number",
	"assets.model",
	"assets.hostname",
	"assets.serial_number",
	"users.display_name",
	"manufacturers.name",
	"locations.name",
}

// likeEscaper escapes LIKE wildcards so that the search term matches literally
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// filtered returns the asset query with all joins needed for search and sort
// and the search predicate applied
func filtered(db *gorm.DB, search string) *gorm.DB {
	q := db.Model(&model.Asset{}).
		Joins("LEFT JOIN asset_types ON asset_types.id = assets.asset_type_id").
		Joins("LEFT JOIN manufacturers ON manufacturers.id = assets.manufacturer_id").
		Joins("LEFT JOIN statuses ON statuses.id = assets.status_id").
		Joins("LEFT JOIN locations ON locations.id = assets.location_id").
		Joins("LEFT JOIN users ON users.id = assets.user_id")
	if search == "" {
		return q
	}
	// Both sides are lowered by the database so that the folding is the same;
	// sqlite only folds ASCII letters.
	pattern := "%" + likeEscaper.Replace(search) + "%"
	conditions := make([]string, len(searchColumns))
	args := make([]any, len(searchColumns))
	for i, c := range searchColumns {
		conditions[i] = "LOWER(" + c + ") LIKE LOWER(?) ESCAPE '!'"
		args[i] = pattern
	}
	return q.Where(strings.Join(conditions, " OR "), args...)
}

// Search returns one page of assets matching q together with the number of
// all matching assets. The order is total: ties of the sort key are broken
// by id in the same direction.
func (s *AssetsStorage) Search(ctx context.Context, q model.AssetQuery) ([]model.Asset, int64, error) {
	column, err := q.Normalize(s.maxLimit)
	if err != nil {
		return nil, 0, err
	}
	db, cancel := s.conn(ctx)
	defer cancel()

	var total int64
	if err = filtered(db, q.Search).Count(&total).Error; err != nil {
		return nil, 0, errors.WithStack(err)
	}

	dir := strings.ToUpper(string(q.SortDir))
	order := column + " " + dir
	if column != "assets.id" {
		order += ", assets.id " + dir
	}
	items := make([]model.Asset, 0)
	err = s.withPreload(filtered(db, q.Search)).
		Select("assets.*").
		Order(order).
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	return items, total, nil
}

// Count returns the number of assets matching the search term of q, without
// loading any of them
func (s *AssetsStorage) Count(ctx context.Context, q model.AssetQuery) (int64, error) {
	if _, err := q.Normalize(s.maxLimit); err != nil {
		return 0, err
	}
	db, cancel := s.conn(ctx)
	defer cancel()
	var total int64
	if err := filtered(db, q.Search).Count(&total).Error; err != nil {
		return 0, errors.WithStack(err)
	}
	return total, nil
}

// CreateWithLog creates the asset and its CREATE log entry in one transaction
func (s *AssetsStorage) CreateWithLog(ctx context.Context, add model.AddAsset, actorID uint) (*model.Asset, error) {
	db, cancel := withTimeout(ctx, s.db, s.timeout)
	defer cancel()
	var created *model.Asset
	err := db.Transaction(
		func(tx *gorm.DB) error {
			crud := s.CRUDStorage.WithTx(tx)
			asset, err := crud.Create(ctx, add)
			if err != nil {
				return err
			}
			if err = s.logs.WithTx(tx).Append(ctx, model.NewCreateLog(asset, actorID)); err != nil {
				return err
			}
			created, err = crud.get(tx, asset.ID)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	log.WithFields(
		log.Fields{
			"asset_id":         created.ID,
			"inventory_number": created.InventoryNumber,
			"actor":            actorID,
		},
	).Debug("asset created")
	return created, nil
}

// lockAsset holds the row lock of the asset until tx ends, so that updates of
// one asset and their log appends run one after another. sqlite has a single
// writer anyway and does not know FOR UPDATE.
func lockAsset(tx *gorm.DB, id uint) error {
	if tx.Dialector.Name() == string(DriverSQLite) {
		return nil
	}
	var asset model.Asset
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&asset, id).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.WithStack(err)
	}
	return nil
}

// UpdateWithLog applies update to existing and appends one UPDATE entry for
// every present field whose value actually changed. Update and log entries
// are written in one transaction.
func (s *AssetsStorage) UpdateWithLog(
	ctx context.Context, existing *model.Asset, update model.AssetUpdate, actorID uint,
) (*model.Asset, error) {
	if existing == nil {
		return nil, errors.New("no asset given")
	}
	db, cancel := withTimeout(ctx, s.db, s.timeout)
	defer cancel()
	var updated *model.Asset
	var changes []model.FieldChange
	err := db.Transaction(
		func(tx *gorm.DB) error {
			crud := s.CRUDStorage.WithTx(tx)
			if err := lockAsset(tx, existing.ID); err != nil {
				return err
			}
			before, err := crud.get(tx, existing.ID)
			if err != nil {
				return err
			}
			after, err := crud.Update(ctx, before, update)
			if err != nil {
				return err
			}
			changes = model.DiffAssets(before, after, update.Assignments())
			if len(changes) > 0 {
				entries := make([]model.AssetLog, len(changes))
				for i, c := range changes {
					entries[i] = model.NewUpdateLog(after.ID, actorID, c.Field, c.OldValue, c.NewValue)
				}
				if err = s.logs.WithTx(tx).Append(ctx, entries...); err != nil {
					return err
				}
			}
			updated = after
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	log.WithFields(
		log.Fields{
			"asset_id": updated.ID,
			"changes":  len(changes),
			"actor":    actorID,
		},
	).Debug("asset updated")
	return updated, nil
}

// Delete removes the asset together with its whole change history in one
// transaction, history first
func (s *AssetsStorage) Delete(ctx context.Context, id uint) (*model.Asset, error) {
	db, cancel := withTimeout(ctx, s.db, s.timeout)
	defer cancel()
	var removed *model.Asset
	var logCount int64
	err := db.Transaction(
		func(tx *gorm.DB) error {
			crud := s.CRUDStorage.WithTx(tx)
			if _, err := crud.get(tx, id); err != nil {
				return err
			}
			var err error
			if logCount, err = s.logs.WithTx(tx).DeleteForAsset(ctx, id); err != nil {
				return err
			}
			removed, err = crud.Delete(ctx, id)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	log.WithFields(
		log.Fields{
			"asset_id":    id,
			"log_entries": logCount,
		},
	).Debug("asset deleted")
	return removed, nil
}
