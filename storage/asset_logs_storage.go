package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/rio-inventory/inventory/storage/model"
)

// AssetLogsStorage implements model.AssetLogsStore using GORM
type AssetLogsStorage struct {
	db      *gorm.DB
	timeout time.Duration
	inTx    bool
	now     func() time.Time
}

// WithTx returns a copy of the storage that writes through tx
func (s *AssetLogsStorage) WithTx(tx *gorm.DB) *AssetLogsStorage {
	c := *s
	c.db = tx
	c.inTx = true
	return &c
}

func (s *AssetLogsStorage) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if s.inTx {
		return s.db, func() {}
	}
	return withTimeout(ctx, s.db, s.timeout)
}

func (s *AssetLogsStorage) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

// ForAsset returns the entries of an asset, newest first; entries with the
// same timestamp are ordered by id
func (s *AssetLogsStorage) ForAsset(ctx context.Context, assetID uint, offset, limit int) ([]model.AssetLog, error) {
	if offset < 0 || limit < 0 {
		return nil, model.ValidationErrorFmt("offset and limit must not be negative")
	}
	if limit == 0 {
		limit = model.DefaultLimit
	}
	db, cancel := s.conn(ctx)
	defer cancel()
	logs := make([]model.AssetLog, 0)
	err := db.Preload("ChangedBy").
		Where("asset_id = ?", assetID).
		Order("timestamp DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return logs, nil
}

// CountForAsset returns the number of entries of an asset
func (s *AssetLogsStorage) CountForAsset(ctx context.Context, assetID uint) (int64, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	var count int64
	if err := db.Model(&model.AssetLog{}).Where("asset_id = ?", assetID).Count(&count).Error; err != nil {
		return 0, errors.WithStack(err)
	}
	return count, nil
}

// Append stores the entries in order. Timestamps are assigned here and never
// go back behind the latest entry of the same asset, even if the wall clock
// does.
func (s *AssetLogsStorage) Append(ctx context.Context, entries ...model.AssetLog) error {
	if len(entries) == 0 {
		return nil
	}
	db, cancel := s.conn(ctx)
	defer cancel()
	return db.Transaction(
		func(tx *gorm.DB) error {
			latest := make(map[uint]time.Time)
			for i := range entries {
				e := &entries[i]
				if e.Action == "" {
					return errors.New("log entry without action")
				}
				last, ok := latest[e.AssetID]
				if !ok {
					var err error
					if last, err = latestTimestamp(tx, e.AssetID); err != nil {
						return err
					}
				}
				ts := s.clock()
				if ts.Before(last) {
					ts = last
				}
				e.ID = 0
				e.Timestamp = ts
				latest[e.AssetID] = ts
			}
			if err := tx.Omit("ChangedBy").Create(&entries).Error; err != nil {
				return errors.WithStack(err)
			}
			return nil
		},
	)
}

// DeleteForAsset removes the whole history of an asset. It is only used when
// the asset itself is deleted.
func (s *AssetLogsStorage) DeleteForAsset(ctx context.Context, assetID uint) (int64, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	res := db.Where("asset_id = ?", assetID).Delete(&model.AssetLog{})
	if res.Error != nil {
		return 0, errors.WithStack(res.Error)
	}
	return res.RowsAffected, nil
}

func latestTimestamp(tx *gorm.DB, assetID uint) (time.Time, error) {
	var last model.AssetLog
	err := tx.Select("timestamp").
		Where("asset_id = ?", assetID).
		Order("timestamp DESC").
		Limit(1).
		Find(&last).Error
	if err != nil {
		return time.Time{}, errors.WithStack(err)
	}
	return last.Timestamp, nil
}
