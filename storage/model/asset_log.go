package model

import (
	"context"
	"time"
)

// LogAction is the kind of change recorded by an AssetLog
type LogAction string

// Constants for LogAction
const (
	LogActionCreate LogAction = "CREATE"
	LogActionUpdate LogAction = "UPDATE"
	LogActionDelete LogAction = "DELETE"
)

// AssetLog is one entry of the append-only change history of an asset.
// UPDATE entries carry the changed field with its old and new value, CREATE
// and DELETE entries only a note.
type AssetLog struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Timestamp       time.Time `gorm:"index;not null" json:"timestamp"`
	AssetID         uint      `gorm:"index;not null" json:"asset_id"`
	ChangedByUserID *uint     `gorm:"index" json:"changed_by_user_id"`
	Action          LogAction `gorm:"size:16;not null" json:"action"`
	FieldChanged    *string   `gorm:"size:100" json:"field_changed"`
	OldValue        *string   `gorm:"type:text" json:"old_value"`
	NewValue        *string   `gorm:"type:text" json:"new_value"`
	Notes           *string   `gorm:"type:text" json:"notes"`

	ChangedBy *User `gorm:"foreignKey:ChangedByUserID;constraint:OnDelete:SET NULL" json:"changed_by,omitempty"`
}

// NewCreateLog returns the CREATE entry for an asset
func NewCreateLog(asset *Asset, actorID uint) AssetLog {
	note := "Asset '" + asset.InventoryNumber + "' created."
	return AssetLog{
		AssetID:         asset.ID,
		ChangedByUserID: actorRef(actorID),
		Action:          LogActionCreate,
		Notes:           &note,
	}
}

// NewUpdateLog returns an UPDATE entry for a single changed field
func NewUpdateLog(assetID, actorID uint, field string, oldValue, newValue *string) AssetLog {
	return AssetLog{
		AssetID:         assetID,
		ChangedByUserID: actorRef(actorID),
		Action:          LogActionUpdate,
		FieldChanged:    &field,
		OldValue:        oldValue,
		NewValue:        newValue,
	}
}

func actorRef(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

// AssetLogsStore gives access to the change history
type AssetLogsStore interface {
	// ForAsset returns the entries of an asset, newest first
	ForAsset(ctx context.Context, assetID uint, offset, limit int) ([]AssetLog, error)
	// Append adds entries at the end of the history
	Append(ctx context.Context, entries ...AssetLog) error
	// CountForAsset returns the number of entries of an asset
	CountForAsset(ctx context.Context, assetID uint) (int64, error)
}
