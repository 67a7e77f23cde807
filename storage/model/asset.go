package model

import (
	"context"
	"strings"
	"time"

	"tideland.dev/go/slices"
)

// Asset is a piece of hardware tracked by the inventory
type Asset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	InventoryNumber  string   `gorm:"uniqueIndex;size:100;not null" json:"inventory_number"`
	SerialNumber     *string  `gorm:"uniqueIndex;size:190" json:"serial_number"`
	Model            *string  `json:"model"`
	PurchasePrice    *float64 `json:"purchase_price"`
	Department       *string  `json:"department"`
	OSVersion        *string  `gorm:"column:os_version" json:"os_version"`
	InstallationDate *Date    `json:"installation_date"`
	WarrantyExpiry   *Date    `json:"warranty_expiry"`
	PurchaseDate     *Date    `json:"purchase_date"`
	Notes            *string  `gorm:"type:text" json:"notes"`
	IPAddress        *string  `gorm:"column:ip_address" json:"ip_address"`
	Hostname         *string  `json:"hostname"`
	MACAddress       *string  `gorm:"column:mac_address" json:"mac_address"`
	Room             *string  `json:"room"`

	AssetTypeID    uint  `gorm:"not null;index" json:"asset_type_id"`
	ManufacturerID uint  `gorm:"not null;index" json:"manufacturer_id"`
	StatusID       uint  `gorm:"not null;index" json:"status_id"`
	LocationID     uint  `gorm:"not null;index" json:"location_id"`
	SupplierID     *uint `gorm:"index" json:"supplier_id"`
	UserID         *uint `gorm:"index" json:"user_id"`

	AssetType    *AssetType    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"asset_type,omitempty"`
	Manufacturer *Manufacturer `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"manufacturer,omitempty"`
	Status       *Status       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"status,omitempty"`
	Location     *Location     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"location,omitempty"`
	Supplier     *Supplier     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"supplier,omitempty"`
	User         *User         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"user,omitempty"`
}

// PrimaryKey returns the id of the Asset
func (a Asset) PrimaryKey() uint { return a.ID }

// AssetRelations lists the belongs-to associations that are preloaded when
// assets are read
var AssetRelations = []string{
	"AssetType",
	"Manufacturer",
	"Status",
	"Location",
	"Supplier",
	"User",
}

// AddAsset is the create payload for an Asset
type AddAsset struct {
	InventoryNumber  string   `json:"inventory_number"`
	SerialNumber     *string  `json:"serial_number"`
	Model            *string  `json:"model"`
	PurchasePrice    *float64 `json:"purchase_price"`
	Department       *string  `json:"department"`
	OSVersion        *string  `json:"os_version"`
	InstallationDate *Date    `json:"installation_date"`
	WarrantyExpiry   *Date    `json:"warranty_expiry"`
	PurchaseDate     *Date    `json:"purchase_date"`
	Notes            *string  `json:"notes"`
	IPAddress        *string  `json:"ip_address"`
	Hostname         *string  `json:"hostname"`
	MACAddress       *string  `json:"mac_address"`
	Room             *string  `json:"room"`

	AssetTypeID    uint  `json:"asset_type_id"`
	ManufacturerID uint  `json:"manufacturer_id"`
	StatusID       uint  `json:"status_id"`
	LocationID     uint  `json:"location_id"`
	SupplierID     *uint `json:"supplier_id"`
	UserID         *uint `json:"user_id"`
}

var requiredAssetFields = []string{
	"inventory_number",
	"asset_type_id",
	"manufacturer_id",
	"status_id",
	"location_id",
}

// Validate checks that all mandatory fields are set
func (a AddAsset) Validate() error {
	var given []string
	if strings.TrimSpace(a.InventoryNumber) != "" {
		given = append(given, "inventory_number")
	}
	if a.AssetTypeID != 0 {
		given = append(given, "asset_type_id")
	}
	if a.ManufacturerID != 0 {
		given = append(given, "manufacturer_id")
	}
	if a.StatusID != 0 {
		given = append(given, "status_id")
	}
	if a.LocationID != 0 {
		given = append(given, "location_id")
	}
	if missing := slices.Subtract(requiredAssetFields, given); len(missing) > 0 {
		return ValidationError{
			Message: "missing required fields",
			Details: missing,
		}
	}
	return nil
}

// New implements Creatable
func (a AddAsset) New() *Asset {
	return &Asset{
		InventoryNumber:  strings.TrimSpace(a.InventoryNumber),
		SerialNumber:     emptyToNil(a.SerialNumber),
		Model:            a.Model,
		PurchasePrice:    a.PurchasePrice,
		Department:       a.Department,
		OSVersion:        a.OSVersion,
		InstallationDate: a.InstallationDate,
		WarrantyExpiry:   a.WarrantyExpiry,
		PurchaseDate:     a.PurchaseDate,
		Notes:            a.Notes,
		IPAddress:        a.IPAddress,
		Hostname:         a.Hostname,
		MACAddress:       a.MACAddress,
		Room:             a.Room,
		AssetTypeID:      a.AssetTypeID,
		ManufacturerID:   a.ManufacturerID,
		StatusID:         a.StatusID,
		LocationID:       a.LocationID,
		SupplierID:       a.SupplierID,
		UserID:           a.UserID,
	}
}

// emptyToNil maps blank serial numbers to NULL, so that the unique index only
// applies to assets that actually have one
func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

// trimmed returns o with surrounding white space removed from its value
func trimmed(o Optional[string]) Optional[string] {
	if o.Value != nil {
		v := strings.TrimSpace(*o.Value)
		o.Value = &v
	}
	return o
}

// AssetUpdate is a partial update of an Asset. Only present fields are
// applied; the id can not be changed.
type AssetUpdate struct {
	InventoryNumber  Optional[string]  `json:"inventory_number"`
	SerialNumber     Optional[string]  `json:"serial_number"`
	Model            Optional[string]  `json:"model"`
	PurchasePrice    Optional[float64] `json:"purchase_price"`
	Department       Optional[string]  `json:"department"`
	OSVersion        Optional[string]  `json:"os_version"`
	InstallationDate Optional[Date]    `json:"installation_date"`
	WarrantyExpiry   Optional[Date]    `json:"warranty_expiry"`
	PurchaseDate     Optional[Date]    `json:"purchase_date"`
	Notes            Optional[string]  `json:"notes"`
	IPAddress        Optional[string]  `json:"ip_address"`
	Hostname         Optional[string]  `json:"hostname"`
	MACAddress       Optional[string]  `json:"mac_address"`
	Room             Optional[string]  `json:"room"`

	AssetTypeID    Optional[uint] `json:"asset_type_id"`
	ManufacturerID Optional[uint] `json:"manufacturer_id"`
	StatusID       Optional[uint] `json:"status_id"`
	LocationID     Optional[uint] `json:"location_id"`
	SupplierID     Optional[uint] `json:"supplier_id"`
	UserID         Optional[uint] `json:"user_id"`
}

// Validate rejects clearing mandatory columns
func (u AssetUpdate) Validate() error {
	var cleared []string
	if u.InventoryNumber.Present && (u.InventoryNumber.Value == nil || strings.TrimSpace(*u.InventoryNumber.Value) == "") {
		cleared = append(cleared, "inventory_number")
	}
	for _, f := range []struct {
		name string
		o    Optional[uint]
	}{
		{"asset_type_id", u.AssetTypeID},
		{"manufacturer_id", u.ManufacturerID},
		{"status_id", u.StatusID},
		{"location_id", u.LocationID},
	} {
		if f.o.Present && (f.o.Value == nil || *f.o.Value == 0) {
			cleared = append(cleared, f.name)
		}
	}
	if len(cleared) > 0 {
		return ValidationError{
			Message: "required fields cannot be cleared",
			Details: cleared,
		}
	}
	return nil
}

// Assignments implements Patch
func (u AssetUpdate) Assignments() map[string]any {
	m := make(map[string]any)
	trimmed(u.InventoryNumber).assign(m, "inventory_number")
	if u.SerialNumber.Present {
		m["serial_number"] = nil
		if v := emptyToNil(u.SerialNumber.Value); v != nil {
			m["serial_number"] = *v
		}
	}
	u.Model.assign(m, "model")
	u.PurchasePrice.assign(m, "purchase_price")
	u.Department.assign(m, "department")
	u.OSVersion.assign(m, "os_version")
	u.InstallationDate.assign(m, "installation_date")
	u.WarrantyExpiry.assign(m, "warranty_expiry")
	u.PurchaseDate.assign(m, "purchase_date")
	u.Notes.assign(m, "notes")
	u.IPAddress.assign(m, "ip_address")
	u.Hostname.assign(m, "hostname")
	u.MACAddress.assign(m, "mac_address")
	u.Room.assign(m, "room")
	u.AssetTypeID.assign(m, "asset_type_id")
	u.ManufacturerID.assign(m, "manufacturer_id")
	u.StatusID.assign(m, "status_id")
	u.LocationID.assign(m, "location_id")
	u.SupplierID.assign(m, "supplier_id")
	u.UserID.assign(m, "user_id")
	return m
}

// AssetPage is one page of a search together with the number of all matches
type AssetPage struct {
	Items []Asset `json:"items"`
	Total int64   `json:"total"`
}

// AssetsStore is the asset engine: search plus audit-logged writes
type AssetsStore interface {
	Get(ctx context.Context, id uint) (*Asset, error)
	Search(ctx context.Context, q AssetQuery) ([]Asset, int64, error)
	Count(ctx context.Context, q AssetQuery) (int64, error)
	CreateWithLog(ctx context.Context, add AddAsset, actorID uint) (*Asset, error)
	UpdateWithLog(ctx context.Context, existing *Asset, update AssetUpdate, actorID uint) (*Asset, error)
	Delete(ctx context.Context, id uint) (*Asset, error)
}
