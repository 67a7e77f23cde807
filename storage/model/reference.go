package model

import (
	"strings"
	"time"
)

// AssetType classifies assets, e.g. "Notebook" or "Monitor"
type AssetType struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	Name      string    `gorm:"uniqueIndex;size:190;not null" json:"name"`
}

// Manufacturer is the vendor that built an asset
type Manufacturer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	Name      string    `gorm:"uniqueIndex;size:190;not null" json:"name"`
}

// Status is the lifecycle state of an asset, e.g. "In use"
type Status struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	Name      string    `gorm:"uniqueIndex;size:190;not null" json:"name"`
}

// Location is a site or room where assets are kept
type Location struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"-"`
	Name        string    `gorm:"uniqueIndex;size:190;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
}

// Supplier is the company an asset was bought from
type Supplier struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"-"`
	Name          string    `gorm:"uniqueIndex;size:190;not null" json:"name"`
	ContactPerson string    `json:"contact_person,omitempty"`
}

// PrimaryKey returns the id of the AssetType
func (t AssetType) PrimaryKey() uint { return t.ID }

// PrimaryKey returns the id of the Manufacturer
func (m Manufacturer) PrimaryKey() uint { return m.ID }

// PrimaryKey returns the id of the Status
func (s Status) PrimaryKey() uint { return s.ID }

// PrimaryKey returns the id of the Location
func (l Location) PrimaryKey() uint { return l.ID }

// PrimaryKey returns the id of the Supplier
func (s Supplier) PrimaryKey() uint { return s.ID }

// AddNamed is the create payload shared by AssetType, Manufacturer and Status
type AddNamed struct {
	Name string `json:"name"`
}

// Validate checks the payload
func (a AddNamed) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ValidationErrorFmt("name is required")
	}
	return nil
}

// AddAssetType is the create payload for an AssetType
type AddAssetType struct{ AddNamed }

// New implements Creatable
func (a AddAssetType) New() *AssetType {
	return &AssetType{Name: strings.TrimSpace(a.Name)}
}

// AddManufacturer is the create payload for a Manufacturer
type AddManufacturer struct{ AddNamed }

// New implements Creatable
func (a AddManufacturer) New() *Manufacturer {
	return &Manufacturer{Name: strings.TrimSpace(a.Name)}
}

// AddStatus is the create payload for a Status
type AddStatus struct{ AddNamed }

// New implements Creatable
func (a AddStatus) New() *Status {
	return &Status{Name: strings.TrimSpace(a.Name)}
}

// AddLocation is the create payload for a Location
type AddLocation struct {
	AddNamed
	Description string `json:"description"`
}

// New implements Creatable
func (a AddLocation) New() *Location {
	return &Location{
		Name:        strings.TrimSpace(a.Name),
		Description: a.Description,
	}
}

// AddSupplier is the create payload for a Supplier
type AddSupplier struct {
	AddNamed
	ContactPerson string `json:"contact_person"`
}

// New implements Creatable
func (a AddSupplier) New() *Supplier {
	return &Supplier{
		Name:          strings.TrimSpace(a.Name),
		ContactPerson: a.ContactPerson,
	}
}

// NamedUpdate is the partial update shared by all named reference entities
type NamedUpdate struct {
	Name Optional[string] `json:"name"`
}

// Validate rejects clearing or blanking the name
func (u NamedUpdate) Validate() error {
	if u.Name.Present && (u.Name.Value == nil || strings.TrimSpace(*u.Name.Value) == "") {
		return ValidationErrorFmt("name is required")
	}
	return nil
}

// Assignments implements Patch
func (u NamedUpdate) Assignments() map[string]any {
	m := make(map[string]any)
	trimmed(u.Name).assign(m, "name")
	return m
}

// LocationUpdate is the partial update of a Location
type LocationUpdate struct {
	NamedUpdate
	Description Optional[string] `json:"description"`
}

// Assignments implements Patch
func (u LocationUpdate) Assignments() map[string]any {
	m := u.NamedUpdate.Assignments()
	u.Description.assign(m, "description")
	return m
}

// SupplierUpdate is the partial update of a Supplier
type SupplierUpdate struct {
	NamedUpdate
	ContactPerson Optional[string] `json:"contact_person"`
}

// Assignments implements Patch
func (u SupplierUpdate) Assignments() map[string]any {
	m := u.NamedUpdate.Assignments()
	u.ContactPerson.assign(m, "contact_person")
	return m
}

// Reference describes a reference table that assets point to, i.e. the
// foreign key column on the asset table and a human-readable label.
type Reference struct {
	Label    string
	FKColumn string
}

// The references guarded before deletion
var (
	ReferenceAssetType    = Reference{Label: "Asset type", FKColumn: "asset_type_id"}
	ReferenceManufacturer = Reference{Label: "Manufacturer", FKColumn: "manufacturer_id"}
	ReferenceStatus       = Reference{Label: "Status", FKColumn: "status_id"}
	ReferenceLocation     = Reference{Label: "Location", FKColumn: "location_id"}
	ReferenceSupplier     = Reference{Label: "Supplier", FKColumn: "supplier_id"}
	ReferenceUser         = Reference{Label: "User", FKColumn: "user_id"}
)
